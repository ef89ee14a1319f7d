// Package cli implements the barcut command line.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/piwi3910/BarCut/internal/config"
	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/logging"
	"github.com/piwi3910/BarCut/internal/model"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1 // the command ran but could not produce a result
	ExitUsage  = 2
)

const usageText = `Usage: barcut <command> [flags]

Commands:
  solve      optimize a cutting plan and write the report and exports
  compare    solve one request with several strategies side by side
  estimate   estimate how many bars to buy for a demand list
  serve      run the HTTP server
  warehouse  show and edit the stock warehouse file
  profiles   list saw post-processor profiles

Run "barcut <command> -h" for the flags of a command.
`

type command func(ctx context.Context, args []string, stdout, stderr io.Writer) int

var commands = map[string]command{
	"solve":     runSolve,
	"compare":   runCompare,
	"estimate":  runEstimate,
	"serve":     runServe,
	"warehouse": runWarehouse,
	"profiles":  runProfiles,
}

// Run executes the command named by args[0] and returns the process exit
// code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return ExitUsage
	}
	switch args[0] {
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usageText)
		return ExitOK
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "barcut: unknown command %q\n\n%s", args[0], usageText)
		return ExitUsage
	}
	return cmd(ctx, args[1:], stdout, stderr)
}

// commonFlags are accepted by every command that loads configuration.
type commonFlags struct {
	configPath string
	logLevel   string
	strategy   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "configuration file (toml, yaml or json)")
	fs.StringVar(&c.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	fs.StringVar(&c.strategy, "strategy", "", "override solver.strategy (ip, greedy, divisor)")
}

// session is what a command needs after configuration is loaded.
type session struct {
	loader   *config.Loader
	cfg      *config.Config
	settings model.Settings
	log      *logging.Logger
}

func (c *commonFlags) setup(stderr io.Writer) (*session, error) {
	loader := config.NewLoader(nil)
	cfg, err := loader.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}

	opts := logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	var log *logging.Logger
	if opts.File != "" {
		log = logging.New(opts)
	} else {
		log = logging.NewWithWriter(stderr, opts)
	}

	settings := cfg.Settings()
	if c.strategy != "" {
		s := model.Strategy(c.strategy)
		if !s.Valid() {
			log.Close()
			return nil, fmt.Errorf(engine.MsgUnknownStrategy, c.strategy)
		}
		settings.Strategy = s
	}
	return &session{loader: loader, cfg: cfg, settings: settings, log: log}, nil
}

func (rt *session) optimizer(opts ...engine.Option) *engine.Optimizer {
	opts = append([]engine.Option{engine.WithLogger(rt.log.Logger)}, opts...)
	return engine.New(rt.settings, opts...)
}

// parseFlags parses args into fs. It returns false with the exit code when
// the command should stop, which includes -h.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK, false
		}
		return ExitUsage, false
	}
	return ExitOK, true
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("barcut "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "barcut: %v\n", err)
	return ExitFailed
}
