package cli

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/piwi3910/BarCut/internal/config"
	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/metrics"
	"github.com/piwi3910/BarCut/internal/server"
)

func runServe(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		common commonFlags
		addr   string
	)
	fs := newFlagSet("serve", stderr)
	common.register(fs)
	fs.StringVar(&addr, "addr", "", "override server.addr")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	rt, err := common.setup(stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer rt.log.Close()

	serverCfg := rt.cfg.Server
	if addr != "" {
		serverCfg.Addr = addr
	}

	gin.SetMode(gin.ReleaseMode)
	var (
		opts    []server.Option
		engOpts []engine.Option
	)
	opts = append(opts, server.WithLogger(rt.log.Logger))
	if rt.cfg.Metrics.Enabled {
		m := metrics.New()
		opts = append(opts, server.WithMetrics(m, rt.cfg.Metrics.Path))
		engOpts = append(engOpts, engine.WithObserver(m.ObserveSolve))
	}

	if common.configPath != "" {
		rt.loader.Watch(func(cfg *config.Config) {
			if common.logLevel == "" {
				rt.log.SetLevel(cfg.Log.Level)
			}
		})
	}

	srv := server.New(rt.optimizer(engOpts...), serverCfg, opts...)
	if err := srv.Run(ctx); err != nil {
		return fail(stderr, err)
	}
	rt.log.Info("server stopped")
	return ExitOK
}
