package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/model"
)

func runCompare(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		common     commonFlags
		input      inputFlags
		strategies string
	)
	fs := newFlagSet("compare", stderr)
	common.register(fs)
	input.register(fs)
	fs.StringVar(&strategies, "strategies", "ip,greedy,divisor", "comma-separated strategies to compare")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	var names []model.Strategy
	for _, s := range strings.Split(strategies, ",") {
		name := model.Strategy(strings.TrimSpace(s))
		if name == "" {
			continue
		}
		if !name.Valid() {
			fmt.Fprintf(stderr, "barcut: "+engine.MsgUnknownStrategy+"\n", name)
			return ExitUsage
		}
		names = append(names, name)
	}

	rt, err := common.setup(stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer rt.log.Close()

	raw, err := input.load(rt.cfg, rt.log.Logger)
	if err != nil {
		return fail(stderr, err)
	}
	req, err := engine.Normalize(raw)
	if err != nil {
		fmt.Fprintln(stderr, engine.Message(err))
		return ExitFailed
	}

	results, err := rt.optimizer().CompareStrategies(ctx, req, names)
	if err != nil {
		return fail(stderr, err)
	}
	writeComparison(stdout, results)

	if _, ok := engine.Best(results); !ok {
		return ExitFailed
	}
	return ExitOK
}

func writeComparison(w io.Writer, results []engine.ComparisonResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tBARS\tWASTE\tWASTE %\tSPREAD\tTIME\tRESULT")
	for _, r := range results {
		if !r.OK() {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t%s\t%s\n", r.Strategy, r.Duration.Round(time.Microsecond), engine.Message(r.Err))
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\t%g\t%s\tok\n",
			r.Strategy, r.BarsUsed, r.TotalWaste.String(), r.WastePercent, r.Spread, r.Duration.Round(time.Microsecond))
	}
	tw.Flush()

	if best, ok := engine.Best(results); ok {
		fmt.Fprintf(w, "\nBest: %s (%d bars, waste %s)\n", best.Strategy, best.BarsUsed, best.TotalWaste.String())
	}
}
