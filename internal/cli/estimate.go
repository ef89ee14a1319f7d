package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/model"
)

func runEstimate(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		common commonFlags
		input  inputFlags
		bar    string
		waste  float64
		price  float64
		format string
	)
	fs := newFlagSet("estimate", stderr)
	common.register(fs)
	input.register(fs)
	fs.StringVar(&bar, "bar", "", "length of the bars to buy (required)")
	fs.Float64Var(&waste, "waste", 10, "waste allowance in percent")
	fs.Float64Var(&price, "price", 0, "price per bar")
	fs.StringVar(&format, "format", "text", "output format: text or json")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if bar == "" {
		fmt.Fprintln(stderr, "barcut: -bar is required")
		return ExitUsage
	}
	if waste < 0 || price < 0 {
		fmt.Fprintln(stderr, "barcut: "+engine.MsgNegative)
		return ExitUsage
	}
	barLength, err := engine.ParseLength(bar)
	if err != nil {
		return fail(stderr, fmt.Errorf("-bar: %w", err))
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
	// A single bar of the purchase length stands in for the stock so the
	// demand goes through the usual validation.
	raw.Stock = []model.RawItem{{Length: barLength, Quantity: 1}}
	req, err := engine.Normalize(raw)
	if err != nil {
		fmt.Fprintln(stderr, engine.Message(err))
		return ExitFailed
	}

	est := model.CalculatePurchaseEstimate(req.Demand, barLength, waste, price)
	rt.log.Info("purchase estimated", "bar", barLength.String(), "bars", est.BarsWithWaste)

	if format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(est); err != nil {
			return fail(stderr, err)
		}
		return ExitOK
	}

	unit := rt.settings.Unit
	fmt.Fprintf(stdout, "Bar length: %s %s\n", est.BarLength.String(), unit)
	fmt.Fprintf(stdout, "Total piece length: %s %s\n", est.TotalPieceLength.String(), unit)
	fmt.Fprintf(stdout, "Bars needed (exact): %.2f\n", est.BarsNeededExact)
	fmt.Fprintf(stdout, "Bars needed (minimum): %d\n", est.BarsNeededMin)
	fmt.Fprintf(stdout, "Bars to buy (%g%% waste allowance): %d\n", est.WastePercent, est.BarsWithWaste)
	if est.PricePerBar > 0 {
		fmt.Fprintf(stdout, "Estimated cost: %.2f\n", est.EstimatedCost)
	}
	return ExitOK
}
