package engine

import (
	"context"
	"time"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
)

// ComparisonResult holds the outcome of one strategy on a shared request.
type ComparisonResult struct {
	Strategy     model.Strategy
	Plan         model.Plan
	Err          error
	BarsUsed     int
	TotalWaste   decimal.Decimal
	WastePercent float64
	Spread       float64
	Duration     time.Duration
}

// OK reports whether the strategy produced a plan.
func (r ComparisonResult) OK() bool { return r.Err == nil }

// CompareStrategies solves req with each strategy in turn and returns the
// results in the same order. A failing strategy does not stop the others;
// its error is kept in the result. Only cancellation of ctx aborts.
func (o *Optimizer) CompareStrategies(ctx context.Context, req model.Request, strategies []model.Strategy) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(strategies))
	for _, name := range strategies {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		started := time.Now()
		plan, err := o.SolveRequest(ctx, req, name)
		res := ComparisonResult{
			Strategy: name,
			Err:      err,
			Duration: time.Since(started),
		}
		if err == nil {
			res.Plan = plan
			res.BarsUsed = plan.BarsUsed()
			res.TotalWaste = plan.TotalWaste
			res.WastePercent = plan.WastePercent()
			res.Spread = plan.Stats.Spread
		}
		results = append(results, res)
	}
	return results, nil
}

// Best returns the successful result with the least waste, fewer bars on
// ties, or false if every strategy failed.
func Best(results []ComparisonResult) (ComparisonResult, bool) {
	var (
		best  ComparisonResult
		found bool
	)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		if !found {
			best, found = r, true
			continue
		}
		c := r.TotalWaste.Cmp(best.TotalWaste)
		if c < 0 || (c == 0 && r.BarsUsed < best.BarsUsed) {
			best = r
		}
	}
	return best, found
}
