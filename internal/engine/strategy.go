package engine

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/piwi3910/BarCut/internal/milp"
	"github.com/piwi3910/BarCut/internal/model"
)

// Strategy chooses how many bars to cut with each pattern.
type Strategy interface {
	Name() model.Strategy
	Solve(ctx context.Context, req model.Request, set model.PatternSet) (model.Solution, error)
}

// IPStrategy solves the minimum-waste integer program and then redistributes
// usage as evenly as possible across stock lengths at that waste.
type IPStrategy struct {
	Solver milp.Solver
	Logger *slog.Logger
}

func (s *IPStrategy) Name() model.Strategy { return model.StrategyIP }

func (s *IPStrategy) Solve(ctx context.Context, req model.Request, set model.PatternSet) (model.Solution, error) {
	logger := s.Logger
	if logger == nil {
		logger = discardLogger
	}

	// A greedy fill, when it succeeds, is a feasible first incumbent.
	start, ok := greedyUsage(req, set)
	if !ok {
		start = nil
	}

	minSol, err := MinimizeWaste(ctx, s.Solver, req, set, start)
	if err != nil {
		return model.Solution{}, err
	}
	logger.Info("minimum waste found",
		"waste", minSol.Waste.String(),
		"nodes", minSol.Nodes,
		"seeded", start != nil)

	sol, err := Uniformize(ctx, s.Solver, req, set, minSol)
	if err != nil {
		return model.Solution{}, err
	}
	logger.Info("uniform solution found",
		"waste", sol.Waste.String(),
		"spread", sol.Spread,
		"nodes", sol.Nodes)
	return sol, nil
}

// GreedyStrategy fills the demand with the least wasteful patterns first.
// It is fast but may miss the optimum or fail on feasible requests.
type GreedyStrategy struct{}

func (GreedyStrategy) Name() model.Strategy { return model.StrategyGreedy }

func (GreedyStrategy) Solve(ctx context.Context, req model.Request, set model.PatternSet) (model.Solution, error) {
	if err := ctx.Err(); err != nil {
		return model.Solution{}, err
	}
	usage, ok := greedyUsage(req, set)
	if !ok {
		return model.Solution{}, newError(KindInfeasible, MsgInfeasible, nil)
	}
	return model.Solution{
		Usage:  usage,
		Waste:  totalWaste(req, set, usage),
		Spread: usageSpread(usedCounts(usage)),
	}, nil
}

// greedyUsage visits non-empty patterns by ascending waste, more pieces
// first on ties, and applies each as often as the remaining demand and stock
// allow. It reports false if demand remains.
func greedyUsage(req model.Request, set model.PatternSet) ([][]int, bool) {
	type ref struct{ i, j int }
	var order []ref
	for i, patterns := range set {
		for j, p := range patterns {
			if !p.IsEmpty() {
				order = append(order, ref{i, j})
			}
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := set[order[a].i][order[a].j], set[order[b].i][order[b].j]
		if c := pa.Waste.Cmp(pb.Waste); c != 0 {
			return c < 0
		}
		return pa.PieceCount() > pb.PieceCount()
	})

	remaining := make([]int, len(req.Demand))
	for k, d := range req.Demand {
		remaining[k] = d.Quantity
	}
	stock := make([]int, len(req.Stock))
	for i, s := range req.Stock {
		stock[i] = s.Quantity
	}
	usage := make([][]int, len(set))
	for i := range set {
		usage[i] = make([]int, len(set[i]))
	}

	for _, r := range order {
		p := set[r.i][r.j]
		n := stock[r.i]
		for k, q := range p.Pieces {
			if q > 0 && remaining[k]/q < n {
				n = remaining[k] / q
			}
		}
		if n <= 0 {
			continue
		}
		usage[r.i][r.j] += n
		stock[r.i] -= n
		for k, q := range p.Pieces {
			remaining[k] -= q * n
		}
	}

	for _, left := range remaining {
		if left > 0 {
			return nil, false
		}
	}
	return usage, true
}

// DivisorStrategy handles a single piece length. It only uses stock lengths
// that the piece length divides evenly and picks bar counts that meet the
// demand with zero waste, preferring the counts with the lowest variance.
type DivisorStrategy struct{}

func (DivisorStrategy) Name() model.Strategy { return model.StrategyDivisor }

func (DivisorStrategy) Solve(ctx context.Context, req model.Request, set model.PatternSet) (model.Solution, error) {
	if len(req.Demand) != 1 {
		return model.Solution{}, newError(KindUnsupported, MsgDivisorSingle, nil)
	}
	if err := checkLengths(append(req.StockLengths(), req.DemandLengths()...)...); err != nil {
		return model.Solution{}, err
	}
	sc := requestScale(req)
	piece := sc.units(req.Demand[0].Length)
	target := piece * int64(req.Demand[0].Quantity)

	// Candidate stock indexes with the number of pieces per bar and the
	// largest useful bar count.
	type candidate struct {
		stock   int
		pattern int
		length  int64
		limit   int
	}
	var cands []candidate
	for i, s := range req.Stock {
		length := sc.units(s.Length)
		if length%piece != 0 {
			continue
		}
		perBar := int(length / piece)
		j := findPattern(set[i], perBar)
		if j < 0 {
			continue
		}
		limit := int((target + length - 1) / length)
		if s.Quantity < limit {
			limit = s.Quantity
		}
		cands = append(cands, candidate{stock: i, pattern: j, length: length, limit: limit})
	}

	var (
		best     []int
		bestVar  = math.Inf(1)
		counts   = make([]int, len(cands))
		steps    int
		canceled error
	)
	var search func(k int, sum int64)
	search = func(k int, sum int64) {
		if canceled != nil {
			return
		}
		if steps++; steps%ctxCheckInterval == 0 {
			if canceled = ctx.Err(); canceled != nil {
				return
			}
		}
		if k == len(cands) {
			if sum != target {
				return
			}
			if v := variance(counts); v < bestVar {
				bestVar = v
				best = append(best[:0], counts...)
			}
			return
		}
		for n := 0; n <= cands[k].limit; n++ {
			next := sum + int64(n)*cands[k].length
			if next > target {
				break
			}
			counts[k] = n
			search(k+1, next)
		}
		counts[k] = 0
	}
	search(0, 0)
	if canceled != nil {
		return model.Solution{}, canceled
	}
	if best == nil {
		return model.Solution{}, newError(KindInfeasible, MsgNoZeroWaste, nil)
	}

	usage := make([][]int, len(set))
	for i := range set {
		usage[i] = make([]int, len(set[i]))
	}
	for k, c := range cands {
		usage[c.stock][c.pattern] = best[k]
	}
	return model.Solution{
		Usage:  usage,
		Waste:  totalWaste(req, set, usage),
		Spread: model.CleanFloat(bestVar),
	}, nil
}

// findPattern returns the index of the single-length pattern with n pieces.
func findPattern(patterns []model.Pattern, n int) int {
	for j, p := range patterns {
		if p.Pieces[0] == n {
			return j
		}
	}
	return -1
}

// variance is the population variance of counts.
func variance(counts []int) float64 {
	if len(counts) == 0 {
		return 0
	}
	var mean float64
	for _, c := range counts {
		mean += float64(c)
	}
	mean /= float64(len(counts))
	var v float64
	for _, c := range counts {
		d := float64(c) - mean
		v += d * d
	}
	return v / float64(len(counts))
}
