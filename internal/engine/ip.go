package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/piwi3910/BarCut/internal/milp"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
)

// usageModel holds the decision variables x[i][j] shared by both IP stages:
// the number of bars of stock i cut with pattern j.
type usageModel struct {
	m     *milp.Model
	x     [][]*milp.Var
	waste [][]int64 // pattern waste in scaled units
}

// newUsageModel builds the variables with their supply and demand
// constraints:
//
//	sum_j x[i][j] <= quantity[i]                  for every stock i
//	sum_ij pieces(i,j)[k] * x[i][j] = demand[k]   for every demand k
//	0 <= x[i][j] <= quantity[i]
func newUsageModel(name string, req model.Request, set model.PatternSet) *usageModel {
	sc := requestScale(req)
	um := &usageModel{
		m:     milp.NewModel(name),
		x:     make([][]*milp.Var, len(set)),
		waste: make([][]int64, len(set)),
	}
	for i, patterns := range set {
		qty := float64(req.Stock[i].Quantity)
		um.x[i] = make([]*milp.Var, len(patterns))
		um.waste[i] = make([]int64, len(patterns))
		supply := um.m.NewConstraint(fmt.Sprintf("supply_%d", i), milp.LessOrEqual, qty)
		for j, p := range patterns {
			v := um.m.NewInt(fmt.Sprintf("x_%d_%d", i, j), 0, qty)
			um.x[i][j] = v
			um.waste[i][j] = sc.units(p.Waste)
			supply.AddTerm(1, v)
		}
	}
	for k, d := range req.Demand {
		c := um.m.NewConstraint(fmt.Sprintf("demand_%d", k), milp.Equal, float64(d.Quantity))
		for i, patterns := range set {
			for j, p := range patterns {
				c.AddTerm(float64(p.Pieces[k]), um.x[i][j])
			}
		}
	}
	return um
}

// usage extracts the integer x table from a solver result.
func (um *usageModel) usage(res milp.Result) [][]int {
	out := make([][]int, len(um.x))
	for i, row := range um.x {
		out[i] = make([]int, len(row))
		for j, v := range row {
			out[i][j] = res.IntValue(v)
		}
	}
	return out
}

// wasteUnits returns the total waste of usage in scaled units.
func (um *usageModel) wasteUnits(usage [][]int) int64 {
	var total int64
	for i, row := range usage {
		for j, n := range row {
			total += um.waste[i][j] * int64(n)
		}
	}
	return total
}

// start returns usage as a flat assignment for milp.Model.SetStart, followed
// by extra values for variables added after x.
func (um *usageModel) start(usage [][]int, extra ...float64) []float64 {
	values := make([]float64, 0, um.m.NumVars())
	for _, row := range usage {
		for _, n := range row {
			values = append(values, float64(n))
		}
	}
	return append(values, extra...)
}

// totalWaste returns the exact waste of usage.
func totalWaste(req model.Request, set model.PatternSet, usage [][]int) decimal.Decimal {
	total := decimal.Zero
	for i, row := range usage {
		for j, n := range row {
			if n > 0 {
				total = total.Add(set[i][j].Waste.Mul(decimal.NewFromInt(int64(n))))
			}
		}
	}
	return total
}

// MinimizeWaste chooses pattern usage that fulfils the demand exactly within
// the available stock and minimizes total waste. start, if not nil, is a
// known feasible usage used to seed the search.
func MinimizeWaste(ctx context.Context, solver milp.Solver, req model.Request, set model.PatternSet, start [][]int) (model.Solution, error) {
	um := newUsageModel("min-waste", req, set)
	obj := um.m.Objective()
	for i, row := range um.x {
		for j, v := range row {
			obj.AddTerm(float64(um.waste[i][j]), v)
		}
	}
	if start != nil {
		um.m.SetStart(um.start(start))
	}

	res, err := solver.Solve(ctx, um.m)
	if err != nil {
		return model.Solution{}, solverError(err, newError(KindInfeasible, MsgInfeasible, err))
	}
	usage := um.usage(res)
	return model.Solution{
		Usage:  usage,
		Waste:  totalWaste(req, set, usage),
		Spread: usageSpread(usedCounts(usage)),
		Nodes:  res.Nodes,
	}, nil
}

// Uniformize re-solves the usage problem with total waste pinned to that of
// minSol and minimizes the average pairwise absolute difference between the
// bars used per stock length. Each |used[a] - used[b]| is modelled by a
// variable d >= 0 with d >= used[a] - used[b] and d >= used[b] - used[a];
// minimizing sum(d) / pairs makes every d equal to its absolute difference.
func Uniformize(ctx context.Context, solver milp.Solver, req model.Request, set model.PatternSet, minSol model.Solution) (model.Solution, error) {
	um := newUsageModel("uniform", req, set)

	pinned := um.wasteUnits(minSol.Usage)
	pin := um.m.NewConstraint("waste", milp.Equal, float64(pinned))
	for i, row := range um.x {
		for j, v := range row {
			pin.AddTerm(float64(um.waste[i][j]), v)
		}
	}

	used := usedCounts(minSol.Usage)
	pairs := len(set) * (len(set) - 1) / 2
	var startDiffs []float64
	obj := um.m.Objective()
	for a := 0; a < len(set); a++ {
		for b := a + 1; b < len(set); b++ {
			d := um.m.NewFloat(fmt.Sprintf("d_%d_%d", a, b), 0, math.Inf(1))
			ge := um.m.NewConstraint(fmt.Sprintf("d_%d_%d_pos", a, b), milp.GreaterOrEqual, 0).AddTerm(1, d)
			le := um.m.NewConstraint(fmt.Sprintf("d_%d_%d_neg", a, b), milp.GreaterOrEqual, 0).AddTerm(1, d)
			for _, v := range um.x[a] {
				ge.AddTerm(-1, v)
				le.AddTerm(1, v)
			}
			for _, v := range um.x[b] {
				ge.AddTerm(1, v)
				le.AddTerm(-1, v)
			}
			obj.AddTerm(1/float64(pairs), d)
			startDiffs = append(startDiffs, math.Abs(float64(used[a]-used[b])))
		}
	}
	um.m.SetStart(um.start(minSol.Usage, startDiffs...))

	res, err := solver.Solve(ctx, um.m)
	if err != nil {
		return model.Solution{}, solverError(err, newError(KindInvariant, MsgInvariant, err))
	}
	usage := um.usage(res)
	if got := um.wasteUnits(usage); got != pinned {
		return model.Solution{}, newError(KindInvariant, MsgInvariant,
			fmt.Errorf("uniform waste %d differs from minimum %d", got, pinned))
	}
	return model.Solution{
		Usage:  usage,
		Waste:  totalWaste(req, set, usage),
		Spread: usageSpread(usedCounts(usage)),
		Nodes:  minSol.Nodes + res.Nodes,
	}, nil
}

func usedCounts(usage [][]int) []int {
	used := make([]int, len(usage))
	for i, row := range usage {
		for _, n := range row {
			used[i] += n
		}
	}
	return used
}

// usageSpread is the average pairwise absolute difference of used, or zero
// with fewer than two stock lengths.
func usageSpread(used []int) float64 {
	pairs := len(used) * (len(used) - 1) / 2
	if pairs == 0 {
		return 0
	}
	var total int
	for a := 0; a < len(used); a++ {
		for b := a + 1; b < len(used); b++ {
			diff := used[a] - used[b]
			if diff < 0 {
				diff = -diff
			}
			total += diff
		}
	}
	return model.CleanFloat(float64(total) / float64(pairs))
}
