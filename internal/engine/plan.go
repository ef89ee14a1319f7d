package engine

import (
	"fmt"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
)

// verifySolution checks that sol cuts exactly the demanded pieces from the
// available stock and that every used pattern adds up to its stock length.
func verifySolution(req model.Request, set model.PatternSet, sol model.Solution) error {
	if len(sol.Usage) != len(set) {
		return fmt.Errorf("usage has %d stock rows, want %d", len(sol.Usage), len(set))
	}
	produced := make([]int, len(req.Demand))
	for i, row := range sol.Usage {
		if len(row) != len(set[i]) {
			return fmt.Errorf("stock %s: usage has %d patterns, want %d", req.Stock[i].Length, len(row), len(set[i]))
		}
		used := 0
		for j, n := range row {
			if n < 0 {
				return fmt.Errorf("stock %s: negative usage %d", req.Stock[i].Length, n)
			}
			used += n
			for k, q := range set[i][j].Pieces {
				produced[k] += q * n
			}
			if n > 0 {
				if err := checkPattern(req, req.Stock[i].Length, set[i][j]); err != nil {
					return err
				}
			}
		}
		if used > req.Stock[i].Quantity {
			return fmt.Errorf("stock %s: %d bars used, %d available", req.Stock[i].Length, used, req.Stock[i].Quantity)
		}
	}
	for k, d := range req.Demand {
		if produced[k] != d.Quantity {
			return fmt.Errorf("length %s: %d pieces cut, %d ordered", d.Length, produced[k], d.Quantity)
		}
	}
	return nil
}

// checkPattern verifies sum(q*d) + waste == stock in exact decimals.
func checkPattern(req model.Request, stock decimal.Decimal, p model.Pattern) error {
	if p.Waste.IsNegative() {
		return fmt.Errorf("stock %s: pattern %v has negative waste %s", stock, p.Pieces, p.Waste)
	}
	total := p.Waste
	for k, q := range p.Pieces {
		total = total.Add(req.Demand[k].Length.Mul(decimal.NewFromInt(int64(q))))
	}
	if !total.Equal(stock) {
		return fmt.Errorf("stock %s: pattern %v with waste %s covers %s", stock, p.Pieces, p.Waste, total)
	}
	return nil
}

// BuildPlan turns pattern usage into a plan grouped by stock length. Stock
// lengths and patterns with zero usage are left out.
func BuildPlan(req model.Request, set model.PatternSet, sol model.Solution, strategy model.Strategy, unit string) model.Plan {
	plan := model.NewPlan(strategy, unit)
	for i, s := range req.Stock {
		group := model.BarGroup{Stock: s.Length, Available: s.Quantity}
		for j, n := range sol.Usage[i] {
			if n == 0 {
				continue
			}
			p := set[i][j]
			cut := model.Cut{Waste: p.Waste, Repeat: n}
			for k, q := range p.Pieces {
				if q > 0 {
					cut.Pieces = append(cut.Pieces, model.PieceCount{Length: req.Demand[k].Length, Count: q})
				}
			}
			group.Cuts = append(group.Cuts, cut)
			group.Used += n
			plan.TotalWaste = plan.TotalWaste.Add(p.Waste.Mul(decimal.NewFromInt(int64(n))))
		}
		if group.Used == 0 {
			continue
		}
		plan.UsedLength = plan.UsedLength.Add(s.Length.Mul(decimal.NewFromInt(int64(group.Used))))
		plan.Bars = append(plan.Bars, group)
	}
	plan.Stats = model.PlanStats{
		Patterns: set.Size(),
		Nodes:    sol.Nodes,
		Spread:   sol.Spread,
	}
	return plan
}
