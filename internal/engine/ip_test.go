package engine

import (
	"context"
	"testing"

	"github.com/piwi3910/BarCut/internal/milp"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(stock, demand [][2]string) model.Request {
	req, err := Normalize(raw(stock, demand))
	if err != nil {
		panic(err)
	}
	return req
}

func patternSet(t *testing.T, req model.Request) model.PatternSet {
	t.Helper()
	set, err := GeneratePatternSet(context.Background(), req, 2, 0)
	require.NoError(t, err)
	return set
}

// bruteForceMinWaste tries every usage table and returns the least waste of
// the ones that meet the demand exactly, or false if none does.
func bruteForceMinWaste(req model.Request, set model.PatternSet) (decimal.Decimal, bool) {
	var (
		best     decimal.Decimal
		found    bool
		produced = make([]int, len(req.Demand))
	)
	var rec func(i, j, left int, waste decimal.Decimal)
	rec = func(i, j, left int, waste decimal.Decimal) {
		if i == len(set) {
			for k, d := range req.Demand {
				if produced[k] != d.Quantity {
					return
				}
			}
			if !found || waste.LessThan(best) {
				best, found = waste, true
			}
			return
		}
		if j == len(set[i]) {
			next := 0
			if i+1 < len(set) {
				next = req.Stock[i+1].Quantity
			}
			rec(i+1, 0, next, waste)
			return
		}
		p := set[i][j]
		for n := 0; n <= left; n++ {
			over := false
			for k, q := range p.Pieces {
				produced[k] += q * n
				if produced[k] > req.Demand[k].Quantity {
					over = true
				}
			}
			if !over {
				rec(i, j+1, left-n, waste.Add(p.Waste.Mul(decimal.NewFromInt(int64(n)))))
			}
			for k, q := range p.Pieces {
				produced[k] -= q * n
			}
			if over {
				break
			}
		}
	}
	rec(0, 0, req.Stock[0].Quantity, decimal.Zero)
	return best, found
}

func TestMinimizeWasteIsLowerBound(t *testing.T) {
	tests := []struct {
		name   string
		stock  [][2]string
		demand [][2]string
	}{
		{"two stock lengths", [][2]string{{"5", "2"}, {"4", "2"}}, [][2]string{{"2", "3"}, {"1.5", "2"}}},
		{"single stock", [][2]string{{"10", "3"}}, [][2]string{{"3", "4"}, {"4", "2"}}},
		{"waste unavoidable", [][2]string{{"7", "2"}, {"5", "1"}}, [][2]string{{"3", "3"}}},
		{"three lengths", [][2]string{{"6", "2"}, {"4", "1"}, {"3", "2"}}, [][2]string{{"2.5", "2"}, {"1", "3"}}},
	}
	solver := milp.NewBranchAndBound()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(tt.stock, tt.demand)
			set := patternSet(t, req)

			want, ok := bruteForceMinWaste(req, set)
			require.True(t, ok, "instance should be feasible")

			sol, err := MinimizeWaste(context.Background(), solver, req, set, nil)
			require.NoError(t, err)
			assert.True(t, sol.Waste.Equal(want), "got waste %s, brute force %s", sol.Waste, want)
			assert.NoError(t, verifySolution(req, set, sol))
		})
	}
}

func TestMinimizeWasteInfeasible(t *testing.T) {
	req := request([][2]string{{"5", "2"}}, [][2]string{{"2", "5"}})
	set := patternSet(t, req)

	_, ok := bruteForceMinWaste(req, set)
	require.False(t, ok, "two 5 m bars hold at most four 2 m pieces")

	_, err := MinimizeWaste(context.Background(), milp.NewBranchAndBound(), req, set, nil)
	require.Error(t, err)
	assert.Equal(t, KindInfeasible, KindOf(err))
	assert.Equal(t, MsgInfeasible, Message(err))
}

func TestMinimizeWasteWithGreedyStart(t *testing.T) {
	req := request([][2]string{{"5", "2"}, {"4", "2"}}, [][2]string{{"2", "3"}, {"1.5", "2"}})
	set := patternSet(t, req)
	start, ok := greedyUsage(req, set)
	require.True(t, ok)

	seeded, err := MinimizeWaste(context.Background(), milp.NewBranchAndBound(), req, set, start)
	require.NoError(t, err)
	plain, err := MinimizeWaste(context.Background(), milp.NewBranchAndBound(), req, set, nil)
	require.NoError(t, err)
	assert.True(t, seeded.Waste.Equal(plain.Waste))
}

func TestUniformizeKeepsWasteAndBalancesUsage(t *testing.T) {
	// 3a + 2b = 12 pieces with zero waste: (4, 0) or (2, 3); the second is
	// more even.
	req := request([][2]string{{"6", "4"}, {"4", "4"}}, [][2]string{{"2", "12"}})
	set := patternSet(t, req)
	solver := milp.NewBranchAndBound()

	minSol, err := MinimizeWaste(context.Background(), solver, req, set, nil)
	require.NoError(t, err)
	require.True(t, minSol.Waste.IsZero())

	sol, err := Uniformize(context.Background(), solver, req, set, minSol)
	require.NoError(t, err)
	assert.True(t, sol.Waste.Equal(minSol.Waste), "uniform stage must not change waste")
	assert.Equal(t, 2, sol.Used(0))
	assert.Equal(t, 3, sol.Used(1))
	assert.Equal(t, 1.0, sol.Spread)
	assert.NoError(t, verifySolution(req, set, sol))
}

func TestUniformizeNeverIncreasesWaste(t *testing.T) {
	req := request([][2]string{{"6", "3"}, {"4", "3"}, {"3", "3"}}, [][2]string{{"2.5", "3"}, {"1", "4"}})
	set := patternSet(t, req)
	solver := milp.NewBranchAndBound()

	minSol, err := MinimizeWaste(context.Background(), solver, req, set, nil)
	require.NoError(t, err)
	sol, err := Uniformize(context.Background(), solver, req, set, minSol)
	require.NoError(t, err)
	assert.True(t, sol.Waste.Equal(minSol.Waste))
	assert.LessOrEqual(t, sol.Spread, minSol.Spread)
}

func TestUniformizeSingleStockLength(t *testing.T) {
	req := request([][2]string{{"6", "3"}}, [][2]string{{"2", "3"}, {"1.5", "4"}})
	set := patternSet(t, req)
	solver := milp.NewBranchAndBound()

	minSol, err := MinimizeWaste(context.Background(), solver, req, set, nil)
	require.NoError(t, err)
	sol, err := Uniformize(context.Background(), solver, req, set, minSol)
	require.NoError(t, err)
	assert.Equal(t, minSol.Usage, sol.Usage)
	assert.Zero(t, sol.Spread)
}

func TestUsageSpread(t *testing.T) {
	assert.Zero(t, usageSpread(nil))
	assert.Zero(t, usageSpread([]int{5}))
	assert.Equal(t, 2.0, usageSpread([]int{1, 3}))
	// |1-3| + |1-6| + |3-6| = 10 over 3 pairs
	assert.Equal(t, 3.3333333333, usageSpread([]int{1, 3, 6}))
}
