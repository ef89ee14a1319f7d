package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func samplePlan() Plan {
	plan := NewPlan(StrategyIP, "m")
	plan.Bars = []BarGroup{
		{
			Stock:     d("6"),
			Available: 3,
			Used:      2,
			Cuts: []Cut{
				{Pieces: []PieceCount{{Length: d("2"), Count: 3}}, Waste: d("0"), Repeat: 1},
				{Pieces: []PieceCount{{Length: d("2"), Count: 2}, {Length: d("1.3"), Count: 1}}, Waste: d("0.7"), Repeat: 1},
			},
		},
		{
			Stock:     d("4"),
			Available: 2,
			Used:      1,
			Cuts: []Cut{
				{Pieces: []PieceCount{{Length: d("1.3"), Count: 2}}, Waste: d("1.4"), Repeat: 1},
			},
		},
	}
	plan.TotalWaste = d("2.1")
	plan.UsedLength = d("16")
	return plan
}

func TestNewPlanHasShortID(t *testing.T) {
	p := NewPlan(StrategyGreedy, "m")
	if len(p.ID) != 8 {
		t.Errorf("expected 8 character id, got %q", p.ID)
	}
	if p.Strategy != StrategyGreedy {
		t.Errorf("expected greedy strategy, got %s", p.Strategy)
	}
}

func TestPlanTotals(t *testing.T) {
	p := samplePlan()
	if p.BarsUsed() != 3 {
		t.Errorf("expected 3 bars used, got %d", p.BarsUsed())
	}
	if p.PiecesCut() != 8 {
		t.Errorf("expected 8 pieces, got %d", p.PiecesCut())
	}
	if p.WastePercent() != 13.125 {
		t.Errorf("expected 13.125%% waste, got %v", p.WastePercent())
	}
}

func TestPlanWastePercentEmpty(t *testing.T) {
	p := NewPlan(StrategyIP, "m")
	if p.WastePercent() != 0 {
		t.Errorf("expected 0 for an empty plan, got %v", p.WastePercent())
	}
}

func TestPlanExpand(t *testing.T) {
	bars := samplePlan().Expand()
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	for i, b := range bars {
		if b.Index != i+1 {
			t.Errorf("bar %d has index %d", i, b.Index)
		}
		total := b.Waste
		for _, p := range b.Pieces {
			total = total.Add(p)
		}
		if !total.Equal(b.Stock) {
			t.Errorf("bar %d: pieces plus waste %s != stock %s", b.Index, total, b.Stock)
		}
	}
	offsets := bars[1].Offsets()
	if len(offsets) != 3 || !offsets[2].Equal(d("5.3")) {
		t.Errorf("unexpected offsets %v", offsets)
	}
}

func TestCutLength(t *testing.T) {
	c := Cut{Pieces: []PieceCount{{Length: d("2"), Count: 2}, {Length: d("1.3"), Count: 1}}}
	if !c.Length().Equal(d("5.3")) {
		t.Errorf("expected 5.3, got %s", c.Length())
	}
}

func TestRequestHelpers(t *testing.T) {
	r := Request{
		Stock:  []StockItem{{Length: d("4"), Quantity: 1}, {Length: d("6.5"), Quantity: 2}},
		Demand: []DemandItem{{Length: d("1"), Quantity: 3}},
	}
	if !r.MaxStockLength().Equal(d("6.5")) {
		t.Errorf("expected max 6.5, got %s", r.MaxStockLength())
	}
	if got := r.StockLengths(); len(got) != 2 || !got[0].Equal(d("4")) {
		t.Errorf("unexpected stock lengths %v", got)
	}
	if got := r.DemandLengths(); len(got) != 1 || !got[0].Equal(d("1")) {
		t.Errorf("unexpected demand lengths %v", got)
	}
}

func TestPatternHelpers(t *testing.T) {
	p := Pattern{Pieces: []int{0, 2, 1}}
	if p.PieceCount() != 3 || p.IsEmpty() {
		t.Errorf("unexpected piece count %d", p.PieceCount())
	}
	if !(Pattern{Pieces: []int{0, 0}}).IsEmpty() {
		t.Error("all-zero pattern should be empty")
	}
	ps := PatternSet{{p, p}, {p}}
	if ps.Size() != 3 {
		t.Errorf("expected 3 patterns, got %d", ps.Size())
	}
}

func TestStrategyValid(t *testing.T) {
	for _, s := range Strategies {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Strategy("genetic").Valid() {
		t.Error("unknown strategy should be invalid")
	}
}

func TestSolutionUsed(t *testing.T) {
	s := Solution{Usage: [][]int{{0, 2, 1}, {4}}}
	if s.Used(0) != 3 || s.Used(1) != 4 {
		t.Errorf("unexpected usage %d %d", s.Used(0), s.Used(1))
	}
}

func TestCleanFloat(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.33999999999999986, 0.34},
		{2.0000000000000004, 2},
		{1.5, 1.5},
		{0.1 + 0.2, 0.3},
		{123.456, 123.456},
	}
	for _, tt := range tests {
		if got := CleanFloat(tt.in); got != tt.want {
			t.Errorf("CleanFloat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
