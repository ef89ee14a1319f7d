package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PieceCount is a piece length and how many of it a pattern cuts.
type PieceCount struct {
	Length decimal.Decimal `json:"length"`
	Count  int             `json:"count"`
}

// Cut is a pattern applied Repeat times to bars of the same stock length.
type Cut struct {
	Pieces []PieceCount    `json:"pieces"`
	Waste  decimal.Decimal `json:"waste"`
	Repeat int             `json:"repeat"`
}

// Length returns the total length of the pieces in one application of the cut.
func (c Cut) Length() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.Pieces {
		total = total.Add(p.Length.Mul(decimal.NewFromInt(int64(p.Count))))
	}
	return total
}

// BarGroup collects the cuts made on one stock length.
type BarGroup struct {
	Stock     decimal.Decimal `json:"stock"`
	Available int             `json:"available"`
	Used      int             `json:"used"`
	Cuts      []Cut           `json:"cuts"`
}

// PlanStats records how a plan was produced.
type PlanStats struct {
	Patterns int           `json:"patterns"`
	Nodes    int           `json:"nodes"`
	Spread   float64       `json:"spread"`
	Duration time.Duration `json:"duration"`
}

// Plan is a complete cutting plan.
type Plan struct {
	ID         string          `json:"id"`
	Strategy   Strategy        `json:"strategy"`
	Unit       string          `json:"unit"`
	Bars       []BarGroup      `json:"bars"`
	TotalWaste decimal.Decimal `json:"total_waste"`
	UsedLength decimal.Decimal `json:"used_length"` // Total length of all consumed bars
	Stats      PlanStats       `json:"stats"`
}

func NewPlan(strategy Strategy, unit string) Plan {
	return Plan{
		ID:         uuid.New().String()[:8],
		Strategy:   strategy,
		Unit:       unit,
		TotalWaste: decimal.Zero,
		UsedLength: decimal.Zero,
	}
}

// WastePercent returns total waste as a percentage of the consumed length.
func (p Plan) WastePercent() float64 {
	if p.UsedLength.IsZero() {
		return 0
	}
	pct, _ := p.TotalWaste.Div(p.UsedLength).Mul(decimal.NewFromInt(100)).Float64()
	return CleanFloat(pct)
}

// BarsUsed returns the number of stock bars the plan consumes.
func (p Plan) BarsUsed() int {
	n := 0
	for _, b := range p.Bars {
		n += b.Used
	}
	return n
}

// PiecesCut returns the number of pieces the plan produces.
func (p Plan) PiecesCut() int {
	n := 0
	for _, b := range p.Bars {
		for _, c := range b.Cuts {
			for _, pc := range c.Pieces {
				n += pc.Count * c.Repeat
			}
		}
	}
	return n
}

// CutBar is a single physical bar with its pieces in cutting order.
type CutBar struct {
	Index  int               `json:"index"` // 1-based position in the plan
	Stock  decimal.Decimal   `json:"stock"`
	Pieces []decimal.Decimal `json:"pieces"`
	Waste  decimal.Decimal   `json:"waste"`
}

// Offsets returns the distance from the bar start to the end of each piece.
func (b CutBar) Offsets() []decimal.Decimal {
	out := make([]decimal.Decimal, len(b.Pieces))
	pos := decimal.Zero
	for i, p := range b.Pieces {
		pos = pos.Add(p)
		out[i] = pos
	}
	return out
}

// Expand unrolls repeated cuts into one CutBar per physical bar.
func (p Plan) Expand() []CutBar {
	var bars []CutBar
	for _, g := range p.Bars {
		for _, c := range g.Cuts {
			var pieces []decimal.Decimal
			for _, pc := range c.Pieces {
				for k := 0; k < pc.Count; k++ {
					pieces = append(pieces, pc.Length)
				}
			}
			for r := 0; r < c.Repeat; r++ {
				bars = append(bars, CutBar{
					Index:  len(bars) + 1,
					Stock:  g.Stock,
					Pieces: pieces,
					Waste:  c.Waste,
				})
			}
		}
	}
	return bars
}
