package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// PurchaseEstimate holds the results of a bar purchasing calculation.
type PurchaseEstimate struct {
	TotalPieceLength decimal.Decimal `json:"total_piece_length"` // Sum of all demanded lengths
	BarLength        decimal.Decimal `json:"bar_length"`
	BarsNeededExact  float64         `json:"bars_needed_exact"` // Fractional number of bars
	BarsNeededMin    int             `json:"bars_needed_min"`   // Lower bound on whole bars
	BarsWithWaste    int             `json:"bars_with_waste"`   // Recommended bars including the waste allowance
	WastePercent     float64         `json:"waste_percent"`     // Allowance applied (e.g. 10 for 10%)
	PricePerBar      float64         `json:"price_per_bar"`
	EstimatedCost    float64         `json:"estimated_cost"`
}

// CalculatePurchaseEstimate computes how many bars of barLength to buy for
// the demand list. If any piece is longer than the bar the bar counts stay zero.
func CalculatePurchaseEstimate(demand []DemandItem, barLength decimal.Decimal, wastePercent, pricePerBar float64) PurchaseEstimate {
	est := PurchaseEstimate{
		TotalPieceLength: decimal.Zero,
		BarLength:        barLength,
		WastePercent:     wastePercent,
		PricePerBar:      pricePerBar,
	}

	// Pieces longer than half a bar can never share one.
	longPieces := 0
	half := barLength.Div(decimal.NewFromInt(2))
	for _, d := range demand {
		est.TotalPieceLength = est.TotalPieceLength.Add(d.Length.Mul(decimal.NewFromInt(int64(d.Quantity))))
		if d.Length.GreaterThan(barLength) {
			return est
		}
		if d.Length.GreaterThan(half) {
			longPieces += d.Quantity
		}
	}
	if !barLength.IsPositive() {
		return est
	}

	exact, _ := est.TotalPieceLength.Div(barLength).Float64()
	minBars := int(math.Ceil(exact))
	if longPieces > minBars {
		minBars = longPieces
	}

	withWaste := int(math.Ceil(exact * (1.0 + wastePercent/100.0)))
	if withWaste < minBars {
		withWaste = minBars
	}

	est.BarsNeededExact = CleanFloat(exact)
	est.BarsNeededMin = minBars
	est.BarsWithWaste = withWaste
	est.EstimatedCost = float64(withWaste) * pricePerBar
	return est
}
