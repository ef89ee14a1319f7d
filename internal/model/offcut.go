package model

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offcut is a usable remnant left at the end of a cut bar.
type Offcut struct {
	ID       string          `json:"id"`
	BarIndex int             `json:"bar_index"` // CutBar.Index of the source bar
	Stock    decimal.Decimal `json:"stock"`     // Length of the source bar
	Length   decimal.Decimal `json:"length"`
}

// ToStock converts an offcut into a stock entry for reuse in later plans.
func (o Offcut) ToStock() RawItem {
	return RawItem{Length: o.Length, Quantity: 1}
}

// DetectOffcuts returns the remnants of the plan that are at least minLength
// long, longest first. A non-positive minLength disables detection.
func DetectOffcuts(plan Plan, minLength decimal.Decimal) []Offcut {
	if !minLength.IsPositive() {
		return nil
	}
	var offcuts []Offcut
	for _, bar := range plan.Expand() {
		if bar.Waste.LessThan(minLength) {
			continue
		}
		offcuts = append(offcuts, Offcut{
			ID:       uuid.New().String()[:8],
			BarIndex: bar.Index,
			Stock:    bar.Stock,
			Length:   bar.Waste,
		})
	}

	sort.SliceStable(offcuts, func(i, j int) bool {
		return offcuts[i].Length.GreaterThan(offcuts[j].Length)
	})
	return offcuts
}

// TotalOffcutLength returns the combined length of all offcuts.
func TotalOffcutLength(offcuts []Offcut) decimal.Decimal {
	total := decimal.Zero
	for _, o := range offcuts {
		total = total.Add(o.Length)
	}
	return total
}

// GroupOffcuts aggregates offcuts by length into stock entries.
func GroupOffcuts(offcuts []Offcut) []RawItem {
	index := make(map[string]int)
	var items []RawItem
	for _, o := range offcuts {
		key := o.Length.String()
		if i, ok := index[key]; ok {
			items[i].Quantity++
			continue
		}
		index[key] = len(items)
		items = append(items, o.ToStock())
	}
	return items
}
