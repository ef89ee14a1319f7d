package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockEntry is a group of identical bars on hand.
type StockEntry struct {
	ID       string          `json:"id"`
	Label    string          `json:"label,omitempty"`
	Length   decimal.Decimal `json:"length"`
	Quantity int             `json:"quantity"`
	Offcut   bool            `json:"offcut"` // Remnant returned from an earlier plan
}

func NewStockEntry(label string, length decimal.Decimal, qty int) StockEntry {
	return StockEntry{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Length:   length,
		Quantity: qty,
	}
}

// Warehouse is the persistent stock of bars available for cutting.
type Warehouse struct {
	Entries   []StockEntry `json:"entries"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Items returns the warehouse as solver stock, one item per entry.
func (w Warehouse) Items() []RawItem {
	items := make([]RawItem, 0, len(w.Entries))
	for _, e := range w.Entries {
		if e.Quantity > 0 {
			items = append(items, RawItem{Length: e.Length, Quantity: e.Quantity})
		}
	}
	return items
}

// Count returns the number of bars of the given length on hand.
func (w Warehouse) Count(length decimal.Decimal) int {
	n := 0
	for _, e := range w.Entries {
		if e.Length.Equal(length) {
			n += e.Quantity
		}
	}
	return n
}

// TotalLength returns the combined length of all bars.
func (w Warehouse) TotalLength() decimal.Decimal {
	total := decimal.Zero
	for _, e := range w.Entries {
		total = total.Add(e.Length.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

// Add merges e into the entry with the same length and offcut flag, or
// appends it.
func (w *Warehouse) Add(e StockEntry) {
	for i := range w.Entries {
		if w.Entries[i].Length.Equal(e.Length) && w.Entries[i].Offcut == e.Offcut {
			w.Entries[i].Quantity += e.Quantity
			w.touch()
			return
		}
	}
	if e.ID == "" {
		e.ID = uuid.New().String()[:8]
	}
	w.Entries = append(w.Entries, e)
	w.touch()
}

// AddOffcuts returns plan remnants to the warehouse.
func (w *Warehouse) AddOffcuts(offcuts []Offcut) {
	for _, item := range GroupOffcuts(offcuts) {
		w.Add(StockEntry{Label: "offcut", Length: item.Length, Quantity: item.Quantity, Offcut: true})
	}
}

// Consume removes the bars a plan uses. Offcut entries are drawn first.
// Nothing changes if any stock length is short.
func (w *Warehouse) Consume(plan Plan) error {
	for _, g := range plan.Bars {
		if have := w.Count(g.Stock); have < g.Used {
			return fmt.Errorf("stock %s: plan uses %d bars, warehouse has %d", g.Stock, g.Used, have)
		}
	}

	order := make([]int, len(w.Entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return w.Entries[order[a]].Offcut && !w.Entries[order[b]].Offcut
	})

	for _, g := range plan.Bars {
		need := g.Used
		for _, i := range order {
			e := &w.Entries[i]
			if need == 0 {
				break
			}
			if !e.Length.Equal(g.Stock) {
				continue
			}
			take := min(need, e.Quantity)
			e.Quantity -= take
			need -= take
		}
	}

	kept := w.Entries[:0]
	for _, e := range w.Entries {
		if e.Quantity > 0 {
			kept = append(kept, e)
		}
	}
	w.Entries = kept
	w.touch()
	return nil
}

func (w *Warehouse) touch() {
	w.UpdatedAt = time.Now().UTC()
}
