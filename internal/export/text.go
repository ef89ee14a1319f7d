package export

import (
	"fmt"
	"strings"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatPlan renders a plan as plain text: one section per stock length with
// its patterns, waste and repeat counts, then the total waste and, when
// there is any, its share of the consumed length.
func FormatPlan(plan model.Plan) string {
	unit := plan.Unit
	if unit == "" {
		unit = "m"
	}

	var b strings.Builder
	b.WriteString("CUTTING PLAN:\n\n")
	for _, group := range plan.Bars {
		if group.Used == 0 {
			continue
		}
		fmt.Fprintf(&b, "Stock %s %s:\n", group.Stock.String(), unit)
		for _, cut := range group.Cuts {
			if cut.Repeat == 0 {
				continue
			}
			fmt.Fprintf(&b, "Pattern: %s | Waste: %s %s\n", formatPieces(cut.Pieces), cut.Waste.String(), unit)
			fmt.Fprintf(&b, "Repeats: %d\n\n", cut.Repeat)
		}
	}

	fmt.Fprintf(&b, "Total waste: %s %s", plan.TotalWaste.String(), unit)
	if plan.TotalWaste.IsPositive() && plan.UsedLength.IsPositive() {
		pct := plan.TotalWaste.Div(plan.UsedLength).Mul(hundred)
		fmt.Fprintf(&b, " (%s%% of the used length)", pct.StringFixed(2))
	}
	return b.String()
}

// formatPieces renders piece counts as "[2 × 3 + 1.5 × 1]".
func formatPieces(pieces []model.PieceCount) string {
	parts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p.Count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s × %d", p.Length.String(), p.Count))
	}
	return "[" + strings.Join(parts, " + ") + "]"
}
