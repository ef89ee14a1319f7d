// Package export renders cutting plans to text, PDF, spreadsheet, drawing
// and label formats.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
)

// partColor represents an RGB color for a piece length.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	stripHeight  = 12.0
	stripGap     = 10.0
)

// ExportPDF writes the plan as a PDF: one or more pages per stock length
// with every cut drawn as a bar strip, then a summary page listing totals
// and the offcuts worth keeping.
func ExportPDF(path string, plan model.Plan, offcuts []model.Offcut) error {
	if len(plan.Bars) == 0 {
		return fmt.Errorf("no bars to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	colors := colorIndex(plan)
	for i, group := range plan.Bars {
		renderStockPages(pdf, plan, group, colors, i+1)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, plan, offcuts)

	return pdf.OutputFileAndClose(path)
}

// colorIndex assigns each distinct piece length a stable color slot.
func colorIndex(plan model.Plan) map[string]int {
	index := make(map[string]int)
	for _, g := range plan.Bars {
		for _, c := range g.Cuts {
			for _, p := range c.Pieces {
				key := p.Length.String()
				if _, ok := index[key]; !ok {
					index[key] = len(index)
				}
			}
		}
	}
	return index
}

func stripsPerPage() int {
	avail := pageHeight - drawAreaTop - marginBottom - 10
	return int(avail / (stripHeight + stripGap))
}

// renderStockPages draws all cuts of one stock length, starting a new page
// whenever the current one is full.
func renderStockPages(pdf *fpdf.Fpdf, plan model.Plan, group model.BarGroup, colors map[string]int, groupNum int) {
	perPage := stripsPerPage()
	stock := group.Stock.InexactFloat64()
	drawWidth := pageWidth - marginLeft - marginRight
	scale := drawWidth / stock

	for i, cut := range group.Cuts {
		if i%perPage == 0 {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 14)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetXY(marginLeft, marginTop)
			title := fmt.Sprintf("Stock %d: %s %s (%d of %d bars used)",
				groupNum, group.Stock.String(), plan.Unit, group.Used, group.Available)
			pdf.CellFormat(drawWidth, headerHeight, title, "", 0, "L", false, 0, "")
		}
		y := drawAreaTop + float64(i%perPage)*(stripHeight+stripGap)
		drawCutStrip(pdf, cut, colors, plan.Unit, scale, marginLeft, y)
	}
}

// drawCutStrip draws one pattern as a horizontal bar with its pieces and
// trailing waste, plus a caption with the repeat count.
func drawCutStrip(pdf *fpdf.Fpdf, cut model.Cut, colors map[string]int, unit string, scale, x, y float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(60, 60, 60)
	pdf.SetXY(x, y-5)
	caption := fmt.Sprintf("%s | Waste: %s %s | Repeats: %d",
		formatPieces(cut.Pieces), cut.Waste.String(), unit, cut.Repeat)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, caption, "", 0, "L", false, 0, "")

	pos := x
	for _, pc := range cut.Pieces {
		col := partColors[colors[pc.Length.String()]%len(partColors)]
		w := pc.Length.InexactFloat64() * scale
		for k := 0; k < pc.Count; k++ {
			pdf.SetFillColor(col.R, col.G, col.B)
			pdf.SetDrawColor(30, 30, 30)
			pdf.SetLineWidth(0.3)
			pdf.Rect(pos, y, w, stripHeight, "FD")

			label := pc.Length.String()
			pdf.SetFont("Helvetica", "", labelFontSize(w, stripHeight))
			pdf.SetTextColor(0, 0, 0)
			if lw := pdf.GetStringWidth(label); lw < w-2 {
				pdf.SetXY(pos+(w-lw)/2, y+stripHeight/2-2)
				pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
			}
			pos += w
		}
	}

	if waste := cut.Waste.InexactFloat64() * scale; waste > 0.01 {
		pdf.SetFillColor(255, 200, 200)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Rect(pos, y, waste, stripHeight, "FD")
		drawHatchPattern(pdf, pos, y, waste, stripHeight)
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark waste.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 3.0
	for d := spacing; d < w+h; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)
		pdf.Line(x1, y1, x2, y2)
	}
}

// renderSummaryPage draws the final page with plan totals, the per-stock
// breakdown and the offcut list.
func renderSummaryPage(pdf *fpdf.Fpdf, plan model.Plan, offcuts []model.Offcut) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cutting Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	items := []struct {
		label string
		value string
	}{
		{"Plan", plan.ID},
		{"Strategy", string(plan.Strategy)},
		{"Bars Used", fmt.Sprintf("%d", plan.BarsUsed())},
		{"Pieces Cut", fmt.Sprintf("%d", plan.PiecesCut())},
		{"Used Length", fmt.Sprintf("%s %s", plan.UsedLength.String(), plan.Unit)},
		{"Total Waste", fmt.Sprintf("%s %s (%.2f%%)", plan.TotalWaste.String(), plan.Unit, plan.WastePercent())},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Stock Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{40, 40, 40, 40, 60}
	headers := []string{"Stock", "Available", "Used", "Patterns", "Waste"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, g := range plan.Bars {
		waste := groupWaste(g)
		row := []string{
			fmt.Sprintf("%s %s", g.Stock.String(), plan.Unit),
			fmt.Sprintf("%d", g.Available),
			fmt.Sprintf("%d", g.Used),
			fmt.Sprintf("%d", len(g.Cuts)),
			fmt.Sprintf("%s %s", waste.String(), plan.Unit),
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if len(offcuts) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(100, 7, "Offcuts", "", 0, "L", false, 0, "")
		y += 8
		pdf.SetFont("Helvetica", "", 9)
		for _, o := range offcuts {
			if y > pageHeight-marginBottom-8 {
				pdf.SetXY(marginLeft+5, y)
				pdf.CellFormat(200, 5, fmt.Sprintf("... and more (%d total)", len(offcuts)), "", 0, "L", false, 0, "")
				break
			}
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s %s from bar %d (%s %s)", o.Length.String(), plan.Unit, o.BarIndex, o.Stock.String(), plan.Unit)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by BarCut - 1D Cutting Stock Optimizer", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// groupWaste returns the waste of all bars cut from one stock length.
func groupWaste(g model.BarGroup) decimal.Decimal {
	total := decimal.Zero
	for _, c := range g.Cuts {
		total = total.Add(c.Waste.Mul(decimal.NewFromInt(int64(c.Repeat))))
	}
	return total
}

// labelFontSize returns a font size that fits the rectangle.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 10:
		return 7
	default:
		return 6
	}
}
