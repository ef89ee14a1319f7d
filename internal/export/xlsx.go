package export

import (
	"fmt"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	sheetPlan    = "Plan"
	sheetBars    = "Bars"
	sheetOffcuts = "Offcuts"
)

// ExportXLSX writes the plan as a workbook with three sheets: the patterns
// per stock length, every physical bar with its cut offsets, and the
// offcuts worth keeping.
func ExportXLSX(path string, plan model.Plan, offcuts []model.Offcut) error {
	if len(plan.Bars) == 0 {
		return fmt.Errorf("no bars to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetPlan); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetBars, sheetOffcuts} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	planRows := [][]interface{}{
		{"Stock", "Pattern", "Waste", "Repeats", "Unit"},
	}
	for _, g := range plan.Bars {
		for _, c := range g.Cuts {
			planRows = append(planRows, []interface{}{
				g.Stock.InexactFloat64(), formatPieces(c.Pieces), c.Waste.InexactFloat64(), c.Repeat, plan.Unit,
			})
		}
	}
	planRows = append(planRows,
		[]interface{}{},
		[]interface{}{"Bars used", plan.BarsUsed()},
		[]interface{}{"Pieces cut", plan.PiecesCut()},
		[]interface{}{"Used length", plan.UsedLength.InexactFloat64()},
		[]interface{}{"Total waste", plan.TotalWaste.InexactFloat64()},
		[]interface{}{"Waste %", plan.WastePercent()},
	)

	barRows := [][]interface{}{{"Bar", "Stock", "Pieces", "Cut offsets", "Waste"}}
	for _, bar := range plan.Expand() {
		barRows = append(barRows, []interface{}{
			bar.Index, bar.Stock.InexactFloat64(), joinDecimals(bar.Pieces), joinDecimals(bar.Offsets()), bar.Waste.InexactFloat64(),
		})
	}

	offcutRows := [][]interface{}{{"ID", "Bar", "Stock", "Length"}}
	for _, o := range offcuts {
		offcutRows = append(offcutRows, []interface{}{o.ID, o.BarIndex, o.Stock.InexactFloat64(), o.Length.InexactFloat64()})
	}

	for sheet, rows := range map[string][][]interface{}{
		sheetPlan:    planRows,
		sheetBars:    barRows,
		sheetOffcuts: offcutRows,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return fmt.Errorf("style header of %s: %w", sheet, err)
		}
		if err := f.SetColWidth(sheet, "A", "E", 16); err != nil {
			return fmt.Errorf("set column width of %s: %w", sheet, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
