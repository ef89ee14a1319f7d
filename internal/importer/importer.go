// Package importer reads stock and demand lists from CSV, Excel and DXF
// files and from compact "LENGTHxQTY" lists. It supports automatic delimiter
// detection and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the items read from a source with per-row problems.
// Rows with errors are skipped; the remaining items are still returned.
type ImportResult struct {
	Items    []model.RawItem
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced items without errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Items) > 0
}

// ColumnMapping maps column roles to their indices in the data. Label is
// optional and -1 when absent.
type ColumnMapping struct {
	Label    int
	Length   int
	Quantity int
}

// headerAliases maps column roles to their accepted header names (lowercase).
var headerAliases = map[string][]string{
	"label":    {"label", "name", "description", "desc", "item", "profile"},
	"length":   {"length", "len", "l", "size", "stock", "piece", "cut"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces", "bars"},
}

// DetectCSVDelimiter returns the most likely delimiter among comma,
// semicolon, tab and pipe: the one that splits the most rows into the same
// number of columns as the first row.
func DetectCSVDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) == 0 {
			continue
		}
		cols := len(records[0])
		if cols < 2 {
			continue
		}
		score := 0
		for _, row := range records {
			if len(row) == cols {
				score++
			}
		}
		if weighted := score*10 + cols; weighted > bestScore {
			best, bestScore = delim, weighted
		}
	}
	return best
}

// DetectColumns matches a header row against the known aliases. Without a
// header it returns the positional mapping length, quantity and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, Length: -1, Quantity: -1}
	found := false
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, role := range []string{"label", "length", "quantity"} {
			if !contains(headerAliases[role], name) {
				continue
			}
			found = true
			switch {
			case role == "label" && mapping.Label == -1:
				mapping.Label = i
			case role == "length" && mapping.Length == -1:
				mapping.Length = i
			case role == "quantity" && mapping.Quantity == -1:
				mapping.Quantity = i
			}
			break
		}
	}
	if !found {
		return ColumnMapping{Label: -1, Length: 0, Quantity: 1}, false
	}
	return mapping, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseRow reads one item. A missing quantity defaults to one.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.RawItem, string, string) {
	lengthStr := getCell(row, mapping.Length)
	if lengthStr == "" {
		return model.RawItem{}, fmt.Sprintf("%s: missing length", rowLabel), ""
	}
	length, err := engine.ParseLength(lengthStr)
	if err != nil {
		return model.RawItem{}, fmt.Sprintf("%s: invalid length %q", rowLabel, lengthStr), ""
	}

	qtyStr := getCell(row, mapping.Quantity)
	if qtyStr == "" {
		return model.RawItem{Length: length, Quantity: 1}, "", fmt.Sprintf("%s: no quantity, using 1", rowLabel)
	}
	qty, err := engine.ParseQuantity(qtyStr)
	if err != nil {
		return model.RawItem{}, fmt.Sprintf("%s: invalid quantity %q", rowLabel, qtyStr), ""
	}
	return model.RawItem{Length: length, Quantity: qty}, "", ""
}

// ImportCSV reads items from a CSV file with auto-detected delimiter.
func ImportCSV(path string) ImportResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}

	var warnings []string
	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		name := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", name))
	}
	res := ImportCSVFromReader(bytes.NewReader(data), delimiter)
	res.Warnings = append(warnings, res.Warnings...)
	return res
}

// ImportCSVFromReader reads items from CSV data with a known delimiter.
func ImportCSVFromReader(r io.Reader, delimiter rune) ImportResult {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line")
}

// ImportExcel reads items from the first sheet of an Excel workbook.
func ImportExcel(path string) ImportResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{Errors: []string{"Excel file has no sheets"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read Excel data: %v", err)}}
	}
	return importFromRows(rows, "Row")
}

// importFromRows is the shared logic for CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string) ImportResult {
	var result ImportResult
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	start := 0
	if hasHeader {
		start = 1
		if mapping.Length == -1 {
			result.Errors = append(result.Errors, "Required column not found in header: Length")
			return result
		}
	} else if _, err := engine.ParseLength(getCell(rows[0], 0)); err != nil {
		// Unrecognized header: skip it and map by position.
		start = 1
		result.Warnings = append(result.Warnings, "Unrecognized header row, skipping")
	}

	for i := start; i < len(rows); i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		item, errMsg, warning := parseRow(rows[i], mapping, fmt.Sprintf("%s %d", rowPrefix, i+1))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Items = append(result.Items, item)
	}
	if len(result.Items) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}

// ParseList parses a compact list such as "6x10, 4.5x3, 2". Entries are
// separated by commas or semicolons; a bare length means a quantity of one.
// Both "x" and "*" separate length from quantity.
func ParseList(s string) ([]model.RawItem, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	items := make([]model.RawItem, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		lengthStr, qtyStr, hasQty := strings.Cut(strings.ToLower(field), "x")
		if !hasQty {
			lengthStr, qtyStr, hasQty = strings.Cut(field, "*")
		}
		length, err := engine.ParseLength(lengthStr)
		if err != nil {
			return nil, fmt.Errorf("invalid length in %q", field)
		}
		qty := 1
		if hasQty {
			if qty, err = engine.ParseQuantity(qtyStr); err != nil {
				return nil, fmt.Errorf("invalid quantity in %q", field)
			}
		}
		items = append(items, model.RawItem{Length: length, Quantity: qty})
	}
	return items, nil
}

// Import dispatches on the file extension.
func Import(path string) ImportResult {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return ImportCSV(path)
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	case ".dxf":
		return ImportDXF(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type %q", ext)}}
	}
}
