package importer

import (
	"fmt"
	"math"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// minSegment is the shortest segment treated as a piece, in drawing units.
const minSegment = 1e-6

// ImportDXF reads piece lengths from a DXF drawing. Every LINE is one piece
// and every segment of an LWPOLYLINE is one piece; pieces of equal length
// are merged. Lengths are taken in drawing units.
func ImportDXF(path string) ImportResult {
	var result ImportResult

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}
	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var lengths []float64
	skipped := 0
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.Line:
			lengths = append(lengths, distance(e.Start[0], e.Start[1], e.End[0], e.End[1]))
		case *entity.LwPolyline:
			lengths = append(lengths, polylineSegments(e)...)
		default:
			skipped++
		}
	}
	if skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d unsupported entities", skipped))
	}

	index := make(map[string]int)
	for _, l := range lengths {
		if l < minSegment {
			result.Warnings = append(result.Warnings, "Skipped zero-length segment")
			continue
		}
		length := decimal.NewFromFloat(model.CleanFloat(l))
		key := length.String()
		if i, ok := index[key]; ok {
			result.Items[i].Quantity++
			continue
		}
		index[key] = len(result.Items)
		result.Items = append(result.Items, model.RawItem{Length: length, Quantity: 1})
	}

	if len(result.Items) == 0 {
		result.Errors = append(result.Errors, "No lines found in DXF file")
	}
	return result
}

// polylineSegments returns the lengths between consecutive vertices.
// Bulges are ignored.
func polylineSegments(lw *entity.LwPolyline) []float64 {
	var out []float64
	for i := 1; i < len(lw.Vertices); i++ {
		a, b := lw.Vertices[i-1], lw.Vertices[i]
		out = append(out, distance(a[0], a[1], b[0], b[1]))
	}
	return out
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
