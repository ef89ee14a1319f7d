package export

import (
	"fmt"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
)

// DXF layer names.
const (
	layerBars = "BARS"
	layerCuts = "CUTS"
	layerText = "TEXT"
)

// DXFOptions controls the drawing geometry in drawing units.
type DXFOptions struct {
	Scale     float64 // Plan unit to drawing unit factor
	BarHeight float64
	Spacing   float64 // Vertical distance between bars
}

// DefaultDXFOptions draws metre plans in millimetres.
func DefaultDXFOptions() DXFOptions {
	return DXFOptions{Scale: 1000, BarHeight: 40, Spacing: 100}
}

// ExportDXF draws every physical bar as an outline with a cut line at each
// piece end, stacked top to bottom in cutting order.
func ExportDXF(path string, plan model.Plan, opts DXFOptions) error {
	bars := plan.Expand()
	if len(bars) == 0 {
		return fmt.Errorf("no bars to export")
	}
	if opts.Scale <= 0 {
		opts = DefaultDXFOptions()
	}

	d := dxf.NewDrawing()
	for _, name := range []string{layerText, layerCuts, layerBars} {
		if _, err := d.AddLayer(name, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("add layer %s: %w", name, err)
		}
	}

	textHeight := opts.BarHeight / 3
	for i, bar := range bars {
		y := -float64(i) * opts.Spacing
		length := bar.Stock.InexactFloat64() * opts.Scale

		if err := d.ChangeLayer(layerBars); err != nil {
			return err
		}
		if err := rectangle(d, 0, y, length, opts.BarHeight); err != nil {
			return fmt.Errorf("draw bar %d: %w", bar.Index, err)
		}

		if err := d.ChangeLayer(layerCuts); err != nil {
			return err
		}
		for _, off := range bar.Offsets() {
			x := off.InexactFloat64() * opts.Scale
			if x >= length {
				continue
			}
			if _, err := d.Line(x, y, 0, x, y+opts.BarHeight, 0); err != nil {
				return fmt.Errorf("draw cut on bar %d: %w", bar.Index, err)
			}
		}

		if err := d.ChangeLayer(layerText); err != nil {
			return err
		}
		label := fmt.Sprintf("#%d %s %s: %s | waste %s", bar.Index, bar.Stock.String(), plan.Unit,
			joinDecimals(bar.Pieces), bar.Waste.String())
		if _, err := d.Text(label, 0, y+opts.BarHeight+textHeight/2, 0, textHeight); err != nil {
			return fmt.Errorf("label bar %d: %w", bar.Index, err)
		}
	}

	return d.SaveAs(path)
}

// rectangle draws an axis-aligned outline with its corner at (x, y).
func rectangle(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i, a := range corners {
		b := corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}
