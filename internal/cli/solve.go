package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/export"
	"github.com/piwi3910/BarCut/internal/gcode"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

type solveFlags struct {
	commonFlags
	inputFlags

	format          string
	pdfPath         string
	labelsPath      string
	xlsxPath        string
	dxfPath         string
	gcodeDir        string
	updateWarehouse bool
}

// Report is the JSON form of a solve.
type Report struct {
	Plan        model.Plan     `json:"plan"`
	Offcuts     []model.Offcut `json:"offcuts"`
	Text        string         `json:"text"`
	System      SysInfo        `json:"system"`
	GeneratedAt time.Time      `json:"generated_at"`
}

func runSolve(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f solveFlags
	fs := newFlagSet("solve", stderr)
	f.commonFlags.register(fs)
	f.inputFlags.register(fs)
	fs.StringVar(&f.format, "format", "text", "report format: text or json")
	fs.StringVar(&f.pdfPath, "pdf", "", "write the plan as a PDF document")
	fs.StringVar(&f.labelsPath, "labels", "", "write a PDF sheet with one QR label per piece")
	fs.StringVar(&f.xlsxPath, "xlsx", "", "write the plan as an Excel workbook")
	fs.StringVar(&f.dxfPath, "dxf", "", "write the bar diagram as DXF")
	fs.StringVar(&f.gcodeDir, "gcode", "", "write saw programs into this directory")
	fs.BoolVar(&f.updateWarehouse, "update-warehouse", false, "consume the used bars from the warehouse and return the offcuts")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if f.format != "text" && f.format != "json" {
		fmt.Fprintf(stderr, "barcut: unknown format %q\n", f.format)
		return ExitUsage
	}

	rt, err := f.setup(stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer rt.log.Close()

	raw, err := f.load(rt.cfg, rt.log.Logger)
	if err != nil {
		return fail(stderr, err)
	}

	plan, err := rt.optimizer().SolveInput(ctx, raw)
	if err != nil {
		fmt.Fprintln(stderr, engine.Message(err))
		return ExitFailed
	}
	offcuts := model.DetectOffcuts(plan, rt.settings.MinOffcut)

	if err := f.writeExports(rt, plan, offcuts); err != nil {
		return fail(stderr, err)
	}
	if f.updateWarehouse {
		path, err := warehousePath(f.warehouse, rt.cfg)
		if err != nil {
			return fail(stderr, err)
		}
		w, err := project.ApplyPlan(path, plan, offcuts, rt.settings)
		if err != nil {
			return fail(stderr, fmt.Errorf("update warehouse: %w", err))
		}
		rt.log.Info("warehouse updated", "path", path, "entries", len(w.Entries), "offcuts", len(offcuts))
	}

	text := export.FormatPlan(plan)
	if f.format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(Report{
			Plan:        plan,
			Offcuts:     offcuts,
			Text:        text,
			System:      CollectSysInfo(),
			GeneratedAt: time.Now().UTC(),
		}); err != nil {
			return fail(stderr, err)
		}
		return ExitOK
	}
	fmt.Fprintln(stdout, text)
	return ExitOK
}

func (f *solveFlags) writeExports(rt *session, plan model.Plan, offcuts []model.Offcut) error {
	if f.pdfPath != "" {
		if err := export.ExportPDF(f.pdfPath, plan, offcuts); err != nil {
			return fmt.Errorf("pdf: %w", err)
		}
	}
	if f.labelsPath != "" {
		if err := export.ExportLabels(f.labelsPath, plan); err != nil {
			return fmt.Errorf("labels: %w", err)
		}
	}
	if f.xlsxPath != "" {
		if err := export.ExportXLSX(f.xlsxPath, plan, offcuts); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	if f.dxfPath != "" {
		if err := export.ExportDXF(f.dxfPath, plan, export.DefaultDXFOptions()); err != nil {
			return fmt.Errorf("dxf: %w", err)
		}
	}
	if f.gcodeDir != "" {
		if err := writePrograms(rt, f.gcodeDir, plan); err != nil {
			return fmt.Errorf("gcode: %w", err)
		}
	}
	return nil
}

// writePrograms writes plan.nc with every bar and one file per bar. Each
// program is checked against the plan before it is written.
func writePrograms(rt *session, dir string, plan model.Plan) error {
	gen, err := newGenerator(rt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	full := gen.GeneratePlan(plan)
	if issues := gen.CheckPlan(full, plan); len(issues) > 0 {
		return fmt.Errorf("plan program failed its check: %s", issues[0])
	}
	if err := os.WriteFile(filepath.Join(dir, "plan.nc"), []byte(full), 0644); err != nil {
		return err
	}

	bars := plan.Expand()
	for i, code := range gen.GenerateAll(plan) {
		if issues := gen.Check(code, bars[i]); len(issues) > 0 {
			return fmt.Errorf("bar %d program failed its check: %s", bars[i].Index, issues[0])
		}
		name := fmt.Sprintf("bar-%03d.nc", bars[i].Index)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(code), 0644); err != nil {
			return err
		}
	}
	rt.log.Info("saw programs written", "dir", dir, "bars", len(bars), "profile", gen.Profile().Name)
	return nil
}

// customProfiles loads the custom saw profiles from gcode.profiles or the
// per-user default file. A missing file means none.
func customProfiles(rt *session) ([]gcode.Profile, error) {
	path := rt.cfg.GCode.Profiles
	if path == "" {
		var err error
		if path, err = project.DefaultProfilesPath(); err != nil {
			return nil, nil
		}
	}
	custom, err := project.LoadCustomProfiles(path)
	if err != nil {
		return nil, fmt.Errorf("profiles %s: %w", path, err)
	}
	return custom, nil
}

// newGenerator resolves the configured profile among the custom profiles
// and the built-ins.
func newGenerator(rt *session) (*gcode.Generator, error) {
	custom, err := customProfiles(rt)
	if err != nil {
		return nil, err
	}
	profile := gcode.FindProfile(rt.settings.Saw.Profile, custom)
	return gcode.NewWithProfile(rt.settings.Saw, rt.settings.Unit, profile), nil
}
