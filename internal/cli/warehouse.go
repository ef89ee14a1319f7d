package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/piwi3910/BarCut/internal/gcode"
	"github.com/piwi3910/BarCut/internal/importer"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

const warehouseUsage = `Usage: barcut warehouse [flags] <action> [argument]

Actions:
  show             list the bars on hand
  add LIST         add bars, e.g. "6x10, 4.5x3"
  import FILE      add bars from a csv, xlsx, dxf or warehouse json file
  backup FILE      write the warehouse and settings to FILE
  restore FILE     replace the warehouse with the one saved in FILE
`

func runWarehouse(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		common commonFlags
		path   string
		label  string
	)
	fs := newFlagSet("warehouse", stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, warehouseUsage)
		fs.PrintDefaults()
	}
	common.register(fs)
	fs.StringVar(&path, "warehouse", "", "warehouse file (default output.warehouse or ~/.barcut/warehouse.json)")
	fs.StringVar(&label, "label", "", "label for added bars")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return ExitUsage
	}
	action, rest := rest[0], rest[1:]
	if action != "show" && len(rest) != 1 {
		fmt.Fprintf(stderr, "barcut: warehouse %s needs one argument\n", action)
		return ExitUsage
	}

	rt, err := common.setup(stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer rt.log.Close()

	file, err := warehousePath(path, rt.cfg)
	if err != nil {
		return fail(stderr, err)
	}
	w, err := project.LoadWarehouse(file)
	if err != nil {
		return fail(stderr, err)
	}

	switch action {
	case "show":
		writeWarehouse(stdout, w, rt.settings.Unit)
		return ExitOK
	case "add":
		items, err := importer.ParseList(rest[0])
		if err != nil {
			return fail(stderr, err)
		}
		if err := addItems(&w, items, label); err != nil {
			return fail(stderr, err)
		}
	case "import":
		if strings.EqualFold(filepath.Ext(rest[0]), ".json") {
			if w, err = project.ImportWarehouse(rest[0], w); err != nil {
				return fail(stderr, err)
			}
			break
		}
		res := importer.Import(rest[0])
		for _, warning := range res.Warnings {
			rt.log.Warn("import warning", "file", rest[0], "warning", warning)
		}
		if !res.OK() {
			return fail(stderr, fmt.Errorf("%s: %s", rest[0], strings.Join(res.Errors, "; ")))
		}
		if err := addItems(&w, res.Items, label); err != nil {
			return fail(stderr, err)
		}
	case "backup":
		if err := project.ExportAllData(rest[0], w, rt.settings); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "Backup written to %s\n", rest[0])
		return ExitOK
	case "restore":
		data, err := project.ImportAllData(rest[0])
		if err != nil {
			return fail(stderr, err)
		}
		w = data.Warehouse
	default:
		fmt.Fprintf(stderr, "barcut: unknown warehouse action %q\n", action)
		return ExitUsage
	}

	if err := project.SaveWarehouse(file, w); err != nil {
		return fail(stderr, err)
	}
	rt.log.Info("warehouse saved", "path", file, "action", action, "entries", len(w.Entries))
	writeWarehouse(stdout, w, rt.settings.Unit)
	return ExitOK
}

func addItems(w *model.Warehouse, items []model.RawItem, label string) error {
	for _, it := range items {
		if !it.Length.IsPositive() || it.Quantity <= 0 {
			return fmt.Errorf("invalid bar %s x %d", it.Length, it.Quantity)
		}
		w.Add(model.NewStockEntry(label, it.Length, it.Quantity))
	}
	return nil
}

func writeWarehouse(out io.Writer, w model.Warehouse, unit string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tLENGTH\tQTY\tOFFCUT")
	for _, e := range w.Entries {
		offcut := ""
		if e.Offcut {
			offcut = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%d\t%s\n", e.ID, e.Label, e.Length.String(), unit, e.Quantity, offcut)
	}
	tw.Flush()
	fmt.Fprintf(out, "Total length: %s %s\n", w.TotalLength().String(), unit)
}

func runProfiles(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var common commonFlags
	fs := newFlagSet("profiles", stderr)
	common.register(fs)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	rt, err := common.setup(stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer rt.log.Close()

	custom, err := customProfiles(rt)
	if err != nil {
		return fail(stderr, err)
	}
	active := gcode.FindProfile(rt.settings.Saw.Profile, custom).Name

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUNITS\tSOURCE\tDESCRIPTION")
	write := func(p gcode.Profile, source string) {
		name := p.Name
		if name == active {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, p.Units, source, p.Description)
	}
	for _, p := range custom {
		write(p, "custom")
	}
	for _, p := range gcode.Profiles {
		write(p, "built-in")
	}
	tw.Flush()
	return ExitOK
}
