package cli

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/piwi3910/BarCut/internal/config"
	"github.com/piwi3910/BarCut/internal/importer"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

type inputFlags struct {
	stock         string
	stockFile     string
	demand        string
	demandFile    string
	warehouse     string
	fromWarehouse bool
}

func (f *inputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.stock, "stock", "", `stock bars, e.g. "6x10, 4.5x3"`)
	fs.StringVar(&f.stockFile, "stock-file", "", "stock list file (csv, xlsx or dxf)")
	fs.StringVar(&f.demand, "demand", "", `ordered pieces, e.g. "2x3, 1.5x4"`)
	fs.StringVar(&f.demandFile, "demand-file", "", "demand list file (csv, xlsx or dxf)")
	fs.StringVar(&f.warehouse, "warehouse", "", "warehouse file (default output.warehouse or ~/.barcut/warehouse.json)")
	fs.BoolVar(&f.fromWarehouse, "from-warehouse", false, "add the warehouse contents to the stock")
}

// load collects stock and demand from the list flags, files and the
// warehouse, in that order.
func (f *inputFlags) load(cfg *config.Config, log *slog.Logger) (model.RawInput, error) {
	var raw model.RawInput
	stock, err := loadItems(f.stock, f.stockFile, "stock", log)
	if err != nil {
		return raw, err
	}
	demand, err := loadItems(f.demand, f.demandFile, "demand", log)
	if err != nil {
		return raw, err
	}
	if f.fromWarehouse {
		path, err := warehousePath(f.warehouse, cfg)
		if err != nil {
			return raw, err
		}
		w, err := project.LoadWarehouse(path)
		if err != nil {
			return raw, err
		}
		log.Info("warehouse loaded", "path", path, "entries", len(w.Entries))
		stock = append(stock, w.Items()...)
	}
	raw.Stock, raw.Demand = stock, demand
	return raw, nil
}

func loadItems(list, file, what string, log *slog.Logger) ([]model.RawItem, error) {
	var items []model.RawItem
	if list != "" {
		parsed, err := importer.ParseList(list)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		items = append(items, parsed...)
	}
	if file != "" {
		res := importer.Import(file)
		for _, w := range res.Warnings {
			log.Warn("import warning", "file", file, "warning", w)
		}
		if !res.OK() {
			return nil, fmt.Errorf("%s file %s: %s", what, file, strings.Join(res.Errors, "; "))
		}
		items = append(items, res.Items...)
	}
	return items, nil
}

// warehousePath resolves the warehouse file: the flag, then the
// configuration, then the per-user default.
func warehousePath(flagValue string, cfg *config.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg != nil && cfg.Output.Warehouse != "" {
		return cfg.Output.Warehouse, nil
	}
	path, err := project.DefaultWarehousePath()
	if err != nil {
		return "", errors.New("no warehouse path: set -warehouse or output.warehouse")
	}
	return path, nil
}
