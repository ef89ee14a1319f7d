// Package project persists the warehouse, custom saw profiles and backups
// as JSON files.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/BarCut/internal/model"
)

// DefaultWarehousePath returns ~/.barcut/warehouse.json.
func DefaultWarehousePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".barcut", "warehouse.json"), nil
}

// SaveWarehouse writes the warehouse, creating parent directories. The file
// is replaced atomically.
func SaveWarehouse(path string, w model.Warehouse) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadWarehouse reads the warehouse. A missing file is an empty warehouse.
func LoadWarehouse(path string) (model.Warehouse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Warehouse{Entries: []model.StockEntry{}}, nil
		}
		return model.Warehouse{}, err
	}
	var w model.Warehouse
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Warehouse{}, fmt.Errorf("parse warehouse %s: %w", path, err)
	}
	if err := checkEntries(path, w); err != nil {
		return model.Warehouse{}, err
	}
	return w, nil
}

func checkEntries(path string, w model.Warehouse) error {
	for _, e := range w.Entries {
		if !e.Length.IsPositive() || e.Quantity < 0 {
			return fmt.Errorf("warehouse %s: invalid entry %s (%s x %d)", path, e.ID, e.Length, e.Quantity)
		}
	}
	return nil
}

// ImportWarehouse merges the entries of the file at path into existing.
func ImportWarehouse(path string, existing model.Warehouse) (model.Warehouse, error) {
	imported, err := LoadWarehouse(path)
	if err != nil {
		return existing, err
	}
	for _, e := range imported.Entries {
		existing.Add(e)
	}
	return existing, nil
}

// ApplyPlan consumes the bars of plan from the warehouse at path, returns
// offcuts to it and saves the result. A backup of the previous state is
// written next to the file first.
func ApplyPlan(path string, plan model.Plan, offcuts []model.Offcut, settings model.Settings) (model.Warehouse, error) {
	w, err := LoadWarehouse(path)
	if err != nil {
		return model.Warehouse{}, err
	}
	if err := ExportAllData(path+".bak", w, settings); err != nil {
		return w, err
	}
	if err := w.Consume(plan); err != nil {
		return w, err
	}
	w.AddOffcuts(offcuts)
	if err := SaveWarehouse(path, w); err != nil {
		return w, err
	}
	return w, nil
}
