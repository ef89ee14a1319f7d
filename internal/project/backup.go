package project

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/piwi3910/BarCut/internal/model"
)

// backupVersion is written into every backup. Restores accept any 1.x file.
const backupVersion = "1.0.0"

// BackupData is a full snapshot: the warehouse plus the settings in effect
// when it was taken.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Warehouse model.Warehouse `json:"warehouse"`
	Settings  model.Settings  `json:"settings"`
}

// ExportAllData snapshots w and settings into exportPath.
func ExportAllData(exportPath string, w model.Warehouse, settings model.Settings) error {
	snapshot := BackupData{
		Version:   backupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Warehouse: w,
		Settings:  settings,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := writeFileAtomic(exportPath, data); err != nil {
		return fmt.Errorf("write backup %s: %w", exportPath, err)
	}
	return nil
}

// ImportAllData reads a snapshot written by ExportAllData. The warehouse it
// holds is checked like a warehouse file.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("read backup: %w", err)
	}
	var snapshot BackupData
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return BackupData{}, fmt.Errorf("parse backup %s: %w", importPath, err)
	}
	switch {
	case snapshot.Version == "":
		return BackupData{}, fmt.Errorf("backup %s: missing version field", importPath)
	case !strings.HasPrefix(snapshot.Version, "1."):
		return BackupData{}, fmt.Errorf("backup %s: unsupported version %s", importPath, snapshot.Version)
	}
	if err := checkEntries(importPath, snapshot.Warehouse); err != nil {
		return BackupData{}, err
	}
	if snapshot.Warehouse.Entries == nil {
		snapshot.Warehouse.Entries = []model.StockEntry{}
	}
	return snapshot, nil
}
