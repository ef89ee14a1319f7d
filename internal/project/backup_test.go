package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportAllData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "backup.json")
	var w model.Warehouse
	w.Add(model.NewStockEntry("steel", d("6"), 4))
	settings := model.DefaultSettings()
	settings.Strategy = model.StrategyGreedy
	settings.TimeLimit = 5 * time.Second

	require.NoError(t, ExportAllData(path, w, settings))

	backup, err := ImportAllData(path)
	require.NoError(t, err)
	assert.Equal(t, backupVersion, backup.Version)
	assert.NotEmpty(t, backup.CreatedAt)
	assert.Equal(t, model.StrategyGreedy, backup.Settings.Strategy)
	assert.Equal(t, 5*time.Second, backup.Settings.TimeLimit)
	assert.True(t, backup.Settings.MinOffcut.Equal(d("0.5")))
	assert.Equal(t, 4, backup.Warehouse.Count(d("6")))
}

func TestImportAllDataErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ImportAllData(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	noVersion := filepath.Join(dir, "noversion.json")
	require.NoError(t, os.WriteFile(noVersion, []byte(`{"warehouse":{}}`), 0644))
	_, err = ImportAllData(noVersion)
	assert.ErrorContains(t, err, "missing version")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"version":"1.0.0"}`), 0644))
	backup, err := ImportAllData(empty)
	require.NoError(t, err)
	assert.NotNil(t, backup.Warehouse.Entries)
}

func TestImportAllDataRejectsForeignBackups(t *testing.T) {
	dir := t.TempDir()

	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, []byte(`{"version":"2.0.0"}`), 0644))
	_, err := ImportAllData(future)
	assert.ErrorContains(t, err, "unsupported version 2.0.0")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version":"1.0.0","warehouse":{"entries":[{"id":"x","length":"0","quantity":1}]}}`), 0644))
	_, err = ImportAllData(bad)
	assert.ErrorContains(t, err, "invalid entry x")
}
