package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testPlan() model.Plan {
	plan := model.NewPlan(model.StrategyIP, "m")
	plan.Bars = []model.BarGroup{{
		Stock: d("6"), Available: 4, Used: 2,
		Cuts: []model.Cut{{Pieces: []model.PieceCount{{Length: d("2"), Count: 2}}, Waste: d("2"), Repeat: 2}},
	}}
	plan.TotalWaste = d("4")
	plan.UsedLength = d("12")
	return plan
}

func TestDefaultWarehousePath(t *testing.T) {
	path, err := DefaultWarehousePath()
	require.NoError(t, err)
	assert.Equal(t, "warehouse.json", filepath.Base(path))
	assert.Equal(t, ".barcut", filepath.Base(filepath.Dir(path)))
}

func TestSaveAndLoadWarehouse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "warehouse.json")
	var w model.Warehouse
	w.Add(model.NewStockEntry("steel", d("6"), 4))
	w.Add(model.NewStockEntry("steel", d("4.5"), 2))

	require.NoError(t, SaveWarehouse(path, w))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed")

	loaded, err := LoadWarehouse(path)
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 2)
	assert.True(t, loaded.Entries[1].Length.Equal(d("4.5")))
	assert.Equal(t, 2, loaded.Entries[1].Quantity)
}

func TestLoadWarehouseMissingIsEmpty(t *testing.T) {
	w, err := LoadWarehouse(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.NotNil(t, w.Entries)
	assert.Empty(t, w.Entries)
}

func TestLoadWarehouseRejectsBadData(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err := LoadWarehouse(bad)
	assert.Error(t, err)

	negative := filepath.Join(dir, "negative.json")
	require.NoError(t, os.WriteFile(negative, []byte(`{"entries":[{"id":"a","length":"6","quantity":-1}]}`), 0644))
	_, err = LoadWarehouse(negative)
	assert.ErrorContains(t, err, "invalid entry")
}

func TestImportWarehouseMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.json")
	var other model.Warehouse
	other.Add(model.NewStockEntry("", d("6"), 3))
	other.Add(model.NewStockEntry("", d("3"), 1))
	require.NoError(t, SaveWarehouse(path, other))

	var existing model.Warehouse
	existing.Add(model.NewStockEntry("", d("6"), 1))

	merged, err := ImportWarehouse(path, existing)
	require.NoError(t, err)
	assert.Equal(t, 4, merged.Count(d("6")))
	assert.Equal(t, 1, merged.Count(d("3")))
}

func TestApplyPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warehouse.json")
	var w model.Warehouse
	w.Add(model.NewStockEntry("steel", d("6"), 4))
	require.NoError(t, SaveWarehouse(path, w))

	plan := testPlan()
	offcuts := model.DetectOffcuts(plan, d("1"))
	require.Len(t, offcuts, 2)

	updated, err := ApplyPlan(path, plan, offcuts, model.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Count(d("6")))
	assert.Equal(t, 2, updated.Count(d("2")))

	backup, err := ImportAllData(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, 4, backup.Warehouse.Count(d("6")), "backup holds the state before the plan")

	reloaded, err := LoadWarehouse(path)
	require.NoError(t, err)
	assert.Equal(t, updated.Count(d("2")), reloaded.Count(d("2")))
}

func TestApplyPlanShortStock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.json")
	var w model.Warehouse
	w.Add(model.NewStockEntry("steel", d("6"), 1))
	require.NoError(t, SaveWarehouse(path, w))

	_, err := ApplyPlan(path, testPlan(), nil, model.DefaultSettings())
	assert.Error(t, err)

	reloaded, err := LoadWarehouse(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Count(d("6")), "failed plan leaves the file untouched")
}
