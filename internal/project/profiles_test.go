package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/BarCut/internal/gcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomProfilesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	custom := gcode.GetProfile("Grbl")
	custom.Name = "Shop saw"
	custom.PauseCode = "M1"

	require.NoError(t, SaveCustomProfiles(path, []gcode.Profile{custom}))
	loaded, err := LoadCustomProfiles(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, custom, loaded[0])
	assert.Equal(t, "M1", gcode.FindProfile("Shop saw", loaded).PauseCode)
}

func TestLoadCustomProfilesMissingFile(t *testing.T) {
	loaded, err := LoadCustomProfiles(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadCustomProfilesRejectsUnnamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":""}]`), 0644))
	_, err := LoadCustomProfiles(path)
	assert.Error(t, err)
}

func TestDefaultProfilesPath(t *testing.T) {
	path, err := DefaultProfilesPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.Equal(t, "profiles.json", filepath.Base(path))
	assert.Equal(t, "barcut", filepath.Base(filepath.Dir(path)))
}
