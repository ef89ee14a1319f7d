package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/piwi3910/BarCut/internal/gcode"
)

// DefaultProfilesPath returns the custom profile file in the user config
// directory.
func DefaultProfilesPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "barcut", "profiles.json"), nil
}

// SaveCustomProfiles saves custom saw profiles to a JSON file.
func SaveCustomProfiles(path string, profiles []gcode.Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCustomProfiles loads custom saw profiles. A missing file yields an
// empty slice. Profiles without a name are rejected.
func LoadCustomProfiles(path string) ([]gcode.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []gcode.Profile{}, nil
		}
		return nil, err
	}
	var profiles []gcode.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Name == "" {
			return nil, errors.New("custom profile has no name")
		}
	}
	return profiles, nil
}
