package utils

import (
	"os"
	"path/filepath"
)

// GetProjectRoot returns the nearest ancestor of the working directory that holds a go.mod.
func GetProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "."
}

// GetDataDir returns where siteqr keeps its ledger by default: $HOME/.siteqr,
// or data/ under the project root when there is no home directory.
func GetDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(GetProjectRoot(), "data")
	}
	return filepath.Join(home, ".siteqr")
}
