package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths describes where the database and its backups live on disk.
type Paths struct {
	DataDir      string `json:"dataDir"`
	DatabasePath string `json:"databasePath"`
	BackupsDir   string `json:"backupsDir"`
	Portable     bool   `json:"portable"`
}

// ResolvePaths determines the data directory once at startup.
//
// If override is non-empty it is used verbatim. Otherwise, a "data"
// directory next to the running executable selects portable mode; failing
// that, a per-user application-data directory is used.
func ResolvePaths(override string) (Paths, error) {
	var dataDir string
	portable := false

	switch {
	case override != "":
		abs, err := filepath.Abs(override)
		if err != nil {
			return Paths{}, fmt.Errorf("store: resolve data dir: %w", err)
		}
		dataDir = abs
	default:
		exe, err := os.Executable()
		if err != nil {
			return Paths{}, fmt.Errorf("store: resolve executable path: %w", err)
		}
		portableDir := filepath.Join(filepath.Dir(exe), "data")
		if info, statErr := os.Stat(portableDir); statErr == nil && info.IsDir() {
			dataDir = portableDir
			portable = true
		} else {
			cfgDir, cfgErr := os.UserConfigDir()
			if cfgErr != nil {
				return Paths{}, fmt.Errorf("store: resolve user config dir: %w", cfgErr)
			}
			dataDir = filepath.Join(cfgDir, "jera")
		}
	}

	p := Paths{
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "data.json"),
		BackupsDir:   filepath.Join(dataDir, "Backups"),
		Portable:     portable,
	}
	if err := p.ensureDirs(); err != nil {
		return Paths{}, err
	}
	return p, nil
}

func (p Paths) ensureDirs() error {
	if err := os.MkdirAll(p.DataDir, 0o755); err != nil {
		return fmt.Errorf("store: create data dir: %w", err)
	}
	if err := os.MkdirAll(p.BackupsDir, 0o755); err != nil {
		return fmt.Errorf("store: create backups dir: %w", err)
	}
	return nil
}
