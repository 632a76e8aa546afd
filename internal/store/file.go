package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/jera/internal/models"
)

// SchemaVersion is the current version of the persisted document.
const SchemaVersion = 1

// persistedState is the entire durable database: one JSON document
// holding every topic and category.
type persistedState struct {
	Version    int               `json:"version"`
	Topics     []models.Topic    `json:"topics"`
	Categories []models.Category `json:"categories"`
}

func (s persistedState) clone() persistedState {
	out := persistedState{
		Version:    s.Version,
		Topics:     make([]models.Topic, len(s.Topics)),
		Categories: make([]models.Category, len(s.Categories)),
	}
	for i, t := range s.Topics {
		out.Topics[i] = t.Clone()
	}
	for i, c := range s.Categories {
		out.Categories[i] = c.Clone()
	}
	return out
}

// defaultState seeds a fresh database with one "General" category.
func defaultState() persistedState {
	now := time.Now().UTC()
	color := "#38bdf8"
	icon := "Sparkles"
	return persistedState{
		Version: SchemaVersion,
		Topics:  []models.Topic{},
		Categories: []models.Category{{
			ID:        "general",
			Label:     "General",
			Color:     &color,
			Icon:      &icon,
			CreatedAt: now,
			UpdatedAt: now,
		}},
	}
}

// readState loads and decodes the database file. A missing file is
// reported via os.ErrNotExist; a present but malformed file is an error
// the caller must treat as fatal, never as a reason to fall back to
// defaults.
func readState(path string) (persistedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return persistedState{}, fmt.Errorf("store: read database %s: %w", path, err)
	}
	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return persistedState{}, fmt.Errorf("store: database %s is corrupt: %w", path, err)
	}
	if state.Version < SchemaVersion {
		state.Version = SchemaVersion
	}
	return state, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// writeAtomic writes content via temp sibling, fsync, and rename, so the
// target is never observed partially written.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".jera-tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	success = true
	return nil
}

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
