package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/jera/internal/models"
)

// dailyKeep is how many daily snapshots rotation retains.
const dailyKeep = 7

// rotateDailyBackup copies the database file to daily-<date>.json once
// per calendar day, then trims daily snapshots beyond the retention cap.
// Manual and export files are never trimmed.
func (s *Store) rotateDailyBackup() error {
	today := time.Now().Format("2006-01-02")
	target := filepath.Join(s.paths.BackupsDir, fmt.Sprintf("daily-%s.json", today))
	if _, err := os.Stat(target); isNotExist(err) {
		if err := copyFile(s.paths.DatabasePath, target); err != nil {
			return err
		}
	}
	return s.cleanupDailyBackups()
}

// cleanupDailyBackups deletes all but the dailyKeep lexicographically
// newest daily-* files. Filenames embed the date, so name order is
// creation order.
func (s *Store) cleanupDailyBackups() error {
	entries, err := os.ReadDir(s.paths.BackupsDir)
	if err != nil {
		return fmt.Errorf("store: list backups: %w", err)
	}
	var daily []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "daily-") {
			daily = append(daily, e.Name())
		}
	}
	sort.Strings(daily)
	for _, name := range daily[:max(0, len(daily)-dailyKeep)] {
		_ = os.Remove(filepath.Join(s.paths.BackupsDir, name))
	}
	return nil
}

// BackupNow copies the live database file to a timestamped manual backup
// and returns the backup path. Manual backups are exempt from rotation.
func (s *Store) BackupNow() (string, error) {
	timestamp := time.Now().Format("20060102-150405")
	target := filepath.Join(s.paths.BackupsDir, fmt.Sprintf("manual-%s.json", timestamp))
	if err := copyFile(s.paths.DatabasePath, target); err != nil {
		return "", err
	}
	return target, nil
}

// Export writes a versioned envelope holding a full snapshot to a
// timestamped file in the backups directory and returns its path.
func (s *Store) Export(appVersion string) (string, error) {
	envelope := models.ExportEnvelope{
		Version:    appVersion,
		ExportedAt: time.Now().UTC(),
		Snapshot:   s.Snapshot(),
	}
	payload, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", fmt.Errorf("store: encode export: %w", err)
	}
	timestamp := time.Now().Format("20060102-150405")
	target := filepath.Join(s.paths.BackupsDir, fmt.Sprintf("export-%s.json", timestamp))
	if err := writeAtomic(target, payload); err != nil {
		return "", err
	}
	return target, nil
}

// ImportFile reads an export envelope from path and applies it.
func (s *Store) ImportFile(path string) (models.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("store: unable to read backup at %s: %w", path, err)
	}
	return s.ImportRaw(raw)
}

// ImportRaw decodes an export envelope and replaces the entire state with
// its snapshot. This is a full overwrite, not a merge; the schema version
// is taken from the imported snapshot.
func (s *Store) ImportRaw(contents []byte) (models.Snapshot, error) {
	var envelope models.ExportEnvelope
	if err := json.Unmarshal(contents, &envelope); err != nil {
		return models.Snapshot{}, fmt.Errorf("store: backup content is not a valid export: %w", err)
	}
	if envelope.Version == "" || envelope.Snapshot.SchemaVersion < 1 {
		return models.Snapshot{}, fmt.Errorf("store: backup content is not a valid export: missing version or snapshot")
	}

	snapshot := envelope.Snapshot
	s.mu.Lock()
	s.state = persistedState{
		Version:    snapshot.SchemaVersion,
		Topics:     snapshot.Topics,
		Categories: snapshot.Categories,
	}
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return models.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("store: copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", dst, err)
	}
	return nil
}
