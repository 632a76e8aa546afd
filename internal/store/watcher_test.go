package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestWatchReloadsOnExternalChange(t *testing.T) {
	s := tempStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		_ = s.Watch(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), func() {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		})
		close(done)
	}()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)

	doc := `{"version":1,"topics":[],"categories":[{"id":"x","label":"External","createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-01-01T00:00:00Z"}]}`
	if err := os.WriteFile(s.Paths().DatabasePath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload callback")
	}

	snap := s.Snapshot()
	if len(snap.Categories) != 1 || snap.Categories[0].Label != "External" {
		t.Errorf("state not reloaded: %+v", snap.Categories)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatchIgnoresOwnWrites(t *testing.T) {
	s := tempStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan struct{}, 8)
	go func() {
		_ = s.Watch(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), func() {
			reloads <- struct{}{}
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// A store-originated persist must not bounce back as a reload.
	if err := s.DeleteTopic("nothing"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloads:
		t.Error("self-write triggered a reload")
	case <-time.After(600 * time.Millisecond):
	}
}
