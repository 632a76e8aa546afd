package ident

import (
	"sync"
	"testing"
)

func TestNewIsUniqueUnderConcurrency(t *testing.T) {
	const perGoroutine = 200

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := New()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate identifier %q", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 8*perGoroutine {
		t.Errorf("generated %d unique ids, want %d", len(seen), 8*perGoroutine)
	}
}

func TestNewIsNonEmpty(t *testing.T) {
	if New() == "" {
		t.Fatal("empty identifier")
	}
}
