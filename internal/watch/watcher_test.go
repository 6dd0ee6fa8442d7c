// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// collectChanges wires a Watcher over dir with a short debounce and returns a
// function that waits for the next callback's changed set.
func collectChanges(t *testing.T, dir string, cfg Config) (cancel func(), next func() []string) {
	t.Helper()

	batches := make(chan []string, 8)

	cfg.BaseDir = dir
	if cfg.Debounce == 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	cfg.OnChange = func(_ context.Context, changed []string) error {
		batches <- slices.Clone(changed)
		return nil
	}

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if runErr := w.Run(ctx); runErr != nil {
			t.Errorf("Run returned error: %v", runErr)
		}
	}()

	t.Cleanup(func() {
		stop()
		<-done
	})

	next = func() []string {
		select {
		case b := <-batches:
			return b
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for change callback")
			return nil
		}
	}
	return stop, next
}

func TestFeatureFileChangeFiresCallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, next := collectChanges(t, dir, Config{})

	if err := os.WriteFile(filepath.Join(dir, "roads.geojson"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	changed := next()
	if !slices.Contains(changed, "roads.geojson") {
		t.Errorf("changed = %v, want roads.geojson", changed)
	}
}

func TestRapidWritesCoalesce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, next := collectChanges(t, dir, Config{Debounce: 200 * time.Millisecond})

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "roads.geojson"), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	changed := next()
	if len(changed) != 1 || changed[0] != "roads.geojson" {
		t.Errorf("changed = %v, want single roads.geojson entry", changed)
	}
}

func TestGeneratedArchivesAreIgnored(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, next := collectChanges(t, dir, Config{})

	// The archive write must not fire; the feature write after it must.
	if err := os.WriteFile(filepath.Join(dir, "out.pmtiles"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "towns.geojson"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	changed := next()
	if slices.Contains(changed, "out.pmtiles") {
		t.Errorf("generated archive leaked into changed set: %v", changed)
	}
	if !slices.Contains(changed, "towns.geojson") {
		t.Errorf("changed = %v, want towns.geojson", changed)
	}
}

func TestCustomPatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, next := collectChanges(t, dir, Config{Patterns: []string{"**/*.csv"}})

	if err := os.WriteFile(filepath.Join(dir, "skipped.geojson"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "points.csv"), []byte("lon,lat\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	changed := next()
	if !slices.Contains(changed, "points.csv") || slices.Contains(changed, "skipped.geojson") {
		t.Errorf("changed = %v, want only points.csv", changed)
	}
}

func TestNewDirectoryIsWatched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, next := collectChanges(t, dir, Config{})

	sub := filepath.Join(dir, "layers")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "water.geojson"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	changed := next()
	if !slices.Contains(changed, filepath.Join("layers", "water.geojson")) {
		t.Errorf("changed = %v, want layers/water.geojson", changed)
	}
}

func TestInvalidPatternRejectedAtConstruction(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseDir: t.TempDir(), Patterns: []string{"[unclosed"}})
	if err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func TestRunIsSingleUse(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	// Let the first Run claim the watcher.
	time.Sleep(50 * time.Millisecond)

	if second := w.Run(context.Background()); second == nil {
		t.Error("expected error from second Run call")
	}
	stop()
	<-done
}

func TestDefaultSetsAreCopies(t *testing.T) {
	t.Parallel()

	p := DefaultPatterns()
	p[0] = "mutated"
	if DefaultPatterns()[0] == "mutated" {
		t.Error("DefaultPatterns exposed internal slice")
	}

	ig := DefaultIgnores()
	ig[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores exposed internal slice")
	}
}
