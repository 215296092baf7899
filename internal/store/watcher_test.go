package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReportsDatabaseWrites(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "plume.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- Watch(ctx, dbPath, logger, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(dbPath, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change callback after database write")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "plume.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		_ = Watch(ctx, dbPath, logger, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Fatal("callback fired for unrelated file")
	case <-time.After(1 * time.Second):
	}
}
