package notecache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vmoreira/plume/internal/models"
)

func editorEnv(t *testing.T, delay time.Duration, onError func(string, error)) (*fakeClient, *Cache, *Editor) {
	t.Helper()
	client := &fakeClient{notes: []models.Note{{ID: "a", Title: "orig", Content: "body", Tags: []models.Tag{}}}}
	cache := New(client, 10)
	if err := cache.Load(context.Background(), Filter{}); err != nil {
		t.Fatal(err)
	}
	return client, cache, NewEditor(context.Background(), cache, delay, onError)
}

func updateCalls(f *fakeClient) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateCalls
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEditorCoalescesRapidEdits(t *testing.T) {
	client, cache, ed := editorEnv(t, 50*time.Millisecond, nil)

	ed.SetTitle("a", "d")
	ed.SetTitle("a", "dr")
	ed.SetTitle("a", "draft")
	ed.SetContent("a", "new body")

	// Feedback is immediate, the write is not.
	if got := cache.Notes(); got[0].Title != "draft" || got[0].Content != "new body" {
		t.Errorf("local feedback missing: %+v", got[0])
	}
	if n := updateCalls(client); n != 0 {
		t.Fatalf("wrote before the quiet period: %d calls", n)
	}

	waitFor(t, func() bool { return updateCalls(client) == 1 }, "debounced write never happened")

	client.mu.Lock()
	persisted := client.notes[0]
	client.mu.Unlock()
	if persisted.Title != "draft" || persisted.Content != "new body" {
		t.Errorf("persisted = %q / %q", persisted.Title, persisted.Content)
	}

	// Quiet afterwards: exactly one write for the whole burst.
	time.Sleep(150 * time.Millisecond)
	if n := updateCalls(client); n != 1 {
		t.Errorf("update calls = %d, want 1", n)
	}
}

func TestEditorFlushWritesImmediately(t *testing.T) {
	client, _, ed := editorEnv(t, time.Hour, nil)

	ed.SetTitle("a", "final")
	ed.Flush("a")

	if n := updateCalls(client); n != 1 {
		t.Fatalf("update calls after flush = %d, want 1", n)
	}
	client.mu.Lock()
	title := client.notes[0].Title
	client.mu.Unlock()
	if title != "final" {
		t.Errorf("persisted title = %q", title)
	}

	// Nothing staged: a second flush is a no-op.
	ed.Flush("a")
	if n := updateCalls(client); n != 1 {
		t.Errorf("empty flush wrote: %d calls", n)
	}
}

func TestEditorRevertsOnFailedFlush(t *testing.T) {
	var mu sync.Mutex
	var failedID string
	var failedErr error
	client, cache, ed := editorEnv(t, 20*time.Millisecond, func(id string, err error) {
		mu.Lock()
		failedID, failedErr = id, err
		mu.Unlock()
	})

	client.mu.Lock()
	client.updateErr = errors.New("readonly database")
	client.mu.Unlock()

	ed.SetTitle("a", "doomed")
	if got := cache.Notes(); got[0].Title != "doomed" {
		t.Fatal("optimistic edit not applied")
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failedErr != nil
	}, "onError never called")

	mu.Lock()
	if failedID != "a" {
		t.Errorf("failed id = %q", failedID)
	}
	mu.Unlock()

	// The cache entry snapped back to its pre-edit state.
	if got := cache.Notes(); got[0].Title != "orig" {
		t.Errorf("title after revert = %q, want orig", got[0].Title)
	}
}

func TestEditorStagesEditsDuringInFlightWrite(t *testing.T) {
	client, cache, ed := editorEnv(t, 20*time.Millisecond, nil)

	client.mu.Lock()
	client.blockUpdate = true
	client.updateRelease = make(chan struct{})
	client.mu.Unlock()

	ed.SetTitle("a", "v1")
	waitFor(t, func() bool { return updateCalls(client) == 1 }, "first write never started")

	// Edit while the write is outstanding: staged, not raced.
	ed.SetContent("a", "late body")
	if n := updateCalls(client); n != 1 {
		t.Fatalf("staged edit triggered a concurrent write: %d calls", n)
	}

	client.mu.Lock()
	client.blockUpdate = false
	client.mu.Unlock()
	close(client.updateRelease)

	waitFor(t, func() bool { return updateCalls(client) == 2 }, "staged edit never flushed")

	client.mu.Lock()
	persisted := client.notes[0]
	client.mu.Unlock()
	if persisted.Title != "v1" || persisted.Content != "late body" {
		t.Errorf("persisted = %q / %q", persisted.Title, persisted.Content)
	}
	if got := cache.Notes(); got[0].Content != "late body" {
		t.Errorf("cached content = %q", got[0].Content)
	}
}
