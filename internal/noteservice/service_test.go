package noteservice

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/vmoreira/plume/internal/models"
	"github.com/vmoreira/plume/internal/storage"
	"github.com/vmoreira/plume/internal/store"
)

type recordedEvent struct {
	kind string
	id   string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishNoteEvent(kind, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind, id})
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.kind
	}
	return out
}

func testService(t *testing.T) (*Service, *recordingPublisher, string) {
	t.Helper()
	dbFile, err := os.CreateTemp("", "plume-svc-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	exportDir := t.TempDir()
	files, err := storage.NewFS(exportDir)
	if err != nil {
		t.Fatal(err)
	}

	pub := &recordingPublisher{}
	return NewService(db, pub, files), pub, exportDir
}

func TestCreateNoteDefaultsEmptyTitle(t *testing.T) {
	svc, _, _ := testService(t)

	n, err := svc.CreateNote(context.Background(), models.NoteDraft{Title: "   ", Content: "body"})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if n.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", n.Title, DefaultTitle)
	}
}

func TestCreateNoteNormalizesTags(t *testing.T) {
	svc, _, _ := testService(t)

	n, err := svc.CreateNote(context.Background(), models.NoteDraft{
		Title: "tagged",
		Tags:  []string{" work ", "work", "", "ideas"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Tags) != 2 {
		t.Fatalf("tags = %v", n.Tags)
	}
	if n.Tags[0].Name != "work" || n.Tags[1].Name != "ideas" {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestEventsPublishedPerOperation(t *testing.T) {
	svc, pub, _ := testService(t)
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, models.NoteDraft{Title: "a"})
	if err != nil {
		t.Fatal(err)
	}
	title := "b"
	if _, err := svc.UpdateNote(ctx, n.ID, models.NoteUpdate{Title: &title}); err != nil {
		t.Fatal(err)
	}
	if err := svc.SoftDeleteNote(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.RestoreNote(ctx, n.ID); err != nil {
		t.Fatal(err)
	}

	want := []string{"created", "updated", "deleted", "restored"}
	got := pub.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUpdateUnknownIDPublishesNothing(t *testing.T) {
	svc, pub, _ := testService(t)

	title := "x"
	n, err := svc.UpdateNote(context.Background(), "missing", models.NoteUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if n != nil {
		t.Fatalf("note = %+v", n)
	}
	if got := pub.kinds(); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestExportWritesLiveNotesOnly(t *testing.T) {
	svc, _, exportDir := testService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateNote(ctx, models.NoteDraft{Title: fmt.Sprintf("Note %d", i), Content: "body"}); err != nil {
			t.Fatal(err)
		}
	}
	trashed, err := svc.CreateNote(ctx, models.NoteDraft{Title: "Trashed", Content: "gone"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.SoftDeleteNote(ctx, trashed.ID); err != nil {
		t.Fatal(err)
	}

	n, err := svc.ExportNotes(ctx)
	if err != nil {
		t.Fatalf("ExportNotes: %v", err)
	}
	if n != 3 {
		t.Errorf("exported = %d, want 3", n)
	}

	files, err := os.ReadDir(exportDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("export dir has %d files", len(files))
	}
	for _, f := range files {
		if strings.Contains(f.Name(), "trashed") {
			t.Errorf("soft-deleted note exported: %s", f.Name())
		}
		if !strings.HasSuffix(f.Name(), ".md") {
			t.Errorf("unexpected export name: %s", f.Name())
		}
	}
}

func TestExportFilename(t *testing.T) {
	n := &models.Note{ID: "abcdef1234567890", Title: "My Great Idea!"}
	got := exportFilename(n)
	if got != "my-great-idea-abcdef12.md" {
		t.Errorf("filename = %q", got)
	}

	n = &models.Note{ID: "xyz", Title: "!!!"}
	if got := exportFilename(n); got != "note-xyz.md" {
		t.Errorf("fallback filename = %q", got)
	}
}

func TestExportBodyIncludesTags(t *testing.T) {
	n := &models.Note{
		Title:   "T",
		Content: "line",
		Tags:    []models.Tag{{Name: "work"}, {Name: "ideas"}},
	}
	body := string(exportBody(n))
	if !strings.HasPrefix(body, "# T\n\nline\n") {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(body, "#work #ideas") {
		t.Errorf("tags missing from body: %q", body)
	}
}
