package store

import (
	"context"

	"github.com/vmoreira/plume/internal/models"
)

// NoteStore defines the repository operations against the note collection.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteStore interface {
	List(ctx context.Context, p models.ListParams) (*models.ListResult, error)
	Create(ctx context.Context, draft models.NoteDraft) (*models.Note, error)
	Update(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Note, error)
	Close() error
}

// Verify *DB satisfies NoteStore at compile time.
var _ NoteStore = (*DB)(nil)
