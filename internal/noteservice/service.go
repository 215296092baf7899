// Package noteservice implements the application-level note operations on
// top of the repository: payload normalization, change event publication,
// and markdown export.
package noteservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/vmoreira/plume/internal/models"
	"github.com/vmoreira/plume/internal/storage"
	"github.com/vmoreira/plume/internal/store"
)

// DefaultTitle is assigned when a creation payload carries an empty title.
const DefaultTitle = "Untitled"

// Publisher receives note change events. Kind is one of "created",
// "updated", "deleted", "restored".
type Publisher interface {
	PublishNoteEvent(kind, id string)
}

// Service coordinates repository operations and change notifications.
type Service struct {
	store  store.NoteStore
	events Publisher // may be nil
	files  storage.Provider
}

// NewService creates a new note service. events and files are optional.
func NewService(st store.NoteStore, events Publisher, files storage.Provider) *Service {
	return &Service{store: st, events: events, files: files}
}

// ListNotes returns one page of notes plus the filtered total.
func (s *Service) ListNotes(ctx context.Context, p models.ListParams) (*models.ListResult, error) {
	return s.store.List(ctx, p)
}

// CreateNote normalizes the draft and inserts it. The caller must not assume
// the note was partially created on error.
func (s *Service) CreateNote(ctx context.Context, draft models.NoteDraft) (*models.Note, error) {
	note, err := s.store.Create(ctx, normalizeDraft(draft))
	if err != nil {
		return nil, err
	}
	s.publish("created", note.ID)
	return note, nil
}

// UpdateNote rewrites the supplied fields. A missing id yields (nil, nil);
// callers must treat that as "nothing to merge", not as an error.
func (s *Service) UpdateNote(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error) {
	note, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if note != nil {
		s.publish("updated", note.ID)
	}
	return note, nil
}

// SoftDeleteNote moves a note to the trash.
func (s *Service) SoftDeleteNote(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.publish("deleted", id)
	return nil
}

// RestoreNote brings a note back from the trash.
func (s *Service) RestoreNote(ctx context.Context, id string) error {
	if err := s.store.Restore(ctx, id); err != nil {
		return err
	}
	s.publish("restored", id)
	return nil
}

// ExportNotes writes every live note to the export directory as a markdown
// file and returns the number of files written. Soft-deleted notes are
// skipped. Pages through the store so the working set stays bounded.
func (s *Service) ExportNotes(ctx context.Context) (int, error) {
	if s.files == nil {
		return 0, fmt.Errorf("noteservice: export not configured")
	}
	const pageSize = 100
	written := 0
	for page := 1; ; page++ {
		res, err := s.store.List(ctx, models.ListParams{Page: page, Limit: pageSize})
		if err != nil {
			return written, err
		}
		for i := range res.Notes {
			n := &res.Notes[i]
			if err := s.files.Write(exportFilename(n), exportBody(n)); err != nil {
				return written, err
			}
			written++
		}
		if page*pageSize >= res.Total || len(res.Notes) == 0 {
			return written, nil
		}
	}
}

func (s *Service) publish(kind, id string) {
	if s.events != nil {
		s.events.PublishNoteEvent(kind, id)
	}
}

// normalizeDraft centralizes default resolution for optional creation fields:
// empty title becomes the placeholder, tag names are trimmed and de-duplicated.
func normalizeDraft(draft models.NoteDraft) models.NoteDraft {
	if strings.TrimSpace(draft.Title) == "" {
		draft.Title = DefaultTitle
	}
	if len(draft.Tags) > 0 {
		seen := make(map[string]struct{}, len(draft.Tags))
		tags := draft.Tags[:0]
		for _, t := range draft.Tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
		draft.Tags = tags
	}
	return draft
}

// exportFilename builds a stable file name from the title slug and a short
// id prefix to disambiguate equal titles.
func exportFilename(n *models.Note) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, n.Title)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "note"
	}
	idPart := n.ID
	if len(idPart) > 8 {
		idPart = idPart[:8]
	}
	return slug + "-" + idPart + ".md"
}

func exportBody(n *models.Note) []byte {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(n.Title)
	b.WriteString("\n\n")
	b.WriteString(n.Content)
	if !strings.HasSuffix(n.Content, "\n") {
		b.WriteString("\n")
	}
	if len(n.Tags) > 0 {
		b.WriteString("\n")
		for i, t := range n.Tags {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString("#" + t.Name)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
