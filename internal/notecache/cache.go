// Package notecache maintains the UI process's in-memory mirror of a
// filtered, paginated slice of the note store: infinite-scroll accumulation,
// optimistic mutation, and local-only reordering.
package notecache

import (
	"context"
	"sync"
	"time"

	"github.com/vmoreira/plume/internal/apperr"
	"github.com/vmoreira/plume/internal/models"
)

// Client is the repository call surface the cache depends on. The note
// service satisfies it in-process; across the UI boundary a transport proxy
// does.
type Client interface {
	ListNotes(ctx context.Context, p models.ListParams) (*models.ListResult, error)
	CreateNote(ctx context.Context, draft models.NoteDraft) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error)
	SoftDeleteNote(ctx context.Context, id string) error
	RestoreNote(ctx context.Context, id string) error
}

// Filter selects which slice of the store the cache mirrors.
type Filter struct {
	IsPinned  *bool
	IsDeleted bool
}

// Pagination is the cursor bookkeeping that drives incremental loading.
type Pagination struct {
	Page       int
	Limit      int
	HasMore    bool
	TotalCount int
}

// Cache is an explicit state container with one logical owner: every state
// transition goes through the mutex, and the repository calls themselves run
// outside the lock so competing triggers observe the loading flags and no-op
// instead of issuing duplicate fetches. A generation counter marks the
// current load context; completions carrying a stale generation are
// discarded, never applied.
type Cache struct {
	client Client

	mu          sync.Mutex
	notes       []models.Note
	pag         Pagination
	filter      Filter
	loading     bool
	loadingMore bool
	err         error
	gen         int
}

// New creates a cache fetching pages of the given size.
func New(client Client, limit int) *Cache {
	if limit < 1 {
		limit = 10
	}
	return &Cache{client: client, pag: Pagination{Page: 1, Limit: limit}}
}

func listParams(f Filter, page, limit int) models.ListParams {
	return models.ListParams{Page: page, Limit: limit, IsPinned: f.IsPinned, IsDeleted: f.IsDeleted}
}

// Load replaces the cache wholesale with the first page under the given
// filter and resets pagination. It supersedes any in-flight load-more: a
// completion for the previous context finds a newer generation and is
// discarded.
func (c *Cache) Load(ctx context.Context, f Filter) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.filter = f
	c.loading = true
	c.loadingMore = false
	c.err = nil
	limit := c.pag.Limit
	c.mu.Unlock()

	res, err := c.client.ListNotes(ctx, listParams(f, 1, limit))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.loading = false
	if err != nil {
		c.err = err
		return err
	}
	c.notes = res.Notes
	c.pag = Pagination{
		Page:       1,
		Limit:      limit,
		HasMore:    res.Total >= limit,
		TotalCount: res.Total,
	}
	return nil
}

// LoadMore fetches the next page in append mode. It is the sole defense
// against duplicate concurrent page fetches from overlapping scroll signals:
// a no-op when there is nothing more to fetch or a load is already in flight.
func (c *Cache) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if !c.pag.HasMore || c.loading || c.loadingMore {
		c.mu.Unlock()
		return nil
	}
	c.loadingMore = true
	gen := c.gen
	next := c.pag.Page + 1
	f := c.filter
	limit := c.pag.Limit
	c.mu.Unlock()

	res, err := c.client.ListNotes(ctx, listParams(f, next, limit))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.loadingMore = false
	if err != nil {
		c.err = err
		return err
	}
	c.notes = append(c.notes, res.Notes...)
	c.pag.Page = next
	c.pag.TotalCount = res.Total
	c.pag.HasMore = len(c.notes) < res.Total
	return nil
}

// Create persists a draft and splices the result at the front of its pin
// group, approximating the store's newest-first ordering without a refetch.
// TotalCount is incremented to stay consistent with the insert.
func (c *Cache) Create(ctx context.Context, draft models.NoteDraft) (*models.Note, error) {
	note, err := c.client.CreateNote(ctx, draft)
	if err != nil {
		c.setErr(err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	pos := -1
	for i := range c.notes {
		if c.notes[i].IsPinned == note.IsPinned {
			pos = i
			break
		}
	}
	if pos == -1 {
		if note.IsPinned {
			pos = 0
		} else {
			pos = len(c.notes)
		}
	}
	c.notes = append(c.notes, models.Note{})
	copy(c.notes[pos+1:], c.notes[pos:])
	c.notes[pos] = *note
	c.pag.TotalCount++
	return note, nil
}

// Update persists a partial update and merges the result into the matching
// cache entry. A nil result (unknown id) means there is nothing to merge.
func (c *Cache) Update(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error) {
	note, err := c.client.UpdateNote(ctx, id, upd)
	if err != nil {
		c.setErr(err)
		return nil, err
	}
	if note == nil {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceLocked(*note)
	return note, nil
}

// TogglePin inverts the cached pin state and persists it via Update. Nothing
// is applied locally before the call succeeds, so a failure leaves the cache
// in its pre-toggle state.
func (c *Cache) TogglePin(ctx context.Context, id string) error {
	c.mu.Lock()
	var next bool
	found := false
	for i := range c.notes {
		if c.notes[i].ID == id {
			next = !c.notes[i].IsPinned
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return apperr.ErrNotFound
	}
	_, err := c.Update(ctx, id, models.NoteUpdate{IsPinned: &next})
	return err
}

// SoftDelete moves a note to the trash. The entry stays in the sequence with
// deletedAt stamped; the render-time accessors hide it from live views.
func (c *Cache) SoftDelete(ctx context.Context, id string) error {
	if err := c.client.SoftDeleteNote(ctx, id); err != nil {
		c.setErr(err)
		return err
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notes {
		if c.notes[i].ID == id {
			c.notes[i].DeletedAt = &now
			c.notes[i].UpdatedAt = now
			break
		}
	}
	return nil
}

// Restore brings a note back from the trash.
func (c *Cache) Restore(ctx context.Context, id string) error {
	if err := c.client.RestoreNote(ctx, id); err != nil {
		c.setErr(err)
		return err
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notes {
		if c.notes[i].ID == id {
			c.notes[i].DeletedAt = nil
			c.notes[i].UpdatedAt = now
			break
		}
	}
	return nil
}

// Reorder moves the note with activeID to the position of overID by splicing
// the in-memory sequence, then reassigns sequential transient order ids for
// rendering. It never calls the repository: reordering is scoped to the view
// session and the store's order ids are unaffected.
func (c *Cache) Reorder(activeID, overID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	from, to := -1, -1
	for i := range c.notes {
		switch c.notes[i].ID {
		case activeID:
			from = i
		case overID:
			to = i
		}
	}
	if from == -1 || to == -1 {
		return apperr.ErrNotFound
	}
	moved := c.notes[from]
	c.notes = append(c.notes[:from], c.notes[from+1:]...)
	c.notes = append(c.notes, models.Note{})
	copy(c.notes[to+1:], c.notes[to:])
	c.notes[to] = moved
	for i := range c.notes {
		c.notes[i].OrderID = int64(i)
	}
	return nil
}

// Notes returns a copy of the full cached sequence.
func (c *Cache) Notes() []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Note(nil), c.notes...)
}

// Pinned returns the live pinned notes in cache order.
func (c *Cache) Pinned() []models.Note {
	return c.filtered(func(n *models.Note) bool { return n.IsPinned && !n.Deleted() })
}

// Unpinned returns the live unpinned notes in cache order.
func (c *Cache) Unpinned() []models.Note {
	return c.filtered(func(n *models.Note) bool { return !n.IsPinned && !n.Deleted() })
}

// Deleted returns the soft-deleted notes in cache order.
func (c *Cache) Deleted() []models.Note {
	return c.filtered(func(n *models.Note) bool { return n.Deleted() })
}

// Pagination returns the current cursor state.
func (c *Cache) Pagination() Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pag
}

// Loading reports the reset-load and load-more flags.
func (c *Cache) Loading() (loading, loadingMore bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading, c.loadingMore
}

// Err returns the last operation error, if any.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Cache) filtered(keep func(*models.Note) bool) []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []models.Note{}
	for i := range c.notes {
		if keep(&c.notes[i]) {
			out = append(out, c.notes[i])
		}
	}
	return out
}

func (c *Cache) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// snapshot returns a copy of the cached entry, or nil when absent.
func (c *Cache) snapshot(id string) *models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notes {
		if c.notes[i].ID == id {
			n := c.notes[i]
			return &n
		}
	}
	return nil
}

// applyLocal merges a partial update into the cached entry without calling
// the repository. Used for immediate editor feedback.
func (c *Cache) applyLocal(id string, upd models.NoteUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notes {
		if c.notes[i].ID != id {
			continue
		}
		if upd.Title != nil {
			c.notes[i].Title = *upd.Title
		}
		if upd.Content != nil {
			c.notes[i].Content = *upd.Content
		}
		if upd.Color != nil {
			c.notes[i].Color = *upd.Color
		}
		if upd.IsPinned != nil {
			c.notes[i].IsPinned = *upd.IsPinned
		}
		return
	}
}

// replaceLocal overwrites the cached entry matching n.ID, if present.
func (c *Cache) replaceLocal(n models.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceLocked(n)
}

func (c *Cache) replaceLocked(n models.Note) {
	for i := range c.notes {
		if c.notes[i].ID == n.ID {
			c.notes[i] = n
			return
		}
	}
}
