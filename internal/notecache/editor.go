package notecache

import (
	"context"
	"sync"
	"time"

	"github.com/vmoreira/plume/internal/models"
)

// DefaultEditorDelay is the quiet period before staged edits are flushed.
const DefaultEditorDelay = 750 * time.Millisecond

// Editor coalesces rapid title/content edits into a single debounced Update
// per note id. Edits apply to the cache immediately for visual feedback;
// the repository write happens after a quiet period, and edits staged while
// a write is outstanding merge into the next flush instead of racing it.
// A failed flush reverts the cache entry to its pre-edit snapshot.
type Editor struct {
	cache   *Cache
	delay   time.Duration
	ctx     context.Context
	onError func(id string, err error) // may be nil

	mu      sync.Mutex
	pending map[string]*pendingEdit
}

type pendingEdit struct {
	updates  models.NoteUpdate
	snapshot *models.Note // cache state before the first staged edit
	timer    *time.Timer
	inflight bool
}

// NewEditor creates an editor flushing into the given cache. ctx bounds the
// timer-driven repository calls; onError (optional) observes failed flushes.
func NewEditor(ctx context.Context, cache *Cache, delay time.Duration, onError func(id string, err error)) *Editor {
	if delay <= 0 {
		delay = DefaultEditorDelay
	}
	return &Editor{
		cache:   cache,
		delay:   delay,
		ctx:     ctx,
		onError: onError,
		pending: make(map[string]*pendingEdit),
	}
}

// SetTitle stages a title edit for the note.
func (e *Editor) SetTitle(id, title string) {
	e.stage(id, models.NoteUpdate{Title: &title})
}

// SetContent stages a content edit for the note.
func (e *Editor) SetContent(id, content string) {
	e.stage(id, models.NoteUpdate{Content: &content})
}

// SetColor stages a color edit for the note.
func (e *Editor) SetColor(id, color string) {
	e.stage(id, models.NoteUpdate{Color: &color})
}

func (e *Editor) stage(id string, upd models.NoteUpdate) {
	e.mu.Lock()
	p := e.pending[id]
	if p == nil {
		p = &pendingEdit{snapshot: e.cache.snapshot(id)}
		e.pending[id] = p
	}
	mergeUpdate(&p.updates, upd)
	rearm := !p.inflight
	if rearm {
		if p.timer == nil {
			p.timer = time.AfterFunc(e.delay, func() { e.flush(id) })
		} else {
			p.timer.Reset(e.delay)
		}
	}
	e.mu.Unlock()

	// Immediate visual feedback; reverted from the snapshot on flush failure.
	e.cache.applyLocal(id, upd)
}

// Flush forces an immediate write of any staged edits for the note (e.g. on
// editor blur or before closing the window).
func (e *Editor) Flush(id string) {
	e.mu.Lock()
	if p := e.pending[id]; p != nil && p.timer != nil {
		p.timer.Stop()
	}
	e.mu.Unlock()
	e.flush(id)
}

func (e *Editor) flush(id string) {
	e.mu.Lock()
	p := e.pending[id]
	if p == nil || p.inflight {
		e.mu.Unlock()
		return
	}
	upd := p.updates
	if upd.Empty() {
		delete(e.pending, id)
		e.mu.Unlock()
		return
	}
	p.updates = models.NoteUpdate{}
	p.inflight = true
	e.mu.Unlock()

	_, err := e.cache.Update(e.ctx, id, upd)

	e.mu.Lock()
	p.inflight = false
	if err != nil {
		if p.snapshot != nil {
			e.cache.replaceLocal(*p.snapshot)
		}
		delete(e.pending, id)
		cb := e.onError
		e.mu.Unlock()
		if cb != nil {
			cb(id, err)
		}
		return
	}
	if p.updates.Empty() {
		delete(e.pending, id)
		e.mu.Unlock()
		return
	}
	// Edits arrived while the write was outstanding: the merge from the
	// server result clobbered them in the cache, so re-apply and re-arm.
	staged := p.updates
	p.timer.Reset(e.delay)
	e.mu.Unlock()
	e.cache.applyLocal(id, staged)
}

func mergeUpdate(dst *models.NoteUpdate, src models.NoteUpdate) {
	if src.Title != nil {
		dst.Title = src.Title
	}
	if src.Content != nil {
		dst.Content = src.Content
	}
	if src.Color != nil {
		dst.Color = src.Color
	}
	if src.IsPinned != nil {
		dst.IsPinned = src.IsPinned
	}
}
