package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vmoreira/plume/internal/models"
)

const noteColumns = `id, order_id, title, content, color, is_pinned, created_at, updated_at, deleted_at`

// encodePinned maps the boolean pin flag to its stored text form.
func encodePinned(pinned bool) string {
	if pinned {
		return "true"
	}
	return "false"
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns one page of notes plus the total count under the same filter
// predicate. Rows and count are read in a single transaction so they observe
// the same snapshot. Live notes are ordered by creation time descending,
// trash by deletion time descending.
func (db *DB) List(ctx context.Context, p models.ListParams) (*models.ListResult, error) {
	if p.Page < 1 || p.Limit < 1 {
		return nil, fmt.Errorf("store: list: page %d and limit %d must be >= 1", p.Page, p.Limit)
	}

	var (
		where   string
		orderBy string
		args    []any
	)
	if p.IsDeleted {
		where = `deleted_at IS NOT NULL`
		orderBy = `deleted_at DESC, order_id ASC`
	} else {
		where = `deleted_at IS NULL`
		orderBy = `created_at DESC, order_id ASC`
		if p.IsPinned != nil {
			where += ` AND is_pinned = ?`
			args = append(args, encodePinned(*p.IsPinned))
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: list: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	rows, err := tx.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE `+where+` ORDER BY `+orderBy+` LIMIT ? OFFSET ?`,
		append(append([]any{}, args...), p.Limit, p.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("store: list: query: %w", err)
	}
	notes, err := collectNotes(rows)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM notes WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("store: list: count: %w", err)
	}

	if err := attachTags(ctx, tx, notes); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: list: commit: %w", err)
	}
	return &models.ListResult{Notes: notes, Total: total}, nil
}

// Create inserts a new note. The order id is read and assigned inside one
// immediate transaction: min(order_id)-1 across all rows, soft-deleted
// included, or 0 on an empty store. This keeps order ids unique and strictly
// decreasing under concurrent creates.
func (db *DB) Create(ctx context.Context, draft models.NoteDraft) (*models.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: create: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var minOrder sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MIN(order_id) FROM notes`).Scan(&minOrder); err != nil {
		return nil, fmt.Errorf("store: create: read min order id: %w", err)
	}
	orderID := int64(0)
	if minOrder.Valid {
		orderID = minOrder.Int64 - 1
	}

	id := db.ids.New()
	now := db.clock.Now()
	stamp := formatTime(now)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, order_id, title, content, color, is_pinned, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, id, orderID, draft.Title, draft.Content, nullString(draft.Color), encodePinned(draft.IsPinned), stamp, stamp)
	if err != nil {
		return nil, fmt.Errorf("store: create: insert note: %w", err)
	}

	tags := make([]models.Tag, 0, len(draft.Tags))
	for _, name := range draft.Tags {
		tagID, err := upsertTag(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)`, id, tagID); err != nil {
			return nil, fmt.Errorf("store: create: link tag %q: %w", name, err)
		}
		tags = append(tags, models.Tag{ID: tagID, Name: name})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: create: commit: %w", err)
	}

	created, err := parseTime(stamp)
	if err != nil {
		return nil, fmt.Errorf("store: create: %w", err)
	}
	return &models.Note{
		ID:        id,
		OrderID:   orderID,
		Title:     draft.Title,
		Content:   draft.Content,
		Color:     draft.Color,
		IsPinned:  draft.IsPinned,
		CreatedAt: created,
		UpdatedAt: created,
		Tags:      tags,
	}, nil
}

// Update rewrites only the supplied fields and always refreshes updated_at,
// even for an empty update set. An id that matches no row returns (nil, nil):
// a silent no-op, not an error.
func (db *DB) Update(ctx context.Context, id string, upd models.NoteUpdate) (*models.Note, error) {
	set := []string{"updated_at = ?"}
	args := []any{formatTime(db.clock.Now())}
	if upd.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.Color != nil {
		set = append(set, "color = ?")
		args = append(args, nullString(*upd.Color))
	}
	if upd.IsPinned != nil {
		set = append(set, "is_pinned = ?")
		args = append(args, encodePinned(*upd.IsPinned))
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET `+strings.Join(set, ", ")+` WHERE id = ?`,
		append(args, id)...)
	if err != nil {
		return nil, fmt.Errorf("store: update %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("store: update %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return nil, nil
	}
	return db.Get(ctx, id)
}

// SoftDelete stamps deleted_at and refreshes updated_at. Idempotent: deleting
// an already-deleted note re-stamps deleted_at.
func (db *DB) SoftDelete(ctx context.Context, id string) error {
	stamp := formatTime(db.clock.Now())
	_, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ?, updated_at = ? WHERE id = ?`, stamp, stamp, id)
	if err != nil {
		return fmt.Errorf("store: soft delete %s: %w", id, err)
	}
	return nil
}

// Restore clears deleted_at and refreshes updated_at. The id and order id are
// never regenerated. Idempotent on an already-live note.
func (db *DB) Restore(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET deleted_at = NULL, updated_at = ? WHERE id = ?`,
		formatTime(db.clock.Now()), id)
	if err != nil {
		return fmt.Errorf("store: restore %s: %w", id, err)
	}
	return nil
}

// Get returns a single note by id, or (nil, nil) when it does not exist.
func (db *DB) Get(ctx context.Context, id string) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	notes := []models.Note{note}
	if err := attachTags(ctx, db.conn, notes); err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return &notes[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (models.Note, error) {
	var (
		n         models.Note
		color     sql.NullString
		pinned    string
		created   string
		updated   string
		deletedAt sql.NullString
	)
	if err := r.Scan(&n.ID, &n.OrderID, &n.Title, &n.Content, &color, &pinned, &created, &updated, &deletedAt); err != nil {
		return models.Note{}, err
	}
	n.Color = color.String
	n.IsPinned = pinned == "true"
	n.Tags = []models.Tag{}

	var err error
	if n.CreatedAt, err = parseTime(created); err != nil {
		return models.Note{}, fmt.Errorf("parse created_at: %w", err)
	}
	if n.UpdatedAt, err = parseTime(updated); err != nil {
		return models.Note{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return models.Note{}, fmt.Errorf("parse deleted_at: %w", err)
		}
		n.DeletedAt = &t
	}
	return n, nil
}

func collectNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// querier is satisfied by both *sql.Tx and *sql.DB.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// attachTags loads the tags for every note in place with one grouped query.
func attachTags(ctx context.Context, q querier, notes []models.Note) error {
	if len(notes) == 0 {
		return nil
	}
	idx := make(map[string]int, len(notes))
	placeholders := make([]string, len(notes))
	args := make([]any, len(notes))
	for i := range notes {
		idx[notes[i].ID] = i
		placeholders[i] = "?"
		args[i] = notes[i].ID
	}

	rows, err := q.QueryContext(ctx, `
		SELECT nt.note_id, t.id, t.name
		FROM note_tags nt
		JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY t.name
	`, args...)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var noteID string
		var tag models.Tag
		if err := rows.Scan(&noteID, &tag.ID, &tag.Name); err != nil {
			return err
		}
		if i, ok := idx[noteID]; ok {
			notes[i].Tags = append(notes[i].Tags, tag)
		}
	}
	return rows.Err()
}

func upsertTag(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("store: upsert tag %q: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: lookup tag %q: %w", name, err)
	}
	return id, nil
}
