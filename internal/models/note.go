// Package models defines the domain types for Plume.
package models

import "time"

// Note is a persisted note, decoded to application types: the pin flag is a
// boolean (stored as text), timestamps are time values (stored as sortable
// UTC strings), and DeletedAt is nil for live notes.
type Note struct {
	ID        string     `json:"id"`
	OrderID   int64      `json:"orderId"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Color     string     `json:"color,omitempty"`
	IsPinned  bool       `json:"isPinned"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
	Tags      []Tag      `json:"tags"`
}

// Deleted reports whether the note is soft-deleted.
func (n *Note) Deleted() bool { return n.DeletedAt != nil }

// Tag is a named label attached to notes. Names are unique store-wide.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NoteDraft is the payload for creating a note. ID, order id and timestamps
// are system-assigned and must not appear here.
type NoteDraft struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Color    string   `json:"color,omitempty"`
	IsPinned bool     `json:"isPinned,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// NoteUpdate carries a partial update: nil fields are left untouched.
type NoteUpdate struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Color    *string `json:"color,omitempty"`
	IsPinned *bool   `json:"isPinned,omitempty"`
}

// Empty reports whether the update touches no fields. An empty update still
// refreshes the note's updated_at timestamp.
func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Color == nil && u.IsPinned == nil
}

// ListParams selects a page of notes. IsDeleted false (the default) lists
// live notes; true lists the trash. IsPinned, when set, additionally filters
// the live listing by pin state.
type ListParams struct {
	Page      int   `json:"page"`
	Limit     int   `json:"limit"`
	IsPinned  *bool `json:"isPinned,omitempty"`
	IsDeleted bool  `json:"isDeleted,omitempty"`
}

// Offset returns the row offset for the requested page.
func (p ListParams) Offset() int { return (p.Page - 1) * p.Limit }

// ListResult is one page of notes plus the total row count under the same
// filter predicate, read within a single transaction.
type ListResult struct {
	Notes []Note `json:"notes"`
	Total int    `json:"total"`
}
