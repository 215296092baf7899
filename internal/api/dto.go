package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vmoreira/plume/internal/models"
)

// ListQuery carries the pagination and filter parameters of a list request.
type ListQuery struct {
	Page      int
	Limit     int
	IsPinned  *bool
	IsDeleted bool
}

// Validate validates the list query.
func (q ListQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Required, validation.Min(1)),
		validation.Field(&q.Limit, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// Params converts the query into repository list parameters.
func (q ListQuery) Params() models.ListParams {
	return models.ListParams{Page: q.Page, Limit: q.Limit, IsPinned: q.IsPinned, IsDeleted: q.IsDeleted}
}

// CreateNoteRequest is the request body for creating a note. System-assigned
// fields (id, order id, timestamps) are rejected by absence: they simply do
// not exist here.
type CreateNoteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Color    string   `json:"color,omitempty"`
	IsPinned bool     `json:"isPinned,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Validate validates the creation payload. Title may be empty (the service
// substitutes a placeholder); lengths are capped to keep payloads sane.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.RuneLength(0, 500)),
		validation.Field(&r.Color, validation.RuneLength(0, 100)),
		validation.Field(&r.Tags, validation.Each(validation.RuneLength(1, 100))),
	)
}

// Draft converts the request into a creation payload.
func (r CreateNoteRequest) Draft() models.NoteDraft {
	return models.NoteDraft{
		Title:    r.Title,
		Content:  r.Content,
		Color:    r.Color,
		IsPinned: r.IsPinned,
		Tags:     r.Tags,
	}
}

// UpdateNoteRequest is the request body for a partial update; absent fields
// are left untouched.
type UpdateNoteRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Color    *string `json:"color,omitempty"`
	IsPinned *bool   `json:"isPinned,omitempty"`
}

// Update converts the request into a partial update.
func (r UpdateNoteRequest) Update() models.NoteUpdate {
	return models.NoteUpdate{Title: r.Title, Content: r.Content, Color: r.Color, IsPinned: r.IsPinned}
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// ExportResponse reports how many files an export wrote.
type ExportResponse struct {
	Exported int `json:"exported"`
}
