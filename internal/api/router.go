package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vmoreira/plume/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Named note operations.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/deleted", h.ListDeletedNotes)
	r.Post("/notes", h.CreateNote)
	r.Patch("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/restore", h.RestoreNote)

	// Markdown export.
	r.Post("/export", h.ExportNotes)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
