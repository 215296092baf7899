package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vmoreira/plume/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// parseListQuery reads page/limit (with defaults) and the optional pinned
// filter from the request.
func parseListQuery(r *http.Request, deleted bool) (ListQuery, error) {
	q := r.URL.Query()
	query := ListQuery{Page: 1, Limit: 10, IsDeleted: deleted}
	if v := q.Get("page"); v != "" {
		query.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		query.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("pinned"); v != "" {
		pinned, err := strconv.ParseBool(v)
		if err != nil {
			return query, err
		}
		query.IsPinned = &pinned
	}
	return query, query.Validate()
}

// ListNotes handles GET /api/notes: live notes, newest first, with the
// optional pinned filter.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListDeletedNotes handles GET /api/notes/deleted: the trash, most recently
// deleted first.
func (h *Handler) ListDeletedNotes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, deleted bool) {
	query, err := parseListQuery(r, deleted)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.ListNotes(r.Context(), query.Params())
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: res.Notes, Total: res.Total})
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Draft())
	if err != nil {
		slog.Error("create note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PATCH /api/notes/{id}. An unknown id is a 404: the
// repository reports it as an empty result, not an error.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), id, req.Update())
	if err != nil {
		slog.Error("update note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}: a soft delete, idempotent.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.SoftDeleteNote(r.Context(), id); err != nil {
		slog.Error("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreNote handles POST /api/notes/{id}/restore, idempotent.
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.RestoreNote(r.Context(), id); err != nil {
		slog.Error("restore note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportNotes handles POST /api/export: writes every live note to the export
// directory as markdown.
func (h *Handler) ExportNotes(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ExportNotes(r.Context())
	if err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ExportResponse{Exported: n})
}
