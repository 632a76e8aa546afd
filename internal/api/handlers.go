package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jera/internal/apperr"
	"github.com/starford/jera/internal/models"
	"github.com/starford/jera/internal/store"
)

// Refresher wakes the reminder scheduler for an immediate evaluation.
type Refresher interface {
	Refresh()
}

// ChangePublisher fans database change events out to stream subscribers.
type ChangePublisher interface {
	PublishChange(kind, id string)
}

// Handler holds API route handlers.
type Handler struct {
	store   *store.Store
	sched   Refresher
	events  ChangePublisher
	version string
	snooze  time.Duration
}

// NewHandler creates a new Handler. sched and events may be nil.
func NewHandler(st *store.Store, sched Refresher, events ChangePublisher, version string, snooze time.Duration) *Handler {
	if snooze <= 0 {
		snooze = time.Hour
	}
	return &Handler{store: st, sched: sched, events: events, version: version, snooze: snooze}
}

// mutated signals the scheduler and stream subscribers after a
// successful mutating operation.
func (h *Handler) mutated(kind, id string) {
	if h.sched != nil {
		h.sched.Refresh()
	}
	if h.events != nil {
		h.events.PublishChange(kind, id)
	}
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetSnapshot handles GET /api/snapshot.
func (h *Handler) GetSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// GetSystemPaths handles GET /api/system/paths.
func (h *Handler) GetSystemPaths(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Paths())
}

// CreateCategory handles POST /api/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload models.CategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := payload.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	category, err := h.store.CreateCategory(payload)
	if err != nil {
		writeError(w, "create category", err)
		return
	}
	h.mutated("category.created", category.ID)
	writeJSON(w, http.StatusCreated, category)
}

// DeleteCategory handles DELETE /api/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteCategory(id); err != nil {
		writeError(w, "delete category", err)
		return
	}
	h.mutated("category.deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// CreateTopic handles POST /api/topics.
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.TopicPayload.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	topic, err := h.store.CreateTopic(req.ID, req.TopicPayload)
	if err != nil {
		writeError(w, "create topic", err)
		return
	}
	h.mutated("topic.created", topic.ID)
	writeJSON(w, http.StatusCreated, topic)
}

// UpdateTopic handles PUT /api/topics/{id}.
func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload models.TopicPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := payload.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	topic, err := h.store.UpdateTopic(id, payload)
	if err != nil {
		writeError(w, "update topic", err)
		return
	}
	h.mutated("topic.updated", id)
	writeJSON(w, http.StatusOK, topic)
}

// DeleteTopic handles DELETE /api/topics/{id}.
func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteTopic(id); err != nil {
		writeError(w, "delete topic", err)
		return
	}
	h.mutated("topic.deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// DueTopics handles GET /api/topics/due.
func (h *Handler) DueTopics(w http.ResponseWriter, _ *http.Request) {
	due, err := h.store.DueTopics()
	if err != nil {
		writeError(w, "due topics", err)
		return
	}
	if due == nil {
		due = []models.Topic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": due})
}

// MarkReviewed handles POST /api/topics/{id}/review.
func (h *Handler) MarkReviewed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	topic, err := h.store.MarkReviewed(id)
	if err != nil {
		writeError(w, "mark reviewed", err)
		return
	}
	h.mutated("topic.reviewed", id)
	writeJSON(w, http.StatusOK, topic)
}

// Snooze handles POST /api/topics/{id}/snooze. The snooze duration is
// the configured default.
func (h *Handler) Snooze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Snooze(id, h.snooze); err != nil {
		writeError(w, "snooze", err)
		return
	}
	h.mutated("topic.snoozed", id)
	w.WriteHeader(http.StatusNoContent)
}

// ClearSnooze handles DELETE /api/topics/{id}/snooze.
func (h *Handler) ClearSnooze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.ClearSnooze(id); err != nil {
		writeError(w, "clear snooze", err)
		return
	}
	h.mutated("topic.unsnoozed", id)
	w.WriteHeader(http.StatusNoContent)
}

// SchedulerRefresh handles POST /api/scheduler/refresh.
func (h *Handler) SchedulerRefresh(w http.ResponseWriter, _ *http.Request) {
	if h.sched != nil {
		h.sched.Refresh()
	}
	w.WriteHeader(http.StatusNoContent)
}

// BackupNow handles POST /api/backups.
func (h *Handler) BackupNow(w http.ResponseWriter, _ *http.Request) {
	path, err := h.store.BackupNow()
	if err != nil {
		writeError(w, "backup", err)
		return
	}
	writeJSON(w, http.StatusCreated, PathResponse{Path: path})
}

// Export handles POST /api/export.
func (h *Handler) Export(w http.ResponseWriter, _ *http.Request) {
	path, err := h.store.Export(h.version)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusCreated, PathResponse{Path: path})
}

// Import handles POST /api/import. The body names either a file path or
// raw export content; the imported snapshot replaces the entire state.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var (
		snapshot models.Snapshot
		err      error
	)
	switch {
	case req.Path != "":
		snapshot, err = h.store.ImportFile(req.Path)
	case req.Content != "":
		snapshot, err = h.store.ImportRaw([]byte(req.Content))
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("path or content is required"))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.mutated("db.imported", "")
	writeJSON(w, http.StatusOK, snapshot)
}
