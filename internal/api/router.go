package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jera/internal/store"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(st *store.Store, sched Refresher, events ChangePublisher, version string, snooze time.Duration, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(st, sched, events, version, snooze)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Full database snapshot.
	r.Get("/snapshot", h.GetSnapshot)

	// Categories.
	r.Post("/categories", h.CreateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)

	// Topics and the review lifecycle.
	r.Post("/topics", h.CreateTopic)
	r.Get("/topics/due", h.DueTopics)
	r.Put("/topics/{id}", h.UpdateTopic)
	r.Delete("/topics/{id}", h.DeleteTopic)
	r.Post("/topics/{id}/review", h.MarkReviewed)
	r.Post("/topics/{id}/snooze", h.Snooze)
	r.Delete("/topics/{id}/snooze", h.ClearSnooze)

	// Scheduler.
	r.Post("/scheduler/refresh", h.SchedulerRefresh)

	// Backups and interchange.
	r.Post("/backups", h.BackupNow)
	r.Post("/export", h.Export)
	r.Post("/import", h.Import)

	// System.
	r.Get("/system/paths", h.GetSystemPaths)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
