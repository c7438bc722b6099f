package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"startask/internal/api/middleware"
)

// RouterDeps carries the handlers and middleware the router wires together.
type RouterDeps struct {
	Status    *StatusHandler
	Reviews   *ReviewHandler
	Scheduler *SchedulerHandler
	Auth      *middleware.AuthMiddleware
	Logger    *slog.Logger
}

// NewRouter builds the HTTP router. Everything under /api requires a valid
// operator token; only /health is public.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Get("/status", deps.Status.GetStatus)

		r.Post("/scheduler/start", deps.Scheduler.Start)
		r.Post("/scheduler/stop", deps.Scheduler.Stop)
		r.Post("/trigger", deps.Scheduler.Trigger)

		r.Get("/reviews", deps.Reviews.ListPending)
		r.Post("/reviews/{id}/complete", deps.Reviews.Complete)
		r.Post("/reviews/{id}/skip", deps.Reviews.Skip)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
