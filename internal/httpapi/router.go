package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"stockfeed/internal/observability"
)

// NewRouter builds the API router with request ids, panic recovery and
// structured access logs.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	logger = observability.OrNop(logger)
	if h.Logger == nil {
		h.Logger = logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/products", h.Routes)
	r.Route("/api/runs", h.RunRoutes)
	return r
}
