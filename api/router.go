package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"compendium/catalog-relay/config"
	"compendium/catalog-relay/logger"
	"compendium/catalog-relay/metrics"
)

// UnmatchedRoute labels requests that matched no route, keeping the metric
// series bounded.
const UnmatchedRoute = "unmatched"

// NewRouter wires the REST resources under the configured prefix, plus the
// health and metrics endpoints when they are enabled. probe and m may be nil.
func NewRouter(cfg *config.Config, h *Handler, probe http.Handler, m *metrics.Metrics, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log, m))
	r.Use(middleware.Recoverer)

	routes := func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.listDatasets)
			r.Get("/{id}", h.getDataset)
			r.Post("/{id}/tags", h.addDatasetTag)
			r.Delete("/{id}/tags/{tagId}", h.removeDatasetTag)
		})
		r.Route("/platforms", func(r chi.Router) {
			r.Get("/", h.listPlatforms)
			r.Get("/{id}", h.getPlatform)
			r.Get("/{id}/datasets", h.listPlatformDatasets)
		})
		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.listTags)
			r.Post("/", h.createTag)
			r.Get("/{id}", h.getTag)
			r.Delete("/{id}", h.deleteTag)
			r.Get("/{id}/datasets", h.listTagDatasets)
		})
	}

	if prefix := strings.TrimSuffix(cfg.Server.Prefix, "/"); prefix != "" {
		r.Route(prefix, routes)
	} else {
		r.Group(routes)
	}

	if probe != nil {
		r.Method(http.MethodGet, "/health", probe)
	}
	if m != nil && cfg.MetricsEnabled() {
		r.Method(http.MethodGet, cfg.Metrics.Path, m.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, http.StatusNotFound, "no such resource")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// accessLog stores a request scoped logger in the context, then records the
// outcome in the log and in the HTTP metrics.
func accessLog(log *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With("request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithLogger(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := UnmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			elapsed := time.Since(start)
			m.ObserveHTTP(r.Method, route, status, elapsed)
			reqLog.Info("Handled request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
			)
		})
	}
}
