package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wrongjunior/eventboard/internal/config"
	"github.com/wrongjunior/eventboard/internal/metrics"
)

// SetupRouter настраивает маршруты через chi и возвращает http.Handler.
// feed может быть nil, тогда лента не публикуется.
func SetupRouter(cfg config.ServerConfig, interactions http.Handler, feed http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", metrics.Handler())
	r.Post(cfg.InteractionsPath, interactions.ServeHTTP)
	if feed != nil {
		r.Get(cfg.FeedPath, feed.ServeHTTP)
	}
	return r
}

// requestLogger пишет в лог и метрики итог каждого запроса.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				elapsed := time.Since(start)
				metrics.ObserveHTTPRequest(r.Method, route, status, elapsed)
				logger.Info("Request handled",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"duration", elapsed,
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
