package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"masseutsendelse/internal/platform/middleware"
	"masseutsendelse/internal/platform/tracing"
	"masseutsendelse/pkg/platform/httputil"
	"masseutsendelse/pkg/platform/middleware/metadata"
	"masseutsendelse/pkg/platform/middleware/requesttime"
)

// registrar is implemented by every HTTP handler package.
type registrar interface {
	Register(r chi.Router)
}

func newRouter(log *slog.Logger, tracer trace.Tracer, reg *prometheus.Registry, handlers ...registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(tracing.Middleware(tracer))
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recover(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
