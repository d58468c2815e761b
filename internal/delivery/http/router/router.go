package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/product-image-scraper/internal/delivery/http/handler"
	"github.com/user/product-image-scraper/internal/delivery/http/middleware"
	"github.com/user/product-image-scraper/pkg/metrics"
	"go.uber.org/zap"
)

// New builds the API router. gatherer serves /metrics and should be the
// registry the metrics were registered with.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api/runs", func(r chi.Router) {
		r.Post("/", h.HandleSubmitRun)
		r.Get("/{id}", h.HandleGetRun)
	})

	return r
}
