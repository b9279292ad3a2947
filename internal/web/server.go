// Package web is the presentation layer: the occurrence map page, the JSON
// API used by the registration form, service order downloads and exports.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"urbfisc/internal/export"
	"urbfisc/internal/health"
	"urbfisc/internal/logging"
	"urbfisc/internal/metrics"
	"urbfisc/internal/report"
	"urbfisc/internal/storage"
	"urbfisc/internal/summary"
	"urbfisc/internal/telegram"
)

// Deps are the collaborators of the HTTP layer. Store and Renderer are
// required; everything else has a working default.
type Deps struct {
	Store      storage.Store
	Renderer   *report.Renderer
	Exporter   export.Exporter
	Summary    summary.Table
	Notifier   *telegram.Client     // nil disables notifications
	Dispatcher *telegram.Dispatcher // started on demand when Notifier is set
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Monitor    *health.Monitor
	Logger     *zap.Logger
	Now        func() time.Time
}

// Server holds the handlers.
type Server struct {
	store    storage.Store
	renderer *report.Renderer
	exporter export.Exporter
	summary  summary.Table
	notifier *telegram.Client
	dispatch *telegram.Dispatcher
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	monitor  *health.Monitor
	logger   *zap.Logger
	now      func() time.Time
}

// NewServer builds a Server from deps.
func NewServer(d Deps) *Server {
	s := &Server{
		store:    d.Store,
		renderer: d.Renderer,
		exporter: d.Exporter,
		summary:  d.Summary,
		notifier: d.Notifier,
		dispatch: d.Dispatcher,
		metrics:  d.Metrics,
		gatherer: d.Gatherer,
		monitor:  d.Monitor,
		logger:   logging.OrNop(d.Logger),
		now:      d.Now,
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = metrics.New(reg)
		if s.gatherer == nil {
			s.gatherer = reg
		}
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.monitor == nil {
		s.monitor = health.NewMonitor("unknown")
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.notifier.Enabled() && s.dispatch == nil {
		s.dispatch = telegram.NewDispatcher(2, notifyTimeout, s.logger)
	}
	return s
}

// Router wires every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", s.handleMapPage)
	r.Get("/health", s.monitor.Handler(s.store))
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/summary.png", s.handleSummaryImage)
	r.Post("/summary/send", s.handleSendSummary)

	r.Route("/api", func(r chi.Router) {
		r.Get("/map.geojson", s.handleGeoJSON)

		r.Route("/occurrences", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)
			r.Route("/{seq}/{year}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Patch("/status", s.handleUpdateStatus)
				r.Get("/report.pdf", s.handleReport)
			})
		})
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/"+export.BaseName+".xlsx", s.handleExportXLSX)
		r.Get("/"+export.BaseName+".csv", s.handleExportCSV)
	})

	return r
}

// requestLogger logs one line per request with zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
