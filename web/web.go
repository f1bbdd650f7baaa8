// Package web provides the JSON API over the application services.
// Authentication is delegated to a fronting identity provider which
// injects X-User-Id and X-User-Plan headers; this layer trusts them.
package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/facturo/facturo/adapters/metrics"
	"github.com/facturo/facturo/app"
)

// Handler provides the HTTP API endpoints.
type Handler struct {
	tenants     *app.TenantService
	invoices    *app.InvoiceService
	estimates   *app.EstimateService
	recurring   *app.RecurringService
	billing     *app.BillingService
	metrics     *metrics.Collector
	metricsPath string
	logger      zerolog.Logger
}

// Deps contains dependencies for the web handler.
type Deps struct {
	Tenants     *app.TenantService
	Invoices    *app.InvoiceService
	Estimates   *app.EstimateService
	Recurring   *app.RecurringService
	Billing     *app.BillingService
	Metrics     *metrics.Collector // optional
	MetricsPath string             // defaults to /metrics
	Logger      zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	path := deps.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	return &Handler{
		tenants:     deps.Tenants,
		invoices:    deps.Invoices,
		estimates:   deps.Estimates,
		recurring:   deps.Recurring,
		billing:     deps.Billing,
		metrics:     deps.Metrics,
		metricsPath: path,
		logger:      deps.Logger,
	}
}

// Router returns the API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if h.metrics != nil {
		r.Use(NewMetricsMiddleware(h.metrics, h.metricsPath))
		r.Handle(h.metricsPath, promhttp.Handler())
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", h.Health)
	r.Get("/health/live", h.Health)

	// Public document views by sharing token (no auth required)
	r.Get("/public/invoices/{token}", h.PublicInvoice)
	r.Get("/public/estimates/{token}", h.PublicEstimate)

	// Provider webhooks. Not authenticated; signature verification
	// happens inside the handlers.
	r.Post("/webhooks/stripe", h.StripeWebhook)
	r.Post("/webhooks/email", h.EmailWebhook)

	// Authenticated API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.RequireIdentity)

		r.Post("/businesses", h.BusinessCreate)
		r.Get("/businesses/me", h.BusinessGet)
		r.Put("/businesses/me", h.BusinessUpdate)

		r.Post("/clients", h.ClientCreate)
		r.Get("/clients", h.ClientList)
		r.Get("/clients/{id}", h.ClientGet)
		r.Put("/clients/{id}", h.ClientUpdate)
		r.Delete("/clients/{id}", h.ClientDelete)

		r.Post("/invoices", h.InvoiceCreate)
		r.Get("/invoices", h.InvoiceList)
		r.Get("/invoices/{id}", h.InvoiceGet)
		r.Post("/invoices/{id}/status", h.InvoiceTransition)
		r.Put("/invoices/{id}/details", h.InvoiceUpdateDetails)

		r.Post("/estimates", h.EstimateCreate)
		r.Get("/estimates", h.EstimateList)
		r.Get("/estimates/{id}", h.EstimateGet)
		r.Post("/estimates/{id}/status", h.EstimateTransition)
		r.Put("/estimates/{id}/details", h.EstimateUpdateDetails)
		r.Post("/estimates/{id}/convert", h.EstimateConvert)

		r.Post("/recurring", h.RecurringCreate)
		r.Get("/recurring", h.RecurringList)
		r.Get("/recurring/{id}", h.RecurringGet)
		r.Post("/recurring/{id}/pause", h.RecurringPause)
		r.Post("/recurring/{id}/resume", h.RecurringResume)
		r.Post("/recurring/{id}/generate", h.RecurringGenerate)

		r.Post("/billing/checkout", h.BillingCheckout)
		r.Post("/billing/portal", h.BillingPortal)
	})

	return r
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewLoggingMiddleware creates middleware that logs each request.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == metricsPath {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := statusLabel(ww.Status())
			path := normalizePath(r.URL.Path)

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// normalizePath collapses resource IDs and tokens so metric
// cardinality stays bounded.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "invoices", "estimates", "clients", "recurring":
			if parts[i] != "" {
				parts[i] = ":id"
			}
		}
	}
	return strings.Join(parts, "/")
}
