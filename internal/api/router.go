package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sungwon/mail-relay/internal/datastore"
	"github.com/sungwon/mail-relay/internal/mailer"
	"github.com/sungwon/mail-relay/internal/validator"
)

// RouterConfig holds the dependencies of the HTTP surface.
type RouterConfig struct {
	Sender    mailer.Sender
	Validator *validator.Validator
	Datastore datastore.Pinger
	Log       zerolog.Logger
}

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(MetricsMiddleware)
	r.Use(RecoverMiddleware(cfg.Log))

	r.Get("/", RootHandler())

	// Health endpoints
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(cfg.Datastore))
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/emails/send-emails", SendEmailHandler(cfg.Sender, cfg.Validator))

	return r
}
