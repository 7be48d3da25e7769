// Package datastore probes the database backend selected by DATABASE_TYPE.
// It backs the readiness endpoint only; the mail path never touches it.
package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sungwon/mail-relay/internal/config"
	"github.com/sungwon/mail-relay/internal/metrics"
)

const pingTimeout = 5 * time.Second

// Pinger checks that a database backend is reachable.
type Pinger interface {
	// Name returns the backend identifier ("mongodb" or "supabase").
	Name() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// New builds the Pinger for cfg.DatabaseType. No network round trip happens
// until Ping is called.
func New(cfg *config.Config, log zerolog.Logger) (Pinger, error) {
	switch cfg.DatabaseType {
	case config.DatabaseMongo:
		return NewMongo(MongoConfig{
			URI:      cfg.MongoURI,
			User:     cfg.MongoDBUser,
			Password: cfg.MongoDBPassword,
			Database: cfg.MongoDBName,
		}, log)
	case config.DatabaseSupabase:
		return NewSupabase(SupabaseConfig{
			URL:       cfg.SupabaseURL,
			SecretKey: cfg.SupabaseSecretKey,
		}, log), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}
}

// Check pings p with a bounded timeout and records the outcome.
func Check(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		metrics.DatastorePingTotal.WithLabelValues(p.Name(), metrics.ResultFailure).Inc()
		return err
	}
	metrics.DatastorePingTotal.WithLabelValues(p.Name(), metrics.ResultSuccess).Inc()
	return nil
}

// Unavailable returns a Pinger that always fails with err. It stands in for
// a backend whose client could not be constructed, so the service can still
// serve mail while reporting not-ready.
func Unavailable(name string, err error) Pinger {
	return unavailable{name: name, err: err}
}

type unavailable struct {
	name string
	err  error
}

func (u unavailable) Name() string                { return u.name }
func (u unavailable) Ping(context.Context) error  { return u.err }
func (u unavailable) Close(context.Context) error { return nil }
