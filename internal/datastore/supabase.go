package datastore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// SupabaseConfig holds Supabase project parameters.
type SupabaseConfig struct {
	URL       string
	SecretKey string
}

// Supabase pings the PostgREST endpoint of a Supabase project.
type Supabase struct {
	endpoint  string
	secretKey string
	client    *http.Client
	log       zerolog.Logger
}

// NewSupabase creates a Supabase pinger.
func NewSupabase(cfg SupabaseConfig, log zerolog.Logger) *Supabase {
	return &Supabase{
		endpoint:  strings.TrimRight(cfg.URL, "/") + "/rest/v1/",
		secretKey: cfg.SecretKey,
		client:    &http.Client{Timeout: pingTimeout},
		log:       log.With().Str("component", "datastore").Str("backend", "supabase").Logger(),
	}
}

func (s *Supabase) Name() string { return "supabase" }

// Ping issues an authenticated GET against the REST root. Server errors and
// rejected credentials count as unavailable; any other response means the
// project is reachable.
func (s *Supabase) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", s.secretKey)
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug().Err(err).Msg("ping failed")
		return fmt.Errorf("supabase: ping: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		s.log.Debug().Int("status", resp.StatusCode).Msg("credentials rejected")
		return fmt.Errorf("supabase: credentials rejected: status %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		s.log.Debug().Int("status", resp.StatusCode).Msg("server error")
		return fmt.Errorf("supabase: server error: status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (s *Supabase) Close(context.Context) error { return nil }
