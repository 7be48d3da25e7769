package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sungwon/mail-relay/internal/api"
	"github.com/sungwon/mail-relay/internal/config"
	"github.com/sungwon/mail-relay/internal/datastore"
	"github.com/sungwon/mail-relay/internal/logger"
	"github.com/sungwon/mail-relay/internal/mailer"
	"github.com/sungwon/mail-relay/internal/validator"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, ".env", os.Stdout, os.Stderr))
}

// run starts the relay and blocks until ctx is cancelled. It returns the
// process exit code.
func run(ctx context.Context, envFile string, stdout, stderr io.Writer) int {
	// Load and validate configuration
	cfg, err := config.Load(envFile)
	if err != nil {
		config.Report(stderr, err)
		return 1
	}

	log, logCloser := logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}, stdout)
	defer logCloser.Close()

	log.Info().Msg("environment loaded and validated")
	if !cfg.IsProd {
		log.Info().Interface("config", cfg).Msg("configuration")
	}

	sender := mailer.New(mailer.Config{
		SenderEmail:    cfg.SenderEmail,
		SenderPassword: cfg.SenderPassword,
		Host:           cfg.SMTPServer,
		Port:           cfg.SMTPPort,
	}, log)

	store, err := datastore.New(cfg, log)
	if err != nil {
		log.Warn().Err(err).Str("database_type", cfg.DatabaseType).Msg("database client unavailable")
		store = datastore.Unavailable(cfg.DatabaseType, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close database client")
		}
	}()

	v, err := validator.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to create request validator")
		return 1
	}

	router := api.NewRouter(api.RouterConfig{
		Sender:    sender,
		Validator: v,
		Datastore: store,
		Log:       log,
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("failed to listen")
		return 1
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	log.Info().Int("port", cfg.ServerPort).Msg("server listening")
	if cfg.IsProd {
		log.Info().Str("url", fmt.Sprintf("http://localhost:%d", cfg.ServerPort)).Msg("server reachable")
	}

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
	return 0
}
