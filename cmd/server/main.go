package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"siteqr/internal/api"
	"siteqr/internal/config"
	"siteqr/internal/crypto"
	"siteqr/internal/files"
	"siteqr/internal/metrics"
	"siteqr/internal/utils"
	"siteqr/internal/validator"
)

func main() {
	configPath := pflag.String("config", "", "config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server terminated", "error", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Info("server stopped cleanly")
}

func serve(ctx context.Context, cfg config.Config, logger *utils.Logger) error {
	secret, err := files.ReadSecret(cfg)
	if err != nil {
		return err
	}
	engine, err := crypto.NewEngine(secret)
	if err != nil {
		return err
	}

	pc := metrics.NewPrometheusCollector("siteqr")
	v := validator.New(engine,
		validator.WithMetrics(pc),
		validator.WithLogger(logger.Slog()),
	)
	h := api.NewHandlers(v, api.Config{
		MaxTokenLength: cfg.MaxTokenLength,
		Workers:        cfg.Workers,
		Metrics:        pc,
		Logger:         logger.Slog(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           api.NewRouter(h, pc.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "key_id", engine.KeyID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
