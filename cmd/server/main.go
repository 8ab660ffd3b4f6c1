// Package main is the entry point for the Costpilot dashboard. It loads
// configuration, opens the token store, builds the workspace registry and
// starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/app"
	"github.com/keyxmakerx/costpilot/internal/config"
	"github.com/keyxmakerx/costpilot/internal/metrics"
	"github.com/keyxmakerx/costpilot/internal/tokenstore"
	"github.com/keyxmakerx/costpilot/internal/workspace"
)

// sweepInterval is how often idle workspaces are looked for.
const sweepInterval = time.Minute

func main() {
	_ = godotenv.Load() // a missing .env is fine

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	setupLogging(cfg)

	// --- Token store ---
	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open token store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// --- Workspaces ---
	// One transport for every workspace so connections to the API and the
	// identity provider are pooled.
	httpClient := &http.Client{Transport: http.DefaultTransport}

	builder := &workspace.Builder{
		Store:       store,
		NewProvider: workspace.GoTrueFactory(cfg.Identity, httpClient, collector),
		Config:      cfg,
		Recorder:    collector,
		HTTPClient:  httpClient,
	}
	registry := workspace.NewRegistry(builder, workspace.RegistryOptions{
		IdleTTL: cfg.Auth.WorkspaceIdleTTL,
		Gauge:   collector,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		registry.Run(ctx, sweepInterval)
	}()

	// Readiness uses its own tokenless client.
	probe := apiclient.New(apiclient.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		HTTPClient: httpClient,
	})

	// --- Create Application ---
	application := app.New(cfg, registry, probe, reg)
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}

	stop()
	<-sweepDone
}

// openStore picks the durable token store. Without REDIS_URL (development
// only, config.Load rejects it in production) tokens live in memory and a
// restart signs everyone out.
func openStore(cfg *config.Config) (tokenstore.Store, func(), error) {
	if cfg.Redis.URL == "" {
		slog.Warn("REDIS_URL not set, using in-memory token store")
		return tokenstore.NewMemoryStore(), func() {}, nil
	}

	sealer, err := tokenstore.NewSealer(cfg.Auth.SecretKey)
	if err != nil {
		return nil, nil, err
	}
	client, err := tokenstore.Connect(cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("connected to Redis")

	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("closing redis", slog.Any("error", err))
		}
	}
	return tokenstore.NewRedisStore(client, sealer, cfg.Auth.SessionTTL), closeFn, nil
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
