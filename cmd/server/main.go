package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/moderation/internal/audit"
	"github.com/JonMunkholm/moderation/internal/classifier"
	"github.com/JonMunkholm/moderation/internal/config"
	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/logging"
	"github.com/JonMunkholm/moderation/internal/metrics"
	"github.com/JonMunkholm/moderation/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration", "config", cfg.String())

	// Extra profiles and category rules
	var rules []core.CategoryRule
	if cfg.Analysis.ProfilesFile != "" {
		pf, err := core.LoadProfiles(cfg.Analysis.ProfilesFile)
		if err != nil {
			slog.Error("failed to load profiles", "file", cfg.Analysis.ProfilesFile, "error", err)
			os.Exit(1)
		}
		rules = pf.Categories
		slog.Info("profiles loaded",
			"file", cfg.Analysis.ProfilesFile,
			"profiles", len(pf.Profiles),
			"categories", len(pf.Categories),
		)
	}
	if _, err := core.Lookup(cfg.Analysis.DefaultProfile); err != nil {
		slog.Error("default profile is not registered", "profile", cfg.Analysis.DefaultProfile)
		os.Exit(1)
	}
	slog.Info("profiles registered", "count", core.ProfileCount())

	handle, err := classifier.New(classifier.Options{
		Backend: cfg.Classifier.Backend,
		APIKey:  cfg.Classifier.GenAIAPIKey,
		Model:   cfg.Classifier.GenAIModel,
		Rules:   rules,
	})
	if err != nil {
		slog.Error("failed to configure classifier", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	m := metrics.New()
	limiter := core.NewAnalysisLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	m.RegisterLimiter(limiter)

	deps := web.Deps{
		Config:  cfg,
		Limiter: limiter,
		Metrics: m,
	}
	if handle != nil {
		deps.Classifier = handle
		slog.Info("classifier configured", "backend", handle.Name())
	} else {
		slog.Info("classifier disabled")
	}

	// Run journal: PostgreSQL when configured, memory otherwise
	if cfg.Database.Enabled() {
		pool, err := audit.Connect(ctx, cfg.Database.URL, audit.PoolOptions{
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		recorder := audit.NewPGRecorder(pool)
		if err := recorder.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare run journal", "error", err)
			os.Exit(1)
		}
		deps.Recorder = recorder
		deps.Database = pool
		slog.Info("run journal in database")
	} else {
		deps.Recorder = audit.NewMemory(cfg.Analysis.JournalSize)
		slog.Info("run journal in memory", "size", cfg.Analysis.JournalSize)
	}

	server := web.NewServer(deps)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for analyses to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
