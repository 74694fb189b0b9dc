package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dealwatch/backend/internal/app"
	"github.com/dealwatch/backend/internal/config"
	"github.com/dealwatch/backend/internal/logger"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	log := logger.Setup(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := a.Scheduler.Start(); err != nil {
		log.Error("Failed to start scheduler", slog.String("error", err.Error()))
		closeApp(a, log)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down server...")

		// Stop scheduler first and let a running cycle finish
		stopCtx := a.Scheduler.Stop()
		select {
		case <-stopCtx.Done():
			log.Info("Scheduler stopped")
		case <-time.After(cfg.Tracker.Timeout):
			log.Warn("Timed out waiting for polling cycle")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Info("Server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", slog.String("error", err.Error()))
		<-a.Scheduler.Stop().Done()
		drainTracker(a, cfg.Tracker.Timeout, log)
		closeApp(a, log)
		os.Exit(1)
	}
	<-done

	// Startup and manually triggered cycles run outside the scheduler
	drainTracker(a, cfg.Tracker.Timeout, log)
	closeApp(a, log)
}

func drainTracker(a *app.App, timeout time.Duration, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.Tracker.Shutdown(ctx); err != nil {
		log.Warn("Timed out waiting for in-flight polling cycles", slog.String("error", err.Error()))
	}
}

func closeApp(a *app.App, log *slog.Logger) {
	if err := a.Close(); err != nil {
		log.Error("Failed to release resources", slog.String("error", err.Error()))
	}
}
