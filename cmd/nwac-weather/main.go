package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	httpapi "github.com/i474232898/nwac-weather/internal/api/http"
	"github.com/i474232898/nwac-weather/internal/config"
	"github.com/i474232898/nwac-weather/internal/dashboard"
	"github.com/i474232898/nwac-weather/internal/logging"
	"github.com/i474232898/nwac-weather/internal/metrics"
	"github.com/i474232898/nwac-weather/internal/scheduler"
	"github.com/i474232898/nwac-weather/internal/store"
	"github.com/i474232898/nwac-weather/internal/weather/providers"
)

const appName = "nwac-weather"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg, appName))

	metrics.Register(prometheus.DefaultRegisterer)

	// Shared HTTP client for outbound NWAC calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Timeseries payloads are memoized for the process lifetime.
	cache := store.NewMemoryCache()

	provider := providers.NewNWACProvider(httpClient, providers.NWACConfig{
		WebBaseURL:      cfg.WebBaseURL,
		APIBaseURL:      cfg.APIBaseURL,
		ReferenceSite:   cfg.ReferenceSite,
		Source:          cfg.Source,
		FloorResolution: cfg.FloorResolution,
	}, cache)

	service := dashboard.NewService(provider)

	// Scheduler that keeps the configured sites warm.
	sched := scheduler.New(cfg.WarmSites, cfg.DefaultSpan, cfg.WarmInterval, service)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * cfg.HTTPTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	httpapi.RegisterRoutes(app, service, httpapi.Options{DefaultSpan: cfg.DefaultSpan})

	go func() {
		slog.Info("listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "err", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "err", err)
	}
}
