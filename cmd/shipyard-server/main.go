// cmd/shipyard-server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/opd-ai/go-shipyard/pkg/config"
	"github.com/opd-ai/go-shipyard/pkg/event"
	"github.com/opd-ai/go-shipyard/pkg/health"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/metrics"
	"github.com/opd-ai/go-shipyard/pkg/service"
	"github.com/opd-ai/go-shipyard/pkg/validation"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "shipyard.yaml", "Path to configuration file (JSON or YAML)")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	cfg, found, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}
	if !found {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", *configPath,
		)
	}

	collector := metrics.NewCollector()
	comps, err := service.FromConfig(cfg, logger, collector)
	if err != nil {
		logger.Error(ctx, "Failed to set up analysis service", err)
		os.Exit(1)
	}

	comps.Events.Subscribe(event.UploadFailed, func(e event.Event) {
		if up, ok := e.(*event.UploadEvent); ok {
			logger.Warn(ctx, "Image upload failed", "error", up.Err.Error())
		}
	})

	healthChecker := health.NewHealthChecker()
	healthChecker.AddCheck(health.NewCatalogHealthCheck(comps.Catalog.Len))
	if comps.Uploader != nil {
		healthChecker.AddCheck(health.NewBreakerHealthCheck("image_upload", comps.Uploader.State))
	}
	healthChecker.AddCheck(health.NewMemoryHealthCheck(500, health.HeapAllocMB))

	limiter := validation.NewRateLimiter(cfg.Server.RequestsPerMin, cfg.Server.Burst)
	defer limiter.Close()

	api := service.NewServer(comps.Service, limiter, healthChecker, collector, service.HTTPConfig{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Defaults:     service.DefaultOptions(cfg),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info(ctx, "Starting analysis server",
			"address", cfg.Server.Addr,
			"catalog_parts", comps.Catalog.Len(),
			"upload_enabled", cfg.Upload.Enabled,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Analysis server failed", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown failed", err)
	}
}
