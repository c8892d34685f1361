package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/bootui/internal/config"
	"github.com/phrazzld/bootui/internal/helper"
	"github.com/phrazzld/bootui/internal/platform/logger"
	"github.com/phrazzld/bootui/internal/service/auth"
	"github.com/phrazzld/bootui/internal/settings"
	"github.com/phrazzld/bootui/internal/version"
	"github.com/phrazzld/bootui/internal/worker"
)

// workerSubject is the token subject the worker presents to the helper.
const workerSubject = "bootui-worker"

// application holds the dependencies shared by every command.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	jwtService auth.JWTService
	build      *version.Version
}

// newApplication loads configuration and sets up logging and token signing.
func newApplication(path string) (*application, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	build, err := version.Parse(cfg.App.Build)
	if err != nil {
		return nil, fmt.Errorf("invalid app.build: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Helper.Secret, cfg.Helper.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	log.Debug("configuration loaded",
		"build", build.String(),
		"helper_url", cfg.Helper.URL,
		"settings_driver", cfg.Settings.Driver,
		"worker_count", cfg.Worker.Count)

	return &application{
		config:     cfg,
		logger:     log,
		jwtService: jwtService,
		build:      build,
	}, nil
}

// newWorker creates a worker talking to the configured helper. The caller
// runs and stops it.
func (app *application) newWorker() *worker.Worker {
	client := helper.NewHTTPClient(app.config.Helper, app.jwtService, workerSubject, app.logger)
	return worker.New(worker.Config{
		Count:     app.config.Worker.Count,
		QueueSize: app.config.Worker.QueueSize,
		Build:     app.build,
	}, client, app.logger)
}

func (app *application) openSettings(ctx context.Context) (settings.Store, error) {
	store, err := settings.Open(ctx, app.config.Settings, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return store, nil
}
