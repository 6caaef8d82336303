package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"ecomlens/internal/config"
	"ecomlens/internal/infrastructure"
	"ecomlens/internal/services"
	transport "ecomlens/internal/transport/http"
	"ecomlens/internal/websocket"
	"ecomlens/pkg/contracts"
)

// Application owns the wired-up web server and its dependencies.
type Application struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	hub       *websocket.Hub
	server    *http.Server
	providers *infrastructure.OTelProviders
}

// New loads configuration, initializes logging and wires every component.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths := cfg.Paths.Resolve()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	var metrics *infrastructure.PipelineMetrics
	if providers.Meter != nil {
		metrics, err = infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
	}

	hub := websocket.NewHub(logger)

	runService, err := services.NewRunService(paths, cfg, hub, metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build run service: %w", err)
	}
	healthService := services.NewHealthService(paths, logger)

	router := transport.NewRouter(transport.RouterDeps{
		Runs:    transport.NewRunHandler(runService, logger),
		Health:  transport.NewHealthHandler(healthService, logger),
		WS:      transport.NewWSHandler(hub, cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, logger),
		Logger:  logger,
		RateRPS: 20,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		cfg:       cfg,
		paths:     paths,
		logger:    logger,
		hub:       hub,
		server:    server,
		providers: providers,
	}, nil
}

// Run starts the hub and the HTTP server, blocking until the context is
// cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	a.hub.Start()
	defer a.hub.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("version", contracts.GetFullVersionString()),
			slog.String("data_dir", a.paths.DataDir))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down server")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := a.providers.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}
	infrastructure.CloseLogFile()
	return nil
}
