package services

import (
	"context"
	"log/slog"
	"os"
	"time"

	"ecomlens/internal/config"
	"ecomlens/pkg/contracts"
)

// HealthStatus is the response body of the health endpoints.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthService reports process and data directory health.
type HealthService struct {
	paths     *config.Paths
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthService creates a health service.
func NewHealthService(paths *config.Paths, logger *slog.Logger) *HealthService {
	return &HealthService{
		paths:     paths,
		logger:    logger.With(slog.String("service", "health")),
		startTime: time.Now(),
	}
}

// HealthCheck handles the full health probe.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	checks := map[string]string{
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	}

	status := "healthy"
	if _, err := os.Stat(s.paths.DataDir); err != nil {
		checks["data_dir"] = err.Error()
		status = "degraded"
	} else {
		checks["data_dir"] = "ok"
	}
	if _, err := os.Stat(s.paths.OutputDir); err != nil {
		checks["output_dir"] = err.Error()
		status = "degraded"
	} else {
		checks["output_dir"] = "ok"
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// ReadinessCheck reports whether the service can accept a run.
func (s *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	if _, err := os.Stat(s.paths.DataDir); err != nil {
		return HealthStatus{Status: "not_ready", Timestamp: time.Now()}
	}
	return HealthStatus{Status: "ready", Timestamp: time.Now()}
}

// LivenessCheck reports that the process is alive.
func (s *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{Status: "alive", Timestamp: time.Now()}
}

// VersionInfo returns the build version.
func (s *HealthService) VersionInfo() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}
