package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/internal/config"
	"ecomlens/internal/services"
)

func TestHealthService_Healthy(t *testing.T) {
	root := t.TempDir()
	paths := &config.Paths{
		DataDir:   filepath.Join(root, "data"),
		OutputDir: filepath.Join(root, "out"),
		LogsDir:   filepath.Join(root, "logs"),
	}
	require.NoError(t, os.MkdirAll(paths.DataDir, 0o755))
	require.NoError(t, paths.EnsureDirectories())

	svc := services.NewHealthService(paths, quietLogger())
	status := svc.HealthCheck(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "ok", status.Checks["data_dir"])
	assert.Equal(t, "ok", status.Checks["output_dir"])

	assert.Equal(t, "ready", svc.ReadinessCheck(context.Background()).Status)
	assert.Equal(t, "alive", svc.LivenessCheck(context.Background()).Status)
}

func TestHealthService_DegradedWithoutDataDir(t *testing.T) {
	root := t.TempDir()
	paths := &config.Paths{
		DataDir:   filepath.Join(root, "missing"),
		OutputDir: root,
		LogsDir:   root,
	}

	svc := services.NewHealthService(paths, quietLogger())
	status := svc.HealthCheck(context.Background())
	assert.Equal(t, "degraded", status.Status)

	assert.Equal(t, "not_ready", svc.ReadinessCheck(context.Background()).Status)
	assert.NotEmpty(t, svc.VersionInfo().Version)
}
