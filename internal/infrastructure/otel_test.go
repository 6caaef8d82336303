package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestInitializeOTel_DisabledExporters(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &OTelConfig{
		ServiceName:    "test",
		ServiceVersion: "0.0.0",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_RejectsUnknownExporter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "jaeger"

	_, err := InitializeOTel(cfg, logger)
	assert.Error(t, err)
}

func TestCreatePipelineMetrics(t *testing.T) {
	meter := sdkmetric.NewMeterProvider().Meter("test")
	metrics, err := CreatePipelineMetrics(meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.RunsTotal)
	assert.NotNil(t, metrics.ActiveRuns)

	// Recording on a provider with no reader is a no-op but must not panic.
	metrics.RunsTotal.Add(context.Background(), 1)
}
