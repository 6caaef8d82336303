package services_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"ecomlens/internal/config"
	apierrors "ecomlens/internal/errors"
	"ecomlens/internal/infrastructure"
	"ecomlens/internal/operations"
	"ecomlens/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeServiceFixture(t *testing.T, dir string) {
	t.Helper()

	files := map[string]string{
		"orders.csv": "order_id,customer_id,order_status,order_purchase_timestamp,order_delivered_customer_date\n" +
			"o1,c1,delivered,2018-01-01 10:00:00,2018-01-09 10:00:00\n" +
			"o2,c2,delivered,2018-01-02 11:30:00,2018-01-12 11:30:00\n" +
			"o3,c1,delivered,2018-01-03 09:15:00,2018-01-13 09:15:00\n",
		"customers.csv": "customer_id,customer_unique_id,customer_state\n" +
			"c1,u1,SP\nc2,u2,RJ\n",
		"order_items.csv": "order_id,product_id,price,freight_value\n" +
			"o1,p1,50.00,10.00\no2,p2,80.00,15.00\no3,p1,120.00,22.00\n",
		"order_payments.csv": "order_id,payment_type,payment_installments,payment_value\n" +
			"o1,credit_card,2,60.00\no2,boleto,1,95.00\no3,credit_card,4,142.00\n",
		"order_reviews.csv": "review_id,order_id,review_score,review_comment_message\n" +
			"r1,o1,5,great product\nr2,o2,4,\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func serviceFixture(t *testing.T) (*config.Paths, *config.Config) {
	t.Helper()

	root := t.TempDir()
	paths := &config.Paths{
		DataDir:   filepath.Join(root, "data"),
		OutputDir: filepath.Join(root, "out"),
		LogsDir:   filepath.Join(root, "logs"),
	}
	require.NoError(t, os.MkdirAll(paths.DataDir, 0o755))
	require.NoError(t, paths.EnsureDirectories())
	writeServiceFixture(t, paths.DataDir)

	cfg := config.WithDefaults()
	cfg.Analysis.AnalysisDate = "2018-02-01"
	return paths, cfg
}

func TestRunService_FullRunRecordsMetrics(t *testing.T) {
	paths, cfg := serviceFixture(t)
	cfg.Checkpoint.Enabled = false

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := infrastructure.CreatePipelineMetrics(meter)
	require.NoError(t, err)

	svc, err := services.NewRunService(paths, cfg, nil, metrics, quietLogger())
	require.NoError(t, err)

	id, err := svc.StartRun(operations.OperationRequest{Format: "markdown"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		summary, err := svc.Status(id)
		return err == nil && summary.Status == operations.OperationStatusCompleted
	}, 30*time.Second, 100*time.Millisecond)

	summary, err := svc.Status(id)
	require.NoError(t, err)
	assert.FileExists(t, summary.ReportPath)
	assert.Len(t, summary.Checkpoints, 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["pipeline_runs_total"])
	assert.True(t, names["pipeline_stages_total"])
	assert.True(t, names["pipeline_run_duration_seconds"])
	// Counters fed from the run context: findings and hypotheses.
	assert.True(t, names["pipeline_findings_total"])
	assert.True(t, names["pipeline_hypotheses_total"])
}

func TestRunService_SingleActiveRun(t *testing.T) {
	paths, cfg := serviceFixture(t)
	cfg.Checkpoint.Enabled = true
	cfg.Checkpoint.Timeout = 10 * time.Second

	svc, err := services.NewRunService(paths, cfg, nil, nil, quietLogger())
	require.NoError(t, err)

	id, err := svc.StartRun(operations.OperationRequest{ID: "run-1"})
	require.NoError(t, err)

	// Wait for the first checkpoint, then a concurrent start must be refused.
	require.Eventually(t, func() bool {
		summary, err := svc.Status(id)
		return err == nil && summary.WaitingStage != ""
	}, 10*time.Second, 50*time.Millisecond)

	_, err = svc.StartRun(operations.OperationRequest{ID: "run-2"})
	assert.ErrorIs(t, err, apierrors.ErrRunActive)

	// Accept the three checkpoints so the run can finish.
	for i := 0; i < 3; i++ {
		require.Eventually(t, func() bool {
			summary, err := svc.Status(id)
			if err != nil || summary.Status != operations.OperationStatusRunning {
				return true
			}
			if summary.WaitingStage == "" {
				return false
			}
			return svc.SubmitDecision(id, operations.Decision{Action: operations.ActionAccept, Explicit: true}) == nil
		}, 10*time.Second, 50*time.Millisecond)
	}

	require.Eventually(t, func() bool {
		summary, err := svc.Status(id)
		return err == nil && summary.Status == operations.OperationStatusCompleted
	}, 30*time.Second, 100*time.Millisecond)

	// Explicit decisions must not be reported as pending.
	summary, err := svc.Status(id)
	require.NoError(t, err)
	for _, cp := range summary.Checkpoints {
		assert.True(t, cp.Explicit, cp.Stage)
	}
}

func TestRunService_SubmitDecisionGuards(t *testing.T) {
	paths, cfg := serviceFixture(t)
	cfg.Checkpoint.Enabled = false

	svc, err := services.NewRunService(paths, cfg, nil, nil, quietLogger())
	require.NoError(t, err)

	err = svc.SubmitDecision("no-such-run", operations.Decision{Action: operations.ActionAccept})
	assert.ErrorIs(t, err, apierrors.ErrRunNotFound)

	id, err := svc.StartRun(operations.OperationRequest{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		summary, err := svc.Status(id)
		return err == nil && summary.Status == operations.OperationStatusCompleted
	}, 30*time.Second, 100*time.Millisecond)

	// Finished run has no checkpoint waiting.
	err = svc.SubmitDecision(id, operations.Decision{Action: operations.ActionAccept})
	assert.ErrorIs(t, err, apierrors.ErrNoCheckpoint)
}

func TestRunService_ListIncludesFinishedRuns(t *testing.T) {
	paths, cfg := serviceFixture(t)
	cfg.Checkpoint.Enabled = false

	svc, err := services.NewRunService(paths, cfg, nil, nil, quietLogger())
	require.NoError(t, err)

	id, err := svc.StartRun(operations.OperationRequest{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		summary, err := svc.Status(id)
		return err == nil && summary.Status == operations.OperationStatusCompleted
	}, 30*time.Second, 100*time.Millisecond)

	runs := svc.List()
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, operations.OperationStatusCompleted, runs[0].Status)
}
