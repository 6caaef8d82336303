package operations_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/internal/config"
	"ecomlens/internal/operations"
)

func writeFixtureData(t *testing.T, dir string) {
	t.Helper()

	files := map[string]string{
		"orders.csv": "order_id,customer_id,order_status,order_purchase_timestamp,order_delivered_customer_date\n" +
			"o1,c1,delivered,2018-01-01 10:00:00,2018-01-09 10:00:00\n" +
			"o2,c2,delivered,2018-01-02 11:30:00,2018-01-12 11:30:00\n" +
			"o3,c1,delivered,2018-01-03 09:15:00,2018-01-13 09:15:00\n" +
			"o4,c3,shipped,2018-01-04 14:00:00,\n",
		"customers.csv": "customer_id,customer_unique_id,customer_state\n" +
			"c1,u1,SP\nc2,u2,RJ\nc3,u3,SP\n",
		"order_items.csv": "order_id,product_id,price,freight_value\n" +
			"o1,p1,50.00,10.00\no2,p2,80.00,15.00\no3,p1,120.00,22.00\no4,p3,60.00,12.00\n",
		"order_payments.csv": "order_id,payment_type,payment_installments,payment_value\n" +
			"o1,credit_card,2,60.00\no2,boleto,1,95.00\no3,credit_card,4,142.00\no4,credit_card,1,72.00\n",
		"order_reviews.csv": "review_id,order_id,review_score,review_comment_message\n" +
			"r1,o1,5,great product\nr2,o2,4,\nr3,o3,2,arrived late and damaged packaging\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func fixturePaths(t *testing.T) *config.Paths {
	t.Helper()

	root := t.TempDir()
	paths := &config.Paths{
		DataDir:   filepath.Join(root, "data"),
		OutputDir: filepath.Join(root, "out"),
		LogsDir:   filepath.Join(root, "logs"),
	}
	require.NoError(t, os.MkdirAll(paths.DataDir, 0o755))
	require.NoError(t, paths.EnsureDirectories())
	writeFixtureData(t, paths.DataDir)
	return paths
}

func fixtureAnalysis() config.AnalysisConfig {
	return config.AnalysisConfig{
		QualityThreshold:     75,
		CorrelationThreshold: 0.3,
		IQRMultiplier:        1.5,
		AnalysisDate:         "2018-02-01",
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	paths := fixturePaths(t)

	registry := operations.NewRegistry()
	require.NoError(t, operations.RegisterStages(registry, paths, fixtureAnalysis(), quietLogger()))
	assert.Equal(t, operations.StageOrder, registry.ListIDs())

	manager := operations.NewManager(registry, quietLogger())
	resp, state, err := manager.Execute(context.Background(), operations.OperationRequest{
		ID:     "e2e-1",
		Format: "markdown",
	})
	require.NoError(t, err)
	require.Equal(t, operations.OperationStatusCompleted, resp.Status)

	for _, id := range operations.StageOrder {
		step := state.GetStage(id)
		require.NotNil(t, step, id)
		assert.Equal(t, operations.StepStatusCompleted, step.GetStatus(), id)
	}

	// Every stage leaves its record on disk.
	assert.FileExists(t, filepath.Join(paths.QualityDir(), "quality_scores.json"))
	assert.FileExists(t, filepath.Join(paths.ExplorationDir(), "exploration_profile.json"))
	assert.FileExists(t, filepath.Join(paths.HypothesisDir(), "hypotheses.json"))
	assert.FileExists(t, filepath.Join(paths.VisualizationDir(), "artifacts.json"))
	assert.FileExists(t, filepath.Join(paths.ScriptsDir(), "run_all_validations.py"))

	// The report lands where the response says it does.
	require.NotEmpty(t, resp.ReportPath)
	assert.FileExists(t, resp.ReportPath)
	assert.Equal(t, filepath.Join(paths.ReportDir(), "analysis_report.md"), resp.ReportPath)
	assert.FileExists(t, filepath.Join(paths.LogsDir, "run_e2e-1.log"))

	// The auto gate leaves all three checkpoints pending.
	require.Len(t, resp.Checkpoints, 3)
	for _, cp := range resp.Checkpoints {
		assert.Equal(t, operations.ActionAccept, cp.Action)
		assert.False(t, cp.Explicit)
	}
}

func TestPipeline_MissingDataDirFailsRun(t *testing.T) {
	root := t.TempDir()
	paths := &config.Paths{
		DataDir:   filepath.Join(root, "nowhere"),
		OutputDir: filepath.Join(root, "out"),
		LogsDir:   filepath.Join(root, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())

	registry := operations.NewRegistry()
	require.NoError(t, operations.RegisterStages(registry, paths, fixtureAnalysis(), quietLogger()))

	manager := operations.NewManager(registry, quietLogger())
	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "e2e-2"})
	require.Error(t, err)
	assert.True(t, operations.IsFatal(err))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
}

func TestPipeline_AdjustedThresholdReachesQualityStage(t *testing.T) {
	paths := fixturePaths(t)

	registry := operations.NewRegistry()
	require.NoError(t, operations.RegisterStages(registry, paths, fixtureAnalysis(), quietLogger()))

	// An impossible threshold turns the advisory on without stopping the run.
	manager := operations.NewManager(registry, quietLogger())
	resp, state, err := manager.Execute(context.Background(), operations.OperationRequest{
		ID: "e2e-3",
		Parameters: map[string]interface{}{
			operations.ConfigKeyQualityThreshold: 100.0,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)

	advisory, ok := state.GetContext("quality_advisory")
	require.True(t, ok)
	assert.Equal(t, true, advisory)
}
