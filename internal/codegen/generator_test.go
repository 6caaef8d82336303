package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/pkg/contracts/domain"
)

func sampleHypotheses() []domain.Hypothesis {
	return []domain.Hypothesis{
		{
			ID:              "HYP_001",
			Category:        domain.CategoryCorrelation,
			FindingID:       "FND_001",
			Title:           "Product Price and Shipping Cost Relationship",
			Statement:       "There is a positive correlation (r=0.414) between product price and freight value.",
			TestMethod:      "Pearson correlation test, linear regression analysis",
			ExpectedOutcome: "Significant correlation between price and freight",
			Priority:        4,
			Tables:          []string{"orders", "order_items"},
		},
		{
			ID:         "HYP_002",
			Category:   domain.CategoryLogistics,
			FindingID:  "FND_002",
			Title:      "Delivery Time Consistency",
			Statement:  "Average delivery time is 12.1 days with significant variation across regions.",
			TestMethod: "Descriptive statistics, regional comparison analysis",
			Priority:   1,
			Tables:     []string{"orders"},
		},
	}
}

func TestGenerator_WritesScriptPerHypothesisPlusRunner(t *testing.T) {
	dir := t.TempDir()
	paths, issues := NewGenerator(dir, "data_storage", nil).Generate(sampleHypotheses())

	require.Empty(t, issues)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "validate_hyp_001.py"), paths[0])
	assert.Equal(t, filepath.Join(dir, "validate_hyp_002.py"), paths[1])
	assert.Equal(t, filepath.Join(dir, "run_all_validations.py"), paths[2])

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	script := string(content)
	assert.Contains(t, script, "HYP_001")
	assert.Contains(t, script, "0.414")
	assert.Contains(t, script, "Pearson correlation test")
	assert.Contains(t, script, `"orders.csv", "order_items.csv"`)
	assert.Contains(t, script, `DATA_DIR = "data_storage"`)

	runner, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Contains(t, string(runner), "validate_hyp_001.py")
	assert.Contains(t, string(runner), "validate_hyp_002.py")
}

func TestGenerator_Deterministic(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	pathsA, _ := NewGenerator(dirA, "data_storage", nil).Generate(sampleHypotheses())
	pathsB, _ := NewGenerator(dirB, "data_storage", nil).Generate(sampleHypotheses())
	require.Len(t, pathsA, len(pathsB))

	for i := range pathsA {
		a, err := os.ReadFile(pathsA[i])
		require.NoError(t, err)
		b, err := os.ReadFile(pathsB[i])
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestGenerator_NoHypotheses(t *testing.T) {
	paths, issues := NewGenerator(t.TempDir(), "data_storage", nil).Generate(nil)
	assert.Empty(t, paths)
	assert.Empty(t, issues)
}

func TestScriptName(t *testing.T) {
	assert.Equal(t, "validate_hyp_014.py", ScriptName("HYP_014"))
}
