package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/pkg/contracts/domain"
)

func TestCSVWriter_WriteSimpleCSV(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	err := writer.WriteSimpleCSV("scores.csv",
		[]string{"table", "aggregate"},
		[][]string{{"orders", "92.50"}, {"customers", "88.10"}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "scores.csv"))
	require.NoError(t, err)

	// BOM prefix then the header line.
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Contains(t, string(data), "table,aggregate\n")
	assert.Contains(t, string(data), "orders,92.50\n")
}

func TestCSVWriter_AppendToCSV(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	require.NoError(t, writer.WriteSimpleCSV("log.csv", []string{"id"}, [][]string{{"a"}}))
	require.NoError(t, writer.AppendToCSV("log.csv", [][]string{{"b"}}))

	data, err := os.ReadFile(filepath.Join(dir, "log.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "a\nb\n")
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"id", "value"})
	require.NoError(t, err)
	require.NoError(t, stream.WriteRecord([]string{"1", "x"}))
	require.NoError(t, stream.WriteRecord([]string{"2", "y"}))
	require.NoError(t, stream.Close())

	data, err := os.ReadFile(filepath.Join(dir, "stream.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "1,x\n2,y\n")
}

func TestCSVWriter_CreatesNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	require.NoError(t, writer.WriteSimpleCSV(filepath.Join("nested", "deep", "out.csv"),
		[]string{"a"}, [][]string{{"1"}}))
	assert.FileExists(t, filepath.Join(dir, "nested", "deep", "out.csv"))
}

func TestQualityRecords(t *testing.T) {
	records := QualityRecords([]domain.QualityScore{
		{TableName: "orders", Completeness: 99.5, Accuracy: 98, Consistency: 95, Timeliness: 90, Aggregate: 95.6},
	})

	require.Len(t, records, 1)
	assert.Equal(t, []string{"orders", "99.50", "98.00", "95.00", "90.00", "95.60", "excellent"}, records[0])
}

func TestFindingRecords(t *testing.T) {
	records := FindingRecords([]domain.Finding{
		{
			ID:          "FND_001",
			Kind:        domain.FindingKindCorrelation,
			Subject:     domain.SubjectPriceFreight,
			Tables:      []string{"order_items"},
			Columns:     []string{"price", "freight_value"},
			Statistic:   0.414,
			SampleSize:  112650,
			Description: "price correlates with freight value",
		},
	})

	require.Len(t, records, 1)
	assert.Equal(t, "FND_001", records[0][0])
	assert.Equal(t, "order_items", records[0][3])
	assert.Equal(t, "price;freight_value", records[0][4])
	assert.Equal(t, "0.41", records[0][5])
}

func TestHypothesisRecords(t *testing.T) {
	records := HypothesisRecords([]domain.Hypothesis{
		{ID: "HYP_001", Category: domain.CategoryLogistics, FindingID: "FND_003", Priority: 1,
			Statement: "Delivery time drives satisfaction", TestMethod: "Spearman correlation"},
	})

	require.Len(t, records, 1)
	assert.Equal(t, []string{"HYP_001", "logistics", "FND_003", "1", "Delivery time drives satisfaction", "Spearman correlation"}, records[0])
}
