package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/pkg/contracts/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv",
		"order_id,customer_id,order_status,order_purchase_timestamp\n"+
			"o1,c1,delivered,2018-01-05 10:00:00\n"+
			"o2,c2,delivered,2018-01-06 11:30:00\n")
	writeFile(t, dir, "customers.csv",
		"customer_id,customer_city,customer_state\n"+
			"c1,sao paulo,SP\n"+
			"c2,rio de janeiro,RJ\n")
	writeFile(t, dir, "order_items.csv",
		"order_id,product_id,price,freight_value\n"+
			"o1,p1,59.90,11.85\n"+
			"o2,p2,120.00,18.50\n")

	loader := NewLoader(dir, DefaultManifest(), nil)
	collection, issues, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, collection.Len())

	// optional files absent are silent, no required file is missing
	for _, issue := range issues {
		var missing *MissingDataError
		if errors.As(issue, &missing) {
			assert.False(t, missing.Required)
		}
	}

	orders, ok := collection.Get(TableOrders)
	require.True(t, ok)
	assert.Equal(t, 2, orders.RowCount)
	assert.Equal(t, "o2", orders.Cell(1, orders.ColumnIndex("order_id")))
}

func TestLoader_Load_MissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "order_id\no1\n")

	loader := NewLoader(dir, DefaultManifest(), nil)
	collection, issues, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, collection.Len())

	var missing []*MissingDataError
	for _, issue := range issues {
		var m *MissingDataError
		if errors.As(issue, &m) && m.Required {
			missing = append(missing, m)
		}
	}
	require.Len(t, missing, 2)
	assert.Equal(t, "customers.csv", missing[0].File)
	assert.Equal(t, "order_items.csv", missing[1].File)
}

func TestLoader_Load_RaggedRowsRetained(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv",
		"order_id,customer_id,order_status\n"+
			"o1,c1,delivered\n"+
			"o2,c2\n"+ // short row
			"o3,c3,delivered,extra\n") // long row
	writeFile(t, dir, "customers.csv", "customer_id\nc1\n")
	writeFile(t, dir, "order_items.csv", "order_id,price\no1,10.0\n")

	loader := NewLoader(dir, DefaultManifest(), nil)
	collection, _, err := loader.Load(context.Background())
	require.NoError(t, err)

	orders, ok := collection.Get(TableOrders)
	require.True(t, ok, "ragged rows must not drop the table")
	assert.Equal(t, 3, orders.RowCount)
	assert.Equal(t, "o3", orders.Cell(2, orders.ColumnIndex("order_id")))
}

func TestLoader_Load_MalformedFileSkipsTableOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv",
		"order_id,customer_id\no1,\"c1\n") // unterminated quote at line 2
	writeFile(t, dir, "customers.csv", "customer_id\nc1\n")
	writeFile(t, dir, "order_items.csv", "order_id,price\no1,10.0\n")

	loader := NewLoader(dir, DefaultManifest(), nil)
	collection, issues, err := loader.Load(context.Background())
	require.NoError(t, err)

	_, ok := collection.Get(TableOrders)
	assert.False(t, ok, "malformed table must not be loaded")
	assert.Equal(t, 2, collection.Len())

	var parseErr *ParseError
	found := false
	for _, issue := range issues {
		if errors.As(issue, &parseErr) {
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, "orders.csv", parseErr.File)
	assert.Equal(t, 2, parseErr.Line)
}

func TestLoader_Load_MissingDirectory(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope"), DefaultManifest(), nil)
	_, _, err := loader.Load(context.Background())
	assert.Error(t, err)
}

func TestInferColumnType(t *testing.T) {
	rows := [][]string{
		{"x1", "2018-01-02", "12.5", "sao paulo", "this is a long free text comment about the delivery experience"},
		{"x2", "2018-01-03", "99", "campinas", "another long free text comment far beyond forty characters easily"},
	}

	assert.Equal(t, domain.ColumnTypeIdentifier, inferColumnType("order_id", rows, 0))
	assert.Equal(t, domain.ColumnTypeDatetime, inferColumnType("shipping_date", rows, 1))
	assert.Equal(t, domain.ColumnTypeNumeric, inferColumnType("price", rows, 2))
	assert.Equal(t, domain.ColumnTypeCategorical, inferColumnType("city", rows, 3))
	assert.Equal(t, domain.ColumnTypeText, inferColumnType("notes", rows, 4))
	assert.Equal(t, domain.ColumnTypeText, inferColumnType("review_comment_message", nil, 0))
}

func TestParseTime(t *testing.T) {
	ts, ok := ParseTime("2018-01-05 10:00:00")
	require.True(t, ok)
	assert.Equal(t, 2018, ts.Year())

	_, ok = ParseTime("not a date")
	assert.False(t, ok)

	_, ok = ParseTime("")
	assert.False(t, ok)
}

func TestNumericValues(t *testing.T) {
	table := &domain.Table{
		Name:    "t",
		Columns: []domain.Column{{Name: "price", Type: domain.ColumnTypeNumeric}},
		Rows:    [][]string{{"10.5"}, {""}, {"bad"}, {"20"}},
	}
	table.RowCount = len(table.Rows)

	assert.Equal(t, []float64{10.5, 20}, NumericValues(table, "price"))
	assert.Nil(t, NumericValues(table, "missing"))
}
