package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ecomlens/pkg/contracts/domain"
)

// typeSampleSize bounds how many rows are inspected for type inference.
const typeSampleSize = 200

// Collection holds the tables of one run in load order.
type Collection struct {
	order  []string
	tables map[string]*domain.Table
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{tables: make(map[string]*domain.Table)}
}

// Add inserts a table, preserving insertion order.
func (c *Collection) Add(t *domain.Table) {
	if _, exists := c.tables[t.Name]; !exists {
		c.order = append(c.order, t.Name)
	}
	c.tables[t.Name] = t
}

// Get returns the named table.
func (c *Collection) Get(name string) (*domain.Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Names returns table names in load order.
func (c *Collection) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Tables returns all tables in load order.
func (c *Collection) Tables() []*domain.Table {
	tables := make([]*domain.Table, 0, len(c.order))
	for _, name := range c.order {
		tables = append(tables, c.tables[name])
	}
	return tables
}

// Len returns the number of loaded tables.
func (c *Collection) Len() int {
	return len(c.order)
}

// Loader reads the manifest's CSV files into tables. It has no side effects
// beyond reading.
type Loader struct {
	dir      string
	manifest Manifest
	logger   *slog.Logger
}

// NewLoader creates a loader for the given data directory.
func NewLoader(dir string, manifest Manifest, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		dir:      dir,
		manifest: manifest,
		logger:   logger.With(slog.String("component", "dataset.loader")),
	}
}

// Load reads every manifest file that exists. Missing files and per-table
// parse failures are returned as non-fatal issues; the only fatal condition
// is an unreadable data directory.
func (l *Loader) Load(ctx context.Context) (*Collection, []error, error) {
	if _, err := os.Stat(l.dir); err != nil {
		return nil, nil, fmt.Errorf("data directory not accessible: %w", err)
	}

	collection := NewCollection()
	var issues []error

	for _, spec := range l.manifest.Files {
		select {
		case <-ctx.Done():
			return collection, issues, ctx.Err()
		default:
		}

		path := filepath.Join(l.dir, spec.File)
		table, err := l.loadFile(path, spec.Table)
		if err != nil {
			var missing *MissingDataError
			if errors.As(err, &missing) {
				if !spec.Required {
					l.logger.Debug("optional file absent",
						slog.String("file", spec.File))
					continue
				}
				l.logger.Warn("required file absent, continuing degraded",
					slog.String("file", spec.File))
			} else {
				l.logger.Warn("table skipped",
					slog.String("file", spec.File),
					slog.String("error", err.Error()))
			}
			issues = append(issues, err)
			continue
		}

		collection.Add(table)
		l.logger.Info("table loaded",
			slog.String("table", table.Name),
			slog.Int("rows", table.RowCount),
			slog.Int("columns", len(table.Columns)))
	}

	return collection, issues, nil
}

// loadFile reads one CSV file into a table.
func (l *Loader) loadFile(path, tableName string) (*domain.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			spec, _ := l.manifest.FileFor(tableName)
			return nil, &MissingDataError{File: filepath.Base(path), Required: spec.Required}
		}
		return nil, &ParseError{File: filepath.Base(path), Cause: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	// Ragged rows are a data quality signal, not a reason to drop the table.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{File: filepath.Base(path), Line: 1, Cause: err}
	}
	for i := range header {
		header[i] = strings.TrimPrefix(strings.TrimSpace(header[i]), "\ufeff")
	}

	var rows [][]string
	ragged := 0
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{File: filepath.Base(path), Line: line, Cause: err}
		}
		if len(record) != len(header) {
			ragged++
		}
		rows = append(rows, record)
	}
	if ragged > 0 {
		l.logger.Warn("ragged rows retained",
			slog.String("file", filepath.Base(path)),
			slog.Int("rows", ragged))
	}

	columns := make([]domain.Column, len(header))
	for i, name := range header {
		columns[i] = domain.Column{
			Name: name,
			Type: inferColumnType(name, rows, i),
		}
	}

	return &domain.Table{
		Name:     tableName,
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
		LoadedAt: time.Now(),
	}, nil
}

// inferColumnType decides the semantic type of a column from its header name
// and a value sample. The rules are deterministic so repeated loads of the
// same file always produce the same schema.
func inferColumnType(name string, rows [][]string, col int) domain.ColumnType {
	lower := strings.ToLower(name)

	if lower == "id" || strings.HasSuffix(lower, "_id") {
		return domain.ColumnTypeIdentifier
	}
	if strings.Contains(lower, "date") || strings.Contains(lower, "timestamp") {
		return domain.ColumnTypeDatetime
	}

	sampled, numeric, totalLen := 0, 0, 0
	for i := 0; i < len(rows) && sampled < typeSampleSize; i++ {
		if col >= len(rows[i]) {
			continue
		}
		v := strings.TrimSpace(rows[i][col])
		if v == "" {
			continue
		}
		sampled++
		totalLen += len(v)
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			numeric++
		}
	}

	if sampled > 0 && numeric == sampled {
		return domain.ColumnTypeNumeric
	}
	if strings.Contains(lower, "comment") || strings.Contains(lower, "message") || strings.Contains(lower, "title") {
		return domain.ColumnTypeText
	}
	if sampled > 0 && totalLen/sampled > 40 {
		return domain.ColumnTypeText
	}
	return domain.ColumnTypeCategorical
}

// ParseTime parses the timestamp formats the datasets use.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NumericValues extracts the parseable float values of a column,
// skipping blanks.
func NumericValues(t *domain.Table, column string) []float64 {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	values := make([]float64, 0, t.RowCount)
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[idx])
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			values = append(values, f)
		}
	}
	return values
}
