package domain

import (
	"time"
)

// ColumnType is the declared semantic type of a table column.
type ColumnType string

const (
	ColumnTypeNumeric     ColumnType = "numeric"
	ColumnTypeCategorical ColumnType = "categorical"
	ColumnTypeDatetime    ColumnType = "datetime"
	ColumnTypeIdentifier  ColumnType = "identifier"
	ColumnTypeText        ColumnType = "text"
)

// Column describes one column of a loaded table.
type Column struct {
	Name string     `json:"name" validate:"required"`
	Type ColumnType `json:"type" validate:"required"`
}

// Table is a named collection of rows sharing a column schema.
// Tables are loaded once per run and are immutable afterwards.
type Table struct {
	Name     string     `json:"name" validate:"required"`
	Columns  []Column   `json:"columns"`
	Rows     [][]string `json:"-"`
	RowCount int        `json:"row_count"`
	LoadedAt time.Time  `json:"loaded_at"`
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the declared column metadata by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// NumericColumns returns the names of all numeric columns in schema order.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Type == ColumnTypeNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// CategoricalColumns returns the names of all categorical columns in schema order.
func (t *Table) CategoricalColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Type == ColumnTypeCategorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// DatetimeColumns returns the names of all datetime columns in schema order.
func (t *Table) DatetimeColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Type == ColumnTypeDatetime {
			names = append(names, c.Name)
		}
	}
	return names
}

// Cell returns the raw cell value at row/column, or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// TotalCells returns rows x columns for the loaded table.
func (t *Table) TotalCells() int {
	return t.RowCount * len(t.Columns)
}
