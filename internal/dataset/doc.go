// Package dataset loads the fixed collection of e-commerce CSV files into
// immutable in-memory tables. Column semantic types (numeric, categorical,
// datetime, identifier, text) are inferred from header names and a value
// sample at load time. A missing required file degrades the run; a malformed
// file aborts only that table.
package dataset
