// Package exporter provides CSV export functionality for stage outputs.
//
// CSVWriter is the core writer with header, streaming and UTF-8 BOM support
// for Excel compatibility. On top of it, record builders turn quality scores,
// findings and hypotheses into flat CSV tables that sit next to the JSON
// records each stage writes.
package exporter
