// Package config provides centralized configuration management for the
// ecomlens analysis pipeline. It handles loading configuration from multiple
// sources, validation, and a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ECOMLENS_* for namespacing:
//
//	ECOMLENS_SERVER_PORT=8080
//	ECOMLENS_PATHS_DATADIR=data_storage
//	ECOMLENS_ANALYSIS_QUALITYTHRESHOLD=75
//	ECOMLENS_LOGGING_LEVEL=info
//
// # Path Management
//
// The package provides centralized path management through the Paths type:
//
//	paths := cfg.Paths.Resolve()
//	out := paths.ReportPath("analysis_report.md")
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
