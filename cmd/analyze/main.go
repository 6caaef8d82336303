package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomlens/internal/config"
	"ecomlens/internal/infrastructure"
	"ecomlens/internal/operations"
)

func main() {
	yes := flag.Bool("yes", false, "accept every checkpoint without prompting")
	format := flag.String("format", "markdown", "report format: markdown, html, pdf or docx")
	domain := flag.String("domain", "e-commerce", "business domain tag carried into the report")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	paths := cfg.Paths.Resolve()
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to prepare output directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	registry := operations.NewRegistry()
	if err := operations.RegisterStages(registry, paths, cfg.Analysis, logger); err != nil {
		logger.Error("Failed to register stages", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var gate operations.Gate = &operations.StdinGate{In: os.Stdin, Out: os.Stdout}
	if *yes || !cfg.Checkpoint.Enabled {
		gate = operations.AutoGate{}
	}

	manager := operations.NewManager(registry, logger,
		operations.WithGate(gate),
		operations.WithCheckpointTimeout(cfg.Checkpoint.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.RunTimeout)
	defer cancel()

	runID := fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
	resp, state, err := manager.Execute(ctx, operations.OperationRequest{
		ID:     runID,
		Domain: *domain,
		Format: *format,
	})
	if err != nil {
		logger.Error("Run failed", slog.String("run_id", runID), slog.String("error", err.Error()))
	}

	printSummary(resp, state)
	if resp == nil || resp.Status != operations.OperationStatusCompleted {
		os.Exit(1)
	}
}

func printSummary(resp *operations.OperationResponse, state *operations.OperationState) {
	if resp == nil {
		return
	}
	fmt.Printf("\nRun %s finished: %s (%.1fs)\n", resp.ID, resp.Status, resp.Duration.Seconds())
	for _, id := range operations.StageOrder {
		step := state.GetStage(id)
		if step == nil {
			continue
		}
		fmt.Printf("  %-12s %s\n", id, step.GetStatus())
	}
	if resp.ReportPath != "" {
		fmt.Printf("Report: %s\n", resp.ReportPath)
	}
	if resp.Error != "" {
		fmt.Printf("Error: %s\n", resp.Error)
	}
}
