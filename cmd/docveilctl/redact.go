package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docveil/docveil/internal/compliance"
	"github.com/docveil/docveil/internal/config"
	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/pipeline"
	"github.com/spf13/cobra"
)

// newRedactCmd creates the redact subcommand.
func newRedactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redact [files...]",
		Short: "Redact one or more local files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRedact,
	}

	cmd.Flags().StringP("regime", "r", "", "Compliance regime (GDPR, HIPAA, DPDP); defaults to config")
	cmd.Flags().StringP("output", "o", ".", "Directory for redacted output")
	cmd.Flags().IntP("workers", "w", 0, "Worker count override for batch processing")

	return cmd
}

func runRedact(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	regimeName, _ := cmd.Flags().GetString("regime")
	if regimeName == "" {
		regimeName = cfg.Compliance.DefaultRegime
	}
	regime, err := compliance.ParseRegime(regimeName)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}

	coordinator, cleanup, err := pipeline.Build(cfg, nil, nil, log)
	if err != nil {
		return err
	}
	defer cleanup()

	jobs := make([]pipeline.Job, 0, len(args))
	for _, path := range args {
		jobs = append(jobs, pipeline.Job{
			InputPath: path,
			OutputDir: outputDir,
			Regime:    regime,
		})
	}

	batch := coordinator.ProcessBatch(context.Background(), jobs, workers)
	printBatch(cmd, batch)

	if batch.Failed() > 0 {
		return fmt.Errorf("%d of %d files failed", batch.Failed(), len(batch.Files))
	}
	return nil
}

func printBatch(cmd *cobra.Command, batch *pipeline.BatchResult) {
	for path, result := range batch.Files {
		switch {
		case result.Err != nil:
			cmd.Printf("%s: FAILED: %v\n", path, result.Err)
		case result.NoFindings:
			cmd.Printf("%s: no sensitive data found\n", path)
		default:
			cmd.Printf("%s: %d items redacted -> %s (audit: %s)\n",
				path, len(result.Findings.Items), result.OutputPath, result.AuditPath)
		}
	}
	cmd.Printf("Done: %d succeeded, %d failed in %s\n",
		batch.Succeeded(), batch.Failed(), batch.Duration.Round(time.Millisecond))
}

// loadEnvironment loads configuration and builds a logger with any CLI
// overrides applied.
func loadEnvironment(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, nil
}
