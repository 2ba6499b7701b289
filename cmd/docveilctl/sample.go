package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docveil/docveil/internal/compliance"
	"github.com/docveil/docveil/internal/pipeline"
	"github.com/spf13/cobra"
)

const sampleText = `Customer escalation notes

Contact John Smith at john.smith@email.com or 555-123-4567.
Billing SSN on file: 123-45-6789, card 4111 1111 1111 1111.
Portal: https://support.example.com/tickets/8841 from 192.168.1.50.
`

// newSampleCmd creates the sample subcommand, a self-check that runs the
// full pipeline against built-in sample text.
func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Run the pipeline against built-in sample text",
		RunE:  runSample,
	}

	cmd.Flags().StringP("regime", "r", "GDPR", "Compliance regime (GDPR, HIPAA, DPDP)")

	return cmd
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	regimeName, _ := cmd.Flags().GetString("regime")
	regime, err := compliance.ParseRegime(regimeName)
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "docveil-sample-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inputPath := filepath.Join(tempDir, "sample.txt")
	if err := os.WriteFile(inputPath, []byte(sampleText), 0o644); err != nil {
		return fmt.Errorf("failed to write sample file: %w", err)
	}

	// The self-check audits into the temp directory, not the real store.
	cfg.Audit.Dir = filepath.Join(tempDir, "audit_logs")
	cfg.Audit.Postgres.Enabled = false

	coordinator, cleanup, err := pipeline.Build(cfg, nil, nil, log)
	if err != nil {
		return err
	}
	defer cleanup()

	result := coordinator.Process(context.Background(), pipeline.Job{
		InputPath: inputPath,
		OutputDir: tempDir,
		Regime:    regime,
	})
	if result.Err != nil {
		return fmt.Errorf("sample processing failed: %w", result.Err)
	}

	cmd.Printf("Detected %d items:\n", len(result.Findings.Items))
	for _, item := range result.Findings.Items {
		cmd.Printf("  %-12s %s\n", item.Type, item.Value)
	}

	redacted, err := os.ReadFile(result.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to read redacted output: %w", err)
	}
	cmd.Printf("\nRedacted output:\n%s\n", redacted)
	cmd.Printf("Advisory: %s\n", result.Advisory)

	return nil
}
