// Package main is the entry point for the docveilctl binary.
// It runs the redaction pipeline against local files without a server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for docveilctl
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docveilctl",
		Short: "Redact sensitive data from local documents",
		Long: `docveilctl runs the DocVeil detection and redaction pipeline against
local files. Redacted copies and their audit records are written next to
the originals or into --output.

Example:
  docveilctl redact --regime HIPAA --output out/ report.pdf notes.txt`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(newRedactCmd())
	rootCmd.AddCommand(newSampleCmd())

	return rootCmd
}
