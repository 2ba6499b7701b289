// auditexport converts a directory of JSON audit records into a single
// Parquet file for offline compliance analysis.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docveil/docveil/internal/audit"
	"github.com/segmentio/parquet-go"
)

// ExportRow is the flattened Parquet schema for one audit record.
type ExportRow struct {
	Timestamp       int64  `parquet:"timestamp"`
	Source          string `parquet:"source"`
	FileSize        int64  `parquet:"file_size"`
	OriginalLength  int32  `parquet:"original_length"`
	RedactedLength  int32  `parquet:"redacted_length"`
	TotalItems      int32  `parquet:"total_items"`
	ItemsByType     string `parquet:"items_by_type_json"`
	ComplianceNotes string `parquet:"compliance_notes"`
	Status          string `parquet:"processing_status"`
}

func main() {
	var (
		inputDir   = flag.String("input", "audit_logs", "Directory of JSON audit records")
		outputFile = flag.String("output", "", "Output Parquet file (default: audit_export_<date>.parquet)")
		since      = flag.String("since", "", "Only export records on or after this date (YYYY-MM-DD)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input audit_logs --output audits.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --since 2026-01-01\n", os.Args[0])
	}
	flag.Parse()

	var cutoff time.Time
	if *since != "" {
		var err error
		cutoff, err = time.Parse("2006-01-02", *since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --since date: %v\n", err)
			os.Exit(1)
		}
	}

	out := *outputFile
	if out == "" {
		out = fmt.Sprintf("audit_export_%s.parquet", time.Now().Format("2006-01-02"))
	}

	rows, skipped, err := collectRows(*inputDir, cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "No audit records found in %s\n", *inputDir)
		os.Exit(1)
	}

	if err := writeParquet(out, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d records to %s (%d skipped)\n", len(rows), out, skipped)
}

// collectRows reads every audit_log_*.json file under dir. Unparseable
// files are skipped and counted, not fatal.
func collectRows(dir string, cutoff time.Time) ([]ExportRow, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read audit directory: %w", err)
	}

	var rows []ExportRow
	skipped := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "audit_log_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", name, err)
			skipped++
			continue
		}

		var record audit.Record
		if err := json.Unmarshal(data, &record); err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", name, err)
			skipped++
			continue
		}

		if !cutoff.IsZero() && record.Timestamp.Before(cutoff) {
			continue
		}

		byType, err := json.Marshal(record.ItemsByType)
		if err != nil {
			skipped++
			continue
		}

		rows = append(rows, ExportRow{
			Timestamp:       record.Timestamp.Unix(),
			Source:          record.Source,
			FileSize:        record.FileSize,
			OriginalLength:  int32(record.OriginalLength),
			RedactedLength:  int32(record.RedactedLength),
			TotalItems:      int32(record.TotalItems),
			ItemsByType:     string(byType),
			ComplianceNotes: record.ComplianceNotes,
			Status:          record.Status,
		})
	}

	return rows, skipped, nil
}

func writeParquet(path string, rows []ExportRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewWriter(file)
	for i := range rows {
		if err := writer.Write(&rows[i]); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize Parquet file: %w", err)
	}
	return nil
}
