package audit

import (
	"context"
	"time"

	"github.com/docveil/docveil/internal/pii"
)

// ItemSummary describes one redacted item without carrying its value. Audit
// records must never contain the sensitive values themselves.
type ItemSummary struct {
	Type        pii.Type `json:"type"`
	ValueLength int      `json:"value_length"`
}

// Record is the durable audit artifact for one processed file. Immutable
// after write.
type Record struct {
	Timestamp       time.Time        `json:"timestamp"`
	Source          string           `json:"source"`
	FileSize        int64            `json:"file_size"`
	OriginalLength  int              `json:"original_length"`
	RedactedLength  int              `json:"redacted_length"`
	TotalItems      int              `json:"total_redacted_items"`
	ItemsByType     map[pii.Type]int `json:"redacted_items_by_type"`
	Items           []ItemSummary    `json:"redacted_items"`
	ComplianceNotes string           `json:"compliance_notes"`
	Status          string           `json:"processing_status"`
}

// NewRecord builds a record from one processing run.
func NewRecord(source string, fileSize int64, originalText, redactedText string, result pii.Result, notes string) *Record {
	items := make([]ItemSummary, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, ItemSummary{Type: item.Type, ValueLength: len(item.Value)})
	}

	return &Record{
		Timestamp:       time.Now(),
		Source:          source,
		FileSize:        fileSize,
		OriginalLength:  len(originalText),
		RedactedLength:  len(redactedText),
		TotalItems:      len(result.Items),
		ItemsByType:     result.CountsByType(),
		Items:           items,
		ComplianceNotes: notes,
		Status:          "completed",
	}
}

// Store persists audit records. The record is a compliance deliverable: a
// write failure fails that file's pipeline rather than being swallowed.
type Store interface {
	// Write persists the record once, without retry, and returns its
	// storage location.
	Write(ctx context.Context, record *Record) (string, error)
}
