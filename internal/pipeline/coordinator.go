// Package pipeline drives a document through detection, redaction,
// compliance advisory, and audit recording as an explicit state machine.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docveil/docveil/internal/advisory"
	"github.com/docveil/docveil/internal/audit"
	"github.com/docveil/docveil/internal/compliance"
	"github.com/docveil/docveil/internal/document"
	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/metrics"
	"github.com/docveil/docveil/internal/ner"
	"github.com/docveil/docveil/internal/pii"
	"github.com/docveil/docveil/internal/redact"
	"go.uber.org/zap"
)

// State is a position in the per-file processing lifecycle.
type State string

const (
	StateLoaded     State = "LOADED"
	StateDetected   State = "DETECTED"
	StateNoFindings State = "NO_FINDINGS"
	StateRedacted   State = "REDACTED"
	StateAdvised    State = "ADVISED"
	StateAudited    State = "AUDITED"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// EventSink receives state transitions for live observers. Implementations
// must not block; a nil sink disables publication.
type EventSink interface {
	PublishTransition(source string, state State, totalItems int)
}

// Job describes one file to process.
type Job struct {
	InputPath string
	OutputDir string
	Regime    compliance.Regime
}

// FileResult is the outcome of processing one file. When Err is set the
// terminal state is FAILED and the other fields describe how far the file
// got. NoFindings marks the NO_FINDINGS terminal: the file was clean, so
// no redacted output, advisory, or audit record exists for it.
type FileResult struct {
	InputPath  string
	Source     string
	State      State
	NoFindings bool
	OutputPath string
	AuditPath  string
	Findings   pii.Result
	Advisory   string
	Duration   time.Duration
	Err        error
}

// Coordinator wires the detection, redaction, advisory, and audit stages
// together. It is safe for concurrent use by batch workers.
type Coordinator struct {
	matcher      *pii.Matcher
	recognizer   *ner.Adapter
	textEngine   *redact.TextEngine
	pdfEngine    *redact.PDFEngine
	advisor      *advisory.Advisor
	auditStore   audit.Store
	metrics      *metrics.Recorder
	events       EventSink
	strictFilter bool
	logger       *logger.Logger
}

// Options configures a Coordinator. Matcher, TextEngine, Advisor, and
// AuditStore are required; the rest are optional.
type Options struct {
	Matcher      *pii.Matcher
	Recognizer   *ner.Adapter
	TextEngine   *redact.TextEngine
	PDFEngine    *redact.PDFEngine
	Advisor      *advisory.Advisor
	AuditStore   audit.Store
	Metrics      *metrics.Recorder
	Events       EventSink
	StrictFilter bool
}

// NewCoordinator creates a pipeline coordinator.
func NewCoordinator(opts Options, log *logger.Logger) (*Coordinator, error) {
	if opts.Matcher == nil || opts.TextEngine == nil {
		return nil, fmt.Errorf("matcher and text engine are required")
	}
	if opts.Advisor == nil {
		return nil, fmt.Errorf("advisor is required")
	}
	if opts.AuditStore == nil {
		return nil, fmt.Errorf("audit store is required")
	}

	return &Coordinator{
		matcher:      opts.Matcher,
		recognizer:   opts.Recognizer,
		textEngine:   opts.TextEngine,
		pdfEngine:    opts.PDFEngine,
		advisor:      opts.Advisor,
		auditStore:   opts.AuditStore,
		metrics:      opts.Metrics,
		events:       opts.Events,
		strictFilter: opts.StrictFilter,
		logger:       log.WithComponent("pipeline"),
	}, nil
}

// Process runs one file through the full lifecycle. Any stage error other
// than the advisory stage moves the file to FAILED; the advisory stage
// degrades to a fixed fallback note instead.
func (c *Coordinator) Process(ctx context.Context, job Job) *FileResult {
	start := time.Now()
	source := filepath.Base(job.InputPath)
	log := c.logger.WithFile(source)
	result := &FileResult{InputPath: job.InputPath, Source: source}

	fail := func(state State, err error) *FileResult {
		result.State = StateFailed
		result.Err = err
		result.Duration = time.Since(start)
		log.Error("Processing failed",
			zap.String("last_state", string(state)),
			zap.Error(err),
		)
		c.transition(result, StateFailed)
		if c.metrics != nil {
			c.metrics.FileFailed()
		}
		return result
	}

	// LOADED: resolve format and extract text.
	format, err := document.DetectFormat(job.InputPath)
	if err != nil {
		return fail(StateLoaded, err)
	}
	info, err := os.Stat(job.InputPath)
	if err != nil {
		return fail(StateLoaded, fmt.Errorf("failed to stat input: %w", err))
	}
	text, err := document.Extract(job.InputPath)
	if err != nil {
		return fail(StateLoaded, err)
	}
	c.transition(result, StateLoaded)
	log.Debug("Document loaded",
		zap.String("format", string(format)),
		zap.Int("chars", len(text)),
	)

	// DETECTED: merge pattern and entity findings.
	patternItems := c.matcher.Detect(text)
	var entityItems []pii.Item
	if c.recognizer != nil {
		outcome := c.recognizer.Detect(ctx, text)
		entityItems = outcome.Items
	}
	findings := pii.Merge(patternItems, entityItems)
	result.Findings = findings
	c.transition(result, StateDetected)
	if c.metrics != nil {
		c.metrics.ItemsDetected(findings)
	}
	log.Info("Detection completed",
		zap.Int("pattern_items", len(patternItems)),
		zap.Int("entity_items", len(entityItems)),
		zap.Int("merged_items", len(findings.Items)),
	)

	// Regime scoping. In reporting mode every finding is redacted and the
	// regime only shapes the advisory; strict mode narrows redaction to
	// the regime's types.
	toRedact := findings
	if c.strictFilter {
		toRedact = compliance.Filter(findings, job.Regime)
		log.Info("Strict compliance filter applied",
			zap.String("regime", string(job.Regime)),
			zap.Int("in_scope_items", len(toRedact.Items)),
		)
	}

	// NO_FINDINGS is terminal: nothing to redact means no advisory or
	// audit work either, and the caller gets a distinct "nothing to do"
	// result with no output artifacts.
	if findings.Empty() {
		result.NoFindings = true
		result.Duration = time.Since(start)
		c.transition(result, StateNoFindings)
		if c.metrics != nil {
			c.metrics.FileProcessed(result.Duration)
		}
		log.Info("No sensitive data found", zap.Duration("duration", result.Duration))
		return result
	}

	outPath := filepath.Join(job.OutputDir, redactedName(source))
	redactedText := c.textEngine.Redact(text, toRedact)

	if format == document.FormatPDF && c.pdfEngine != nil {
		if err := c.pdfEngine.Redact(job.InputPath, outPath, toRedact); err != nil {
			return fail(StateDetected, fmt.Errorf("pdf redaction failed: %w", err))
		}
	} else {
		if err := document.Save(redactedText, format, outPath); err != nil {
			return fail(StateDetected, fmt.Errorf("failed to save redacted output: %w", err))
		}
	}
	result.OutputPath = outPath
	c.transition(result, StateRedacted)
	log.Info("Redaction completed", zap.String("output", outPath))

	// ADVISED: the advisor degrades internally and never fails the file.
	result.Advisory = c.advisor.Assess(ctx, redactedText, job.Regime)
	c.transition(result, StateAdvised)

	// AUDITED: the audit record is mandatory.
	record := audit.NewRecord(source, info.Size(), text, redactedText, toRedact, result.Advisory)
	auditPath, err := c.auditStore.Write(ctx, record)
	if err != nil {
		return fail(StateAdvised, fmt.Errorf("audit write failed: %w", err))
	}
	result.AuditPath = auditPath
	c.transition(result, StateAudited)

	result.State = StateDone
	result.Duration = time.Since(start)
	c.transition(result, StateDone)
	if c.metrics != nil {
		c.metrics.FileProcessed(result.Duration)
	}
	log.Info("Processing completed",
		zap.Duration("duration", result.Duration),
		zap.Int("total_items", len(toRedact.Items)),
	)

	return result
}

func (c *Coordinator) transition(result *FileResult, state State) {
	result.State = state
	if c.events != nil {
		c.events.PublishTransition(result.Source, state, len(result.Findings.Items))
	}
}

// redactedName prefixes the source filename the way downstream consumers
// expect redacted artifacts to be named.
func redactedName(source string) string {
	return "redacted_" + source
}
