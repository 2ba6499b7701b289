package redact

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/unidoc/unipdf/v3/creator"
	"github.com/unidoc/unipdf/v3/model"
	pdfredactor "github.com/unidoc/unipdf/v3/redactor"
	"go.uber.org/zap"

	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/pii"
)

// PDFEngine applies coordinate-surface redaction: every visual occurrence of
// a detected value on a rendered page is removed from the page content and
// covered with an opaque rectangle, so the underlying text is irrecoverable
// at the page-content level.
type PDFEngine struct {
	logger *logger.Logger
}

// NewPDFEngine creates a PDF redaction engine.
func NewPDFEngine(log *logger.Logger) *PDFEngine {
	return &PDFEngine{logger: log}
}

// Redact reads the PDF at inputPath, redacts every occurrence of each
// detected value, and writes the flattened result to outputPath. The input
// handle is released on every exit path. Zero in-scope values is not an
// error; the output is then a byte copy of the input.
func (e *PDFEngine) Redact(inputPath, outputPath string, result pii.Result) error {
	terms := e.buildTerms(result)
	if len(terms) == 0 {
		e.logger.Info("No redactable values on coordinate surface, copying input",
			zap.String("output", outputPath),
		)
		return copyFile(inputPath, outputPath)
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	reader, err := model.NewPdfReader(file)
	if err != nil {
		return fmt.Errorf("failed to read pdf: %w", err)
	}

	props := &pdfredactor.RectangleProps{
		FillColor:   creator.ColorBlack,
		BorderWidth: 0.0,
		FillOpacity: 1.0,
	}

	red := pdfredactor.New(reader, &pdfredactor.RedactionOptions{Terms: terms}, props)
	if err := red.Redact(); err != nil {
		return fmt.Errorf("pdf redaction failed: %w", err)
	}

	if err := red.WriteToFile(outputPath); err != nil {
		return fmt.Errorf("failed to write redacted pdf: %w", err)
	}

	e.logger.Info("PDF redacted",
		zap.String("output", outputPath),
		zap.Int("terms", len(terms)),
	)

	return nil
}

// buildTerms converts detected items into literal search terms, longest
// value first so overlapping values resolve in favor of the longer match.
// A value that never appears on any page is not an error; the term simply
// matches nothing.
func (e *PDFEngine) buildTerms(result pii.Result) []pdfredactor.RedactionTerm {
	items := make([]pii.Item, len(result.Items))
	copy(items, result.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return len(items[i].Value) > len(items[j].Value)
	})

	terms := make([]pdfredactor.RedactionTerm, 0, len(items))
	for _, item := range items {
		if item.Type == pii.TypePhone && !pii.ValidPhone(item.Value) {
			continue
		}
		pattern, err := regexp.Compile(regexp.QuoteMeta(item.Value))
		if err != nil {
			e.logger.Warn("Skipping unsearchable value on coordinate surface",
				zap.String("type", string(item.Type)),
				zap.Error(err),
			)
			continue
		}
		terms = append(terms, pdfredactor.RedactionTerm{Pattern: pattern})
	}

	return terms
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read pdf: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
