package redact

import (
	"regexp"
	"sort"
	"strings"

	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/pii"
	"go.uber.org/zap"
)

// Tag returns the redaction placeholder for a type, e.g. [REDACTED_EMAIL].
func Tag(t pii.Type) string {
	return "[REDACTED_" + strings.ToUpper(string(t)) + "]"
}

// TextEngine applies redaction to plain text by ordered pattern
// substitution. Used directly for TXT/JSON/DOCX content and as the basis for
// compliance advisory on any format.
type TextEngine struct {
	logger *logger.Logger
}

// NewTextEngine creates a text redaction engine.
func NewTextEngine(log *logger.Logger) *TextEngine {
	return &TextEngine{logger: log}
}

// Redact replaces every occurrence of each detected value with its redaction
// tag. Items are processed longest value first; a shorter value that is a
// substring of a longer one must not truncate the longer redaction.
func (e *TextEngine) Redact(text string, result pii.Result) string {
	items := make([]pii.Item, len(result.Items))
	copy(items, result.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return len(items[i].Value) > len(items[j].Value)
	})

	redacted := text
	for _, item := range items {
		redacted = e.redactItem(redacted, item)
	}

	return redacted
}

// redactItem substitutes a single item, falling back to a literal string
// replacement if the pattern cannot be built. Redaction never aborts on a
// single bad value.
func (e *TextEngine) redactItem(text string, item pii.Item) string {
	if item.Type == pii.TypePhone && !pii.ValidPhone(item.Value) {
		// Re-validation failed; leave the text untouched.
		e.logger.Debug("Skipping phone value that fails re-validation",
			zap.Int("value_length", len(item.Value)),
		)
		return text
	}

	tag := Tag(item.Type)

	pattern, err := regexp.Compile(matchExpr(item))
	if err != nil {
		e.logger.Warn("Pattern compilation failed, using literal replacement",
			zap.String("type", string(item.Type)),
			zap.Error(err),
		)
		return strings.ReplaceAll(text, item.Value, tag)
	}

	if !pattern.MatchString(text) {
		// The detected value may not appear verbatim on this surface, for
		// example when detection ran on differently extracted text.
		e.logger.Debug("Detected value not found in redaction target",
			zap.String("type", string(item.Type)),
		)
		return text
	}

	return pattern.ReplaceAllString(text, tag)
}

// matchExpr builds the case-insensitive match expression for an item.
// Structurally unambiguous types match their exact literal; types that occur
// inside natural language get word-boundary delimiters so redaction never
// fires inside unrelated words.
func matchExpr(item pii.Item) string {
	literal := regexp.QuoteMeta(item.Value)

	switch item.Type {
	case pii.TypeEmail, pii.TypeURL, pii.TypeSSN, pii.TypeCreditCard, pii.TypeIPAddress, pii.TypePhone:
		return `(?i)` + literal
	case pii.TypeName, pii.TypeOrganization, pii.TypeLocation:
		return `(?i)\b` + literal + `\b`
	default:
		return `(?i)\b` + literal + `\b`
	}
}
