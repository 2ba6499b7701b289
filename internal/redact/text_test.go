package redact

import (
	"strings"
	"testing"

	"github.com/docveil/docveil/internal/logger"
	"github.com/docveil/docveil/internal/pii"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestTextEngineRedact(t *testing.T) {
	engine := NewTextEngine(testLogger())

	t.Run("ReplacesAllOccurrences", func(t *testing.T) {
		text := "Email a@b.com now. Again: a@b.com."
		got := engine.Redact(text, pii.Result{Items: []pii.Item{
			{Type: pii.TypeEmail, Value: "a@b.com"},
		}})
		if strings.Contains(got, "a@b.com") {
			t.Errorf("Value survived redaction: %q", got)
		}
		if strings.Count(got, "[REDACTED_EMAIL]") != 2 {
			t.Errorf("Expected 2 tags, got %q", got)
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		got := engine.Redact("Contact John@Example.COM", pii.Result{Items: []pii.Item{
			{Type: pii.TypeEmail, Value: "john@example.com"},
		}})
		if !strings.Contains(got, "[REDACTED_EMAIL]") {
			t.Errorf("Case difference blocked redaction: %q", got)
		}
	})

	t.Run("LongestValueFirst", func(t *testing.T) {
		text := "Attendees: John Smith and John."
		got := engine.Redact(text, pii.Result{Items: []pii.Item{
			{Type: pii.TypeName, Value: "John"},
			{Type: pii.TypeName, Value: "John Smith"},
		}})
		if strings.Contains(got, "Smith") {
			t.Errorf("Longer name not redacted first: %q", got)
		}
	})

	t.Run("WordBoundaryForNames", func(t *testing.T) {
		got := engine.Redact("Johnson met John.", pii.Result{Items: []pii.Item{
			{Type: pii.TypeName, Value: "John"},
		}})
		if !strings.HasPrefix(got, "Johnson") {
			t.Errorf("Name redaction crossed a word boundary: %q", got)
		}
		if !strings.Contains(got, "[REDACTED_NAME]") {
			t.Errorf("Whole-word occurrence not redacted: %q", got)
		}
	})

	t.Run("SkipsInvalidPhone", func(t *testing.T) {
		got := engine.Redact("Ext 555-1234 is internal.", pii.Result{Items: []pii.Item{
			{Type: pii.TypePhone, Value: "555-1234"},
		}})
		if strings.Contains(got, "[REDACTED_PHONE]") {
			t.Errorf("Invalid phone should not be redacted: %q", got)
		}
	})

	t.Run("ValueNotInText", func(t *testing.T) {
		text := "Nothing to see here."
		got := engine.Redact(text, pii.Result{Items: []pii.Item{
			{Type: pii.TypeEmail, Value: "ghost@example.com"},
		}})
		if got != text {
			t.Errorf("Text changed despite absent value: %q", got)
		}
	})

	t.Run("RegexMetacharactersInValue", func(t *testing.T) {
		got := engine.Redact("See https://example.com/a?b=c&d=(e) ok", pii.Result{Items: []pii.Item{
			{Type: pii.TypeURL, Value: "https://example.com/a?b=c&d=(e)"},
		}})
		if !strings.Contains(got, "[REDACTED_URL]") {
			t.Errorf("URL with metacharacters not redacted: %q", got)
		}
	})
}

func TestTag(t *testing.T) {
	if got := Tag(pii.TypeCreditCard); got != "[REDACTED_CREDIT_CARD]" {
		t.Errorf("Tag = %q", got)
	}
}

// TestRedactProperties checks invariants over generated inputs.
func TestRedactProperties(t *testing.T) {
	engine := NewTextEngine(testLogger())

	t.Run("NoResidualValue", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			user := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "user")
			host := rapid.StringMatching(`[a-z]{1,8}\.[a-z]{2,4}`).Draw(t, "host")
			email := user + "@" + host
			prefix := rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(t, "prefix")
			suffix := rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(t, "suffix")
			text := prefix + " " + email + " " + suffix

			got := engine.Redact(text, pii.Result{Items: []pii.Item{
				{Type: pii.TypeEmail, Value: email},
			}})
			if strings.Contains(got, email) {
				t.Fatalf("Value %q survived in %q", email, got)
			}
		})
	})

	t.Run("Idempotent", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			ssn := rapid.StringMatching(`\d{3}-\d{2}-\d{4}`).Draw(t, "ssn")
			text := "Record " + ssn + " filed."
			result := pii.Result{Items: []pii.Item{{Type: pii.TypeSSN, Value: ssn}}}

			once := engine.Redact(text, result)
			twice := engine.Redact(once, result)
			if once != twice {
				t.Fatalf("Redaction not idempotent: %q vs %q", once, twice)
			}
		})
	})
}
