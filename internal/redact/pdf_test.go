package redact

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/docveil/docveil/internal/compliance"
	"github.com/docveil/docveil/internal/pii"
)

func TestPDFRedactWithNothingInScope(t *testing.T) {
	engine := NewPDFEngine(testLogger())

	t.Run("EmptyResultCopiesInput", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "report.pdf")
		output := filepath.Join(dir, "redacted_report.pdf")
		content := []byte("%PDF-1.4 page content placeholder")
		if err := os.WriteFile(input, content, 0o644); err != nil {
			t.Fatal(err)
		}

		if err := engine.Redact(input, output, pii.Result{}); err != nil {
			t.Fatalf("Redact with no values should succeed: %v", err)
		}
		got, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("Output missing: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Error("Output should be a byte copy of the input")
		}
	})

	t.Run("StrictRegimeCanEmptyTheScope", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "cards.pdf")
		output := filepath.Join(dir, "redacted_cards.pdf")
		if err := os.WriteFile(input, []byte("%PDF-1.4 card list"), 0o644); err != nil {
			t.Fatal(err)
		}

		findings := pii.Result{Items: []pii.Item{
			{Type: pii.TypeCreditCard, Value: "4111 1111 1111 1111"},
		}}
		inScope := compliance.Filter(findings, compliance.HIPAA)
		if !inScope.Empty() {
			t.Fatalf("Credit cards should be out of scope for HIPAA, got %d items", len(inScope.Items))
		}

		if err := engine.Redact(input, output, inScope); err != nil {
			t.Fatalf("Redact with a fully filtered scope should succeed: %v", err)
		}
		if _, err := os.Stat(output); err != nil {
			t.Errorf("Output missing: %v", err)
		}
	})
}

func TestBuildTerms(t *testing.T) {
	engine := NewPDFEngine(testLogger())

	t.Run("LongestValueFirst", func(t *testing.T) {
		terms := engine.buildTerms(pii.Result{Items: []pii.Item{
			{Type: pii.TypeName, Value: "John"},
			{Type: pii.TypeName, Value: "John Smith"},
		}})
		if len(terms) != 2 {
			t.Fatalf("Expected 2 terms, got %d", len(terms))
		}
		if terms[0].Pattern.String() != "John Smith" {
			t.Errorf("Longer value should come first, got %q", terms[0].Pattern.String())
		}
	})

	t.Run("InvalidPhoneSkipped", func(t *testing.T) {
		terms := engine.buildTerms(pii.Result{Items: []pii.Item{
			{Type: pii.TypePhone, Value: "12"},
		}})
		if len(terms) != 0 {
			t.Errorf("Invalid phone should be skipped, got %d terms", len(terms))
		}
	})

	t.Run("EmptyResultYieldsNoTerms", func(t *testing.T) {
		if terms := engine.buildTerms(pii.Result{}); len(terms) != 0 {
			t.Errorf("Expected no terms, got %d", len(terms))
		}
	})
}
