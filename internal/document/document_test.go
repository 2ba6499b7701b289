package document

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path string
		want Format
		ok   bool
	}{
		{"notes.txt", FormatTXT, true},
		{"Report.PDF", FormatPDF, true},
		{"letter.docx", FormatDOCX, true},
		{"data.json", FormatJSON, true},
		{"image.png", "", false},
		{"noextension", "", false},
	}
	for _, tc := range cases {
		got, err := DetectFormat(tc.path)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("DetectFormat(%q) = %v, %v; want %v", tc.path, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("DetectFormat(%q) err = %v, want ErrUnsupportedFormat", tc.path, err)
		}
	}
}

func TestExtractTXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("plain content"), 0o644); err != nil {
		t.Fatal(err)
	}
	text, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "plain content" {
		t.Errorf("Extract = %q", text)
	}
}

func TestExtractJSON(t *testing.T) {
	t.Run("PrettyPrints", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a.json")
		if err := os.WriteFile(path, []byte(`{"email":"a@b.com","nested":{"phone":"555-123-4567"}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		text, err := Extract(path)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if !strings.Contains(text, `"email": "a@b.com"`) {
			t.Errorf("Nested values not exposed: %q", text)
		}
	})

	t.Run("CorruptJSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte(`{"unclosed":`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Extract(path); !errors.Is(err, ErrCorrupt) {
			t.Errorf("err = %v, want ErrCorrupt", err)
		}
	})
}

func TestExtractPDFCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Extract(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestDOCXRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.docx")

	text := "First paragraph with a@b.com\nSecond paragraph <with> markup & such"
	if err := Save(text, FormatDOCX, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.Contains(got, "First paragraph with a@b.com") {
		t.Errorf("First paragraph lost: %q", got)
	}
	if !strings.Contains(got, "<with> markup & such") {
		t.Errorf("XML escaping broke round trip: %q", got)
	}
}

func TestExtractDOCXCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	if err := os.WriteFile(path, []byte("zip? no."), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Extract(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestSaveJSON(t *testing.T) {
	t.Run("ValidJSONKeptStructured", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		if err := Save(`{"name":"[REDACTED_NAME]"}`, FormatJSON, path); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		data, _ := os.ReadFile(path)
		var parsed map[string]interface{}
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("Output is not valid JSON: %v", err)
		}
		if parsed["name"] != "[REDACTED_NAME]" {
			t.Errorf("parsed = %v", parsed)
		}
	})

	t.Run("BrokenSyntaxWrapped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		broken := `{"card": [REDACTED_CREDIT_CARD]}`
		if err := Save(broken, FormatJSON, path); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		data, _ := os.ReadFile(path)
		var parsed map[string]interface{}
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("Output is not valid JSON: %v", err)
		}
		if parsed["redacted_content"] != broken {
			t.Errorf("Fallback wrapper missing: %v", parsed)
		}
	})
}
