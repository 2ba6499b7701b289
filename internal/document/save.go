package document

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Save writes redacted text to outPath in the given format. For formats
// whose structure did not survive redaction, the text is wrapped in the
// closest well-formed equivalent rather than failing.
func Save(text string, format Format, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	switch format {
	case FormatTXT, FormatPDF:
		// PDF text-surface output is delivered as plain text; the
		// coordinate surface writes real PDFs through the redactor.
		return os.WriteFile(outPath, []byte(text), 0o644)
	case FormatJSON:
		return saveJSON(text, outPath)
	case FormatDOCX:
		return saveDOCX(text, outPath)
	default:
		return ErrUnsupportedFormat
	}
}

// saveJSON re-parses the redacted text as JSON. When tag insertion broke
// the syntax, the whole text is wrapped under a single key so the output
// file stays valid JSON.
func saveJSON(text, outPath string) error {
	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		parsed = map[string]interface{}{"redacted_content": text}
	}

	data, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal redacted JSON: %w", err)
	}

	return os.WriteFile(outPath, data, 0o644)
}

// writeZip creates a zip archive with the given entries. Entry order is
// fixed by sorting so output bytes are reproducible.
func writeZip(outPath string, entries map[string]string) error {
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer file.Close()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(file)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to create archive entry %s: %w", name, err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write archive entry %s: %w", name, err)
		}
	}

	return zw.Close()
}
