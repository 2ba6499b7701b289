// Package document loads and saves the file formats the redaction pipeline
// understands. Extraction produces plain text for detection; saving writes
// the redacted text back in the source format.
package document

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format identifies a supported document format.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatJSON Format = "json"
)

var (
	// ErrUnsupportedFormat is returned for file extensions the pipeline
	// does not handle.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorrupt is returned when a file has a supported extension but
	// its contents cannot be parsed as that format.
	ErrCorrupt = errors.New("document is corrupt or unreadable")
)

// DetectFormat resolves a file path to a supported format by extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatTXT, nil
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", ErrUnsupportedFormat
	}
}
