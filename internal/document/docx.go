package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX pulls the paragraph text out of word/document.xml. Paragraphs
// become lines; run text within a paragraph is concatenated.
func extractDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer archive.Close()

	var body io.ReadCloser
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
			}
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%w: missing word/document.xml", ErrCorrupt)
	}
	defer body.Close()

	decoder := xml.NewDecoder(body)
	var buf strings.Builder
	var inText bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		switch elem := token.(type) {
		case xml.StartElement:
			if elem.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch elem.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(elem)
			}
		}
	}

	return buf.String(), nil
}

// docx XML skeleton for write-back. One <w:p> per input line.
const docxDocumentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docxDocumentFooter = `</w:body></w:document>`

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// saveDOCX writes a minimal single-part document containing the redacted
// text, one paragraph per line. Formatting from the source document is not
// preserved.
func saveDOCX(text, outPath string) error {
	var doc strings.Builder
	doc.WriteString(docxDocumentHeader)
	for _, line := range strings.Split(text, "\n") {
		doc.WriteString("<w:p><w:r><w:t xml:space=\"preserve\">")
		if err := xml.EscapeText(&doc, []byte(line)); err != nil {
			return fmt.Errorf("failed to escape paragraph text: %w", err)
		}
		doc.WriteString("</w:t></w:r></w:p>")
	}
	doc.WriteString(docxDocumentFooter)

	return writeZip(outPath, map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"_rels/.rels":         docxRels,
		"word/document.xml":   doc.String(),
	})
}
