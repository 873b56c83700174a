// Package extract turns downloaded documents into plain text. Every
// extractor is stateless and fault tolerant: corrupt input yields "".
package extract

import (
	"log/slog"
	"strings"

	"subsidyscout/internal/model"
)

// Extractor converts a document body into text.
type Extractor func(data []byte) (string, error)

var registry = map[model.DocumentType]Extractor{
	model.DocumentTypePDF:  PDF,
	model.DocumentTypeDOCX: DOCX,
	model.DocumentTypeXLSX: XLSX,
}

// For returns the extractor for docType. Types without a dedicated
// extractor (pptx, unknown) get a no-op.
func For(docType model.DocumentType) Extractor {
	if ex, ok := registry[docType]; ok {
		return ex
	}
	return Noop
}

// Noop extracts nothing.
func Noop([]byte) (string, error) {
	return "", nil
}

// Text runs the extractor for docType, recovering from panics inside
// third-party parsers. Failures are logged at debug level and reported
// as empty text.
func Text(docType model.DocumentType, data []byte) (text string) {
	if len(data) == 0 {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("document extractor panicked", "type", docType, "panic", r)
			text = ""
		}
	}()

	out, err := For(docType)(data)
	if err != nil {
		slog.Debug("document extraction failed", "type", docType, "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}
