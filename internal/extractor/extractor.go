// Package extractor adapts raw document bytes into the flat element model
// consumed by structure analysis. Extractors carry no detection logic; they
// only classify fragments (header/paragraph/list/table/text) and preserve
// order and page numbers.
package extractor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/contractlens/docstruct/internal/docmodel"
)

// Extractor converts raw document bytes into an ExtractedDocument.
type Extractor interface {
	Extract(r io.Reader, filename string) (*docmodel.ExtractedDocument, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

var mimeByExt = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// newDocument builds the document envelope and assigns element ordinals.
func newDocument(filename string, elements []docmodel.TextElement, totalPages int) *docmodel.ExtractedDocument {
	for i := range elements {
		elements[i].Position = i
		if elements[i].Page == 0 {
			elements[i].Page = 1
		}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if totalPages <= 0 {
		totalPages = 1
	}
	return &docmodel.ExtractedDocument{
		SourceID:       strings.TrimSuffix(filepath.Base(filename), ext),
		MimeType:       mimeByExt[ext],
		Elements:       elements,
		TotalPages:     totalPages,
		ExtractionTime: time.Now(),
	}
}
