package docmodel

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ElementKind classifies a text fragment produced by an extractor.
type ElementKind string

const (
	KindHeader    ElementKind = "header"
	KindParagraph ElementKind = "paragraph"
	KindList      ElementKind = "list"
	KindTable     ElementKind = "table"
	KindText      ElementKind = "text"
)

// TextElement is a single typed fragment of extracted document text.
// Elements are produced once by an extractor and consumed read-only.
type TextElement struct {
	Kind     ElementKind       `json:"kind"`
	Content  string            `json:"content"`
	Level    int               `json:"level,omitempty"` // heading level, 0 when not a header
	Position int               `json:"position"`        // ordinal within the document
	Page     int               `json:"page"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ExtractedDocument is the ordered element list for one source document.
type ExtractedDocument struct {
	SourceID       string            `json:"source_id"`
	MimeType       string            `json:"mime_type"`
	Elements       []TextElement     `json:"elements"`
	TotalPages     int               `json:"total_pages"`
	ExtractionTime time.Time         `json:"extraction_time"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// PlainText joins all element contents with newlines.
func (d *ExtractedDocument) PlainText() string {
	var sb strings.Builder
	for _, el := range d.Elements {
		if el.Content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(el.Content)
	}
	return sb.String()
}

// DocumentSection is a contiguous, titled span of document content scored
// with a detection confidence. Sections are value objects: the detector and
// the merge operation construct new instances, nothing mutates them after.
type DocumentSection struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Level          int               `json:"level"` // 1..10
	Start          int               `json:"start"` // first element position
	End            int               `json:"end"`   // last element position, >= Start
	Anchor         string            `json:"anchor"`
	SourceElements []TextElement     `json:"-"`
	Subsections    []DocumentSection `json:"subsections,omitempty"`
	Confidence     float64           `json:"confidence"` // 0..1
	Metadata       map[string]any    `json:"metadata,omitempty"`
}

// ContentLength returns the section content length in characters (runes).
func (s DocumentSection) ContentLength() int {
	return utf8.RuneCountInString(s.Content)
}

// StructureAnalysisResult is the outcome of one analysis run. It is always
// populated: failed analyses yield zero sections plus explanatory metadata
// and warnings, never an error.
type StructureAnalysisResult struct {
	DocumentID        string            `json:"document_id"`
	Sections          []DocumentSection `json:"sections"`
	AnalysisTime      time.Duration     `json:"analysis_time"`
	AverageConfidence float64           `json:"average_confidence"`
	Statistics        map[string]any    `json:"statistics"`
	Metadata          map[string]any    `json:"metadata,omitempty"`
	Warnings          []string          `json:"warnings"`
}
