// Package analyzer is the public entry point for document structure
// analysis. It orchestrates detection, confidence filtering, ordering,
// statistics and warning generation, and guarantees a populated result:
// failures become data on the result, never errors past this boundary.
package analyzer

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/contractlens/docstruct/internal/anchor"
	"github.com/contractlens/docstruct/internal/detector"
	"github.com/contractlens/docstruct/internal/docmodel"
)

// Config controls analysis behavior.
type Config struct {
	MinConfidence     float64       // sections below this are filtered out
	TimeBudget        time.Duration // soft budget; overruns warn, never cancel
	MinDocumentLength int           // minimum viable plain-text length in chars
	BatchConcurrency  int           // parallel documents in AnalyzeBatch

	Detector detector.Config
}

// Thresholds for soft diagnostics on the result.
const (
	lowSectionConfidence = 0.7
	lowAverageConfidence = 0.6
	budgetWarnFraction   = 0.8
)

// DefaultConfig returns analysis defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence:     0.3,
		TimeBudget:        120 * time.Second,
		MinDocumentLength: 100,
		BatchConcurrency:  4,
		Detector:          detector.DefaultConfig(),
	}
}

// Analyzer runs structure analysis over extracted documents. Safe for
// concurrent use: every Analyze call owns its own registry and cache.
type Analyzer struct {
	cfg Config
	log *slog.Logger
}

// New creates an analyzer.
func New(cfg Config, log *slog.Logger) *Analyzer {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.3
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = 120 * time.Second
	}
	if cfg.MinDocumentLength <= 0 {
		cfg.MinDocumentLength = 100
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	if cfg.Detector.Patterns == nil {
		cfg.Detector = detector.DefaultConfig()
	}
	return &Analyzer{cfg: cfg, log: log}
}

// Analyze discovers the section structure of a document. It always returns
// a populated result; any failure inside the pipeline is converted into a
// zero-section result carrying the cause in metadata and warnings.
func (a *Analyzer) Analyze(doc *docmodel.ExtractedDocument) (result *docmodel.StructureAnalysisResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("analysis panicked", "doc_id", doc.SourceID, "panic", r)
			result = a.failedResult(doc, start, fmt.Errorf("internal error: %v", r))
		}
	}()

	reg := anchor.NewRegistry()
	det := detector.New(a.cfg.Detector, reg)

	sections, err := det.Detect(doc.Elements)
	if err != nil {
		a.log.Error("detection failed", "doc_id", doc.SourceID, "error", err)
		return a.failedResult(doc, start, err)
	}

	// Confidence filter, then hierarchy ordering by start position.
	kept := sections[:0]
	for _, s := range sections {
		if s.Confidence >= a.cfg.MinConfidence {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	elapsed := time.Since(start)
	avg := averageConfidence(kept)

	result = &docmodel.StructureAnalysisResult{
		DocumentID:        doc.SourceID,
		Sections:          kept,
		AnalysisTime:      elapsed,
		AverageConfidence: avg,
		Statistics:        a.statistics(doc, kept),
		Metadata:          map[string]any{},
		Warnings:          a.warnings(kept, avg, elapsed),
	}

	a.log.Info("analysis complete",
		"doc_id", doc.SourceID,
		"sections", len(kept),
		"avg_confidence", avg,
		"duration_ms", elapsed.Milliseconds(),
	)
	return result
}

// AnalyzeBatch analyzes documents independently with bounded parallelism.
// One document's failure never aborts the batch: Analyze already converts
// failures into degraded results.
func (a *Analyzer) AnalyzeBatch(docs map[string]*docmodel.ExtractedDocument) map[string]*docmodel.StructureAnalysisResult {
	results := make(map[string]*docmodel.StructureAnalysisResult, len(docs))

	var g errgroup.Group
	g.SetLimit(a.cfg.BatchConcurrency)

	type keyed struct {
		key string
		res *docmodel.StructureAnalysisResult
	}
	out := make(chan keyed, len(docs))

	for key, doc := range docs {
		key, doc := key, doc
		g.Go(func() error {
			out <- keyed{key: key, res: a.Analyze(doc)}
			return nil
		})
	}
	g.Wait()
	close(out)

	for kr := range out {
		results[kr.key] = kr.res
	}
	return results
}

// CanAnalyze gates obviously unviable input: no elements, or plain text
// below the minimum length. Upstream extraction errors are logged but do
// not block analysis; such documents just score lower confidence.
func (a *Analyzer) CanAnalyze(doc *docmodel.ExtractedDocument) bool {
	if doc == nil || len(doc.Elements) == 0 {
		return false
	}
	if msg := doc.Metadata["extraction_error"]; msg != "" {
		a.log.Warn("document carries extraction error, analyzing anyway",
			"doc_id", doc.SourceID, "error", msg)
	}
	return utf8.RuneCountInString(doc.PlainText()) >= a.cfg.MinDocumentLength
}

func (a *Analyzer) failedResult(doc *docmodel.ExtractedDocument, start time.Time, err error) *docmodel.StructureAnalysisResult {
	return &docmodel.StructureAnalysisResult{
		DocumentID:   doc.SourceID,
		Sections:     nil,
		AnalysisTime: time.Since(start),
		Statistics:   map[string]any{"total_sections": 0},
		Metadata:     map[string]any{"error": err.Error()},
		Warnings:     []string{fmt.Sprintf("structure analysis failed: %s", err)},
	}
}

func (a *Analyzer) statistics(doc *docmodel.ExtractedDocument, sections []docmodel.DocumentSection) map[string]any {
	byLevel := make(map[string]int)
	totalChars := 0
	for _, s := range sections {
		byLevel[strconv.Itoa(s.Level)]++
		totalChars += s.ContentLength()
	}

	avgLen := 0.0
	if len(sections) > 0 {
		avgLen = float64(totalChars) / float64(len(sections))
	}

	coverage := 0.0
	if docChars := utf8.RuneCountInString(doc.PlainText()); docChars > 0 {
		coverage = float64(totalChars) / float64(docChars) * 100
	}

	return map[string]any{
		"total_sections":         len(sections),
		"sections_by_level":      byLevel,
		"total_content_length":   totalChars,
		"average_section_length": avgLen,
		"coverage_percentage":    coverage,
	}
}

func (a *Analyzer) warnings(sections []docmodel.DocumentSection, avg float64, elapsed time.Duration) []string {
	warnings := []string{}
	if len(sections) == 0 {
		warnings = append(warnings, "no sections detected in document")
		return warnings
	}

	low := 0
	for _, s := range flatten(sections) {
		if s.Confidence < lowSectionConfidence {
			low++
		}
	}
	if low > 0 {
		warnings = append(warnings, fmt.Sprintf("%d sections detected with confidence below %.1f", low, lowSectionConfidence))
	}
	if budget := time.Duration(float64(a.cfg.TimeBudget) * budgetWarnFraction); elapsed > budget {
		warnings = append(warnings, fmt.Sprintf("analysis took %s, over %.0f%% of the %s budget",
			elapsed.Round(time.Millisecond), budgetWarnFraction*100, a.cfg.TimeBudget))
	}
	if avg < lowAverageConfidence {
		warnings = append(warnings, fmt.Sprintf("average confidence %.2f is below %.1f", avg, lowAverageConfidence))
	}
	return warnings
}

// averageConfidence averages over the flattened section set: top-level
// sections plus all subsections, recursively.
func averageConfidence(sections []docmodel.DocumentSection) float64 {
	flat := flatten(sections)
	if len(flat) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range flat {
		sum += s.Confidence
	}
	return sum / float64(len(flat))
}

func flatten(sections []docmodel.DocumentSection) []docmodel.DocumentSection {
	var out []docmodel.DocumentSection
	for _, s := range sections {
		out = append(out, s)
		out = append(out, flatten(s.Subsections)...)
	}
	return out
}
