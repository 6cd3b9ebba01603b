package analyzer

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/contractlens/docstruct/internal/docmodel"
)

func testAnalyzer(minSection int) *Analyzer {
	cfg := DefaultConfig()
	cfg.Detector.MinSectionLength = minSection
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func contractDoc() *docmodel.ExtractedDocument {
	return &docmodel.ExtractedDocument{
		SourceID: "contract-1",
		Elements: []docmodel.TextElement{
			{Kind: docmodel.KindParagraph, Content: "1. Предмет договора", Position: 0},
			{Kind: docmodel.KindParagraph, Content: "Исполнитель обязуется оказать услуги, перечисленные в приложении к договору.", Position: 1},
			{Kind: docmodel.KindParagraph, Content: "2. Оплата", Position: 2},
			{Kind: docmodel.KindParagraph, Content: "Заказчик оплачивает услуги в течение десяти банковских дней после подписания акта.", Position: 3},
		},
	}
}

func TestAnalyzeContract(t *testing.T) {
	a := testAnalyzer(20)
	result := a.Analyze(contractDoc())

	if len(result.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(result.Sections))
	}
	if result.Sections[0].Title != "Предмет договора" || result.Sections[1].Title != "Оплата" {
		t.Errorf("titles = %q, %q", result.Sections[0].Title, result.Sections[1].Title)
	}
	if result.AverageConfidence != 0.7 {
		t.Errorf("average confidence = %v, want 0.7", result.AverageConfidence)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if result.Sections[0].Start > result.Sections[1].Start {
		t.Error("sections not ordered by start position")
	}
	if result.DocumentID != "contract-1" {
		t.Errorf("document id = %q", result.DocumentID)
	}
}

func TestAnalyzeStatistics(t *testing.T) {
	a := testAnalyzer(20)
	result := a.Analyze(contractDoc())

	stats := result.Statistics
	if stats["total_sections"] != 2 {
		t.Errorf("total_sections = %v", stats["total_sections"])
	}
	byLevel, ok := stats["sections_by_level"].(map[string]int)
	if !ok || byLevel["1"] != 2 {
		t.Errorf("sections_by_level = %v", stats["sections_by_level"])
	}
	if stats["total_content_length"].(int) <= 0 {
		t.Errorf("total_content_length = %v", stats["total_content_length"])
	}
	if stats["average_section_length"].(float64) <= 0 {
		t.Errorf("average_section_length = %v", stats["average_section_length"])
	}
	if cov := stats["coverage_percentage"].(float64); cov <= 0 || cov > 100 {
		t.Errorf("coverage_percentage = %v", cov)
	}
}

func TestAnalyzeNoSections(t *testing.T) {
	a := testAnalyzer(50)
	doc := &docmodel.ExtractedDocument{
		SourceID: "empty-1",
		Elements: []docmodel.TextElement{
			{Kind: docmodel.KindParagraph, Content: strings.Repeat("lorem ipsum dolor sit amet consectetur ", 4)},
		},
	}

	result := a.Analyze(doc)
	if len(result.Sections) != 0 {
		t.Fatalf("got %d sections, want 0", len(result.Sections))
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "no sections") {
		t.Errorf("warnings = %v", result.Warnings)
	}
	if result.Statistics["total_sections"] != 0 {
		t.Errorf("total_sections = %v", result.Statistics["total_sections"])
	}
}

func TestAnalyzeLowConfidenceWarning(t *testing.T) {
	a := testAnalyzer(10)
	doc := &docmodel.ExtractedDocument{
		SourceID: "heuristic-1",
		Elements: []docmodel.TextElement{
			{Kind: docmodel.KindParagraph, Content: "общие положения взаимодействия:"},
			{Kind: docmodel.KindParagraph, Content: "стороны взаимодействуют добросовестно и без промедления."},
		},
	}

	result := a.Analyze(doc)
	if len(result.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(result.Sections))
	}

	var sawLowSection, sawLowAverage bool
	for _, w := range result.Warnings {
		if strings.Contains(w, "confidence below 0.7") {
			sawLowSection = true
		}
		if strings.Contains(w, "below 0.6") {
			sawLowAverage = true
		}
	}
	if !sawLowSection {
		t.Errorf("missing low-section-confidence warning: %v", result.Warnings)
	}
	if !sawLowAverage {
		t.Errorf("missing low-average-confidence warning: %v", result.Warnings)
	}
}

func TestAnalyzeConfidenceFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.8 // above the pattern tier
	cfg.Detector.MinSectionLength = 20
	a := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	result := a.Analyze(contractDoc())
	if len(result.Sections) != 0 {
		t.Errorf("got %d sections, want 0 after confidence filter", len(result.Sections))
	}
}

func TestAnalyzeBatch(t *testing.T) {
	a := testAnalyzer(20)
	docs := map[string]*docmodel.ExtractedDocument{
		"a": contractDoc(),
		"b": contractDoc(),
		"c": contractDoc(),
	}

	results := a.AnalyzeBatch(docs)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for key, res := range results {
		if res == nil {
			t.Fatalf("nil result for %q", key)
		}
		if len(res.Sections) != 2 {
			t.Errorf("doc %q: %d sections, want 2", key, len(res.Sections))
		}
	}
}

func TestCanAnalyze(t *testing.T) {
	a := testAnalyzer(50)

	long := strings.Repeat("содержание договора и условия сторон ", 5)

	tests := []struct {
		name string
		doc  *docmodel.ExtractedDocument
		want bool
	}{
		{"nil", nil, false},
		{"no elements", &docmodel.ExtractedDocument{}, false},
		{"too short", &docmodel.ExtractedDocument{
			Elements: []docmodel.TextElement{{Kind: docmodel.KindParagraph, Content: "короткий"}},
		}, false},
		{"viable", &docmodel.ExtractedDocument{
			Elements: []docmodel.TextElement{{Kind: docmodel.KindParagraph, Content: long}},
		}, true},
		{"extraction error but viable", &docmodel.ExtractedDocument{
			Elements: []docmodel.TextElement{{Kind: docmodel.KindParagraph, Content: long}},
			Metadata: map[string]string{"extraction_error": "ocr fallback"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.CanAnalyze(tt.doc); got != tt.want {
				t.Errorf("CanAnalyze = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MinConfidence != 0.3 || cfg.BatchConcurrency != 4 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Detector.Patterns == nil {
		t.Error("default detector config missing patterns")
	}
}
