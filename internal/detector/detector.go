// Package detector discovers the logical section structure of an extracted
// document using layered heuristics: structural headers first, then heading
// regex patterns, then free-form heuristics. Each tier carries a confidence
// reflecting how the boundary was found.
package detector

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/contractlens/docstruct/internal/anchor"
	"github.com/contractlens/docstruct/internal/docmodel"
)

// Config controls detection behavior. Confidence values are ordered:
// header-based sections never score below pattern-based ones, and
// pattern-based never below heuristic ones.
type Config struct {
	HeaderConfidence    float64
	PatternConfidence   float64
	HeuristicConfidence float64

	MinSectionLength int // sections shorter than this are merged/dropped
	MaxTitleLength   int // heuristic: colon-terminated line length cap
	ShortLineLength  int // heuristic: "short capitalized line" cap
	MaxDepth         int // deepest numbered subsection level

	Patterns *PatternSet
	Keywords []string
}

// DefaultConfig returns detection defaults tuned for contract documents.
// Callers must not mutate the returned pattern set or keyword list.
func DefaultConfig() Config {
	ps, err := CompilePatterns(DefaultRules())
	if err != nil {
		// Built-in patterns are covered by tests; a failure here is a
		// programming error.
		panic(fmt.Sprintf("detector: default patterns: %v", err))
	}
	return Config{
		HeaderConfidence:    0.9,
		PatternConfidence:   0.7,
		HeuristicConfidence: 0.5,
		MinSectionLength:    50,
		MaxTitleLength:      120,
		ShortLineLength:     100,
		MaxDepth:            6,
		Patterns:            ps,
		Keywords:            DefaultRules().Keywords,
	}
}

// Detector turns an ordered element list into confidence-scored sections.
// Each instance owns a per-run anchor registry and match cache; one detector
// serves exactly one analysis run.
type Detector struct {
	cfg     Config
	anchors *anchor.Registry
	cache   *matchCache
}

// New creates a detector bound to the given per-run anchor registry.
func New(cfg Config, reg *anchor.Registry) *Detector {
	if cfg.Patterns == nil {
		cfg = DefaultConfig()
	}
	return &Detector{
		cfg:     cfg,
		anchors: reg,
		cache:   newMatchCache(),
	}
}

// ClearCache drops memoized match decisions.
func (d *Detector) ClearCache() {
	d.cache.Clear()
}

// candidate is a section boundary found by a strategy, before ids, anchors
// and post-processing are applied.
type candidate struct {
	title    string
	level    int
	extra    string // boundary element text beyond the title line
	boundary docmodel.TextElement
	body     []docmodel.TextElement
	method   string
}

// Detect runs the strategy tiers in order, stopping at the first tier that
// produces candidates, then builds and post-processes sections. A document
// in which no tier finds anything yields zero sections, not an error.
func (d *Detector) Detect(elements []docmodel.TextElement) ([]docmodel.DocumentSection, error) {
	strategies := []struct {
		name       string
		confidence float64
		run        func([]docmodel.TextElement) []candidate
	}{
		{"header", d.cfg.HeaderConfidence, d.detectByHeaders},
		{"pattern", d.cfg.PatternConfidence, d.detectByPatterns},
		{"heuristic", d.cfg.HeuristicConfidence, d.detectByHeuristics},
	}

	for _, s := range strategies {
		cands := s.run(elements)
		if len(cands) == 0 {
			continue
		}
		sections, err := d.buildSections(cands, s.confidence)
		if err != nil {
			return nil, err
		}
		return d.postProcess(sections), nil
	}
	return nil, nil
}

// detectByHeaders treats each Header element as a section boundary and
// accumulates following non-header elements into the open section.
func (d *Detector) detectByHeaders(elements []docmodel.TextElement) []candidate {
	var cands []candidate
	for _, el := range elements {
		if el.Kind == docmodel.KindHeader && strings.TrimSpace(el.Content) != "" {
			level := el.Level
			if level < 1 {
				level = 1
			}
			if level > d.cfg.MaxDepth {
				level = d.cfg.MaxDepth
			}
			cands = append(cands, candidate{
				title:    strings.TrimSpace(el.Content),
				level:    level,
				boundary: el,
				method:   "header",
			})
			continue
		}
		if len(cands) == 0 {
			continue // preamble before the first header
		}
		cands[len(cands)-1].body = append(cands[len(cands)-1].body, el)
	}
	return cands
}

// detectByPatterns matches each element's leading line against the
// configured heading patterns. First match wins; its captures give the
// numbering prefix and title.
func (d *Detector) detectByPatterns(elements []docmodel.TextElement) []candidate {
	var cands []candidate
	for _, el := range elements {
		trimmed := strings.TrimSpace(el.Content)
		if trimmed == "" {
			continue
		}
		if m := d.matchPattern(trimmed); m != nil {
			cands = append(cands, candidate{
				title:    m.title,
				level:    m.level(d.cfg.MaxDepth),
				extra:    afterFirstLine(trimmed),
				boundary: el,
				method:   "pattern_" + m.class.String(),
			})
			continue
		}
		if len(cands) == 0 {
			continue
		}
		cands[len(cands)-1].body = append(cands[len(cands)-1].body, el)
	}
	return cands
}

// detectByHeuristics is the low-confidence fallback: an element opens a
// section when it looks like a title line or is dense with legal keywords.
func (d *Detector) detectByHeuristics(elements []docmodel.TextElement) []candidate {
	var cands []candidate
	for _, el := range elements {
		trimmed := strings.TrimSpace(el.Content)
		if trimmed == "" {
			continue
		}
		if d.isSectionStart(trimmed) {
			title := strings.TrimSuffix(firstLine(trimmed), ":")
			cands = append(cands, candidate{
				title:    strings.TrimSpace(title),
				level:    1,
				extra:    afterFirstLine(trimmed),
				boundary: el,
				method:   "heuristic",
			})
			continue
		}
		if len(cands) == 0 {
			continue
		}
		cands[len(cands)-1].body = append(cands[len(cands)-1].body, el)
	}
	return cands
}

// matchPattern memoizes pattern evaluation per distinct trimmed text.
func (d *Detector) matchPattern(trimmed string) *patternMatch {
	key := contentKey(trimmed)
	if m, ok := d.cache.patternFor(key); ok {
		return m
	}
	m := d.cfg.Patterns.match(trimmed)
	d.cache.putPattern(key, m)
	return m
}

// isSectionStart memoizes the heuristic boundary decision.
func (d *Detector) isSectionStart(trimmed string) bool {
	key := contentKey(trimmed)
	if v, ok := d.cache.heuristicFor(key); ok {
		return v
	}
	v := d.looksLikeSectionStart(trimmed)
	d.cache.putHeuristic(key, v)
	return v
}

func (d *Detector) looksLikeSectionStart(trimmed string) bool {
	line := firstLine(trimmed)
	n := len([]rune(line))
	if n == 0 {
		return false
	}
	if n <= d.cfg.MaxTitleLength && strings.HasSuffix(line, ":") {
		return true
	}
	if n < d.cfg.ShortLineLength && startsUpper(line) {
		return true
	}
	return d.keywordCount(trimmed) >= 2
}

func (d *Detector) keywordCount(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range d.cfg.Keywords {
		count += strings.Count(lower, kw)
	}
	return count
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// buildSections turns candidates into DocumentSections: joined content, a
// fresh collision-resistant id, and an anchor from the run's registry.
func (d *Detector) buildSections(cands []candidate, confidence float64) ([]docmodel.DocumentSection, error) {
	sections := make([]docmodel.DocumentSection, 0, len(cands))
	for _, c := range cands {
		var parts []string
		if c.extra != "" {
			parts = append(parts, c.extra)
		}
		for _, el := range c.body {
			if t := strings.TrimSpace(el.Content); t != "" {
				parts = append(parts, t)
			}
		}
		content := strings.Join(parts, "\n")

		id := uuid.NewString()
		a, err := d.anchors.Generate(id, c.title)
		if err != nil {
			return nil, fmt.Errorf("generate anchor for %q: %w", c.title, err)
		}

		end := c.boundary.Position
		if len(c.body) > 0 {
			end = c.body[len(c.body)-1].Position
		}

		elems := make([]docmodel.TextElement, 0, len(c.body)+1)
		elems = append(elems, c.boundary)
		elems = append(elems, c.body...)

		sections = append(sections, docmodel.DocumentSection{
			ID:             id,
			Title:          c.title,
			Content:        content,
			Level:          c.level,
			Start:          c.boundary.Position,
			End:            end,
			Anchor:         a,
			SourceElements: elems,
			Confidence:     confidence,
			Metadata: map[string]any{
				"detection_method": c.method,
				"element_kinds":    distinctKinds(elems),
			},
		})
	}
	return sections, nil
}

func distinctKinds(elems []docmodel.TextElement) []string {
	seen := make(map[string]struct{}, 4)
	var kinds []string
	for _, el := range elems {
		k := string(el.Kind)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func afterFirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return ""
}
