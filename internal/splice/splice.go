// Package splice extracts and replaces per-anchor content inside an
// anchored document string. Every operation degrades gracefully: text with
// no usable anchors becomes a single unanchored section, never an error,
// so export always has something to render.
package splice

import (
	"regexp"
	"strings"

	"github.com/contractlens/docstruct/internal/anchor"
)

// Content markers embedded alongside anchors in model-processed text.
const (
	TranslationMarker = "<!--translation-->"

	RiskContradiction = "contradiction"
	RiskRisk          = "risk"
	RiskWarning       = "warning"
)

// IntroID names the synthetic unanchored section that holds text appearing
// before the first anchor.
const IntroID = "intro"

var (
	contentMarkerRe = regexp.MustCompile(`<!--(translation|contradiction|risk|warning)-->`)
	numberingRe     = regexp.MustCompile(`^(?:#+\s+|[-*]\s+|\d+(?:\.\d+)*[.)]?\s+)`)
	stripRe         = regexp.MustCompile(anchor.MarkerPattern().String() + `[ \t]*\r?\n?`)
)

// Risk is a typed risk note attached to a section by the model.
type Risk struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// SplicedSection is one anchor-delimited slice of an anchored document.
type SplicedSection struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	OriginalText    string   `json:"original_text"`
	TranslatedTexts []string `json:"translated_texts"`
	Risks           []Risk   `json:"risks"`
	Anchor          string   `json:"anchor,omitempty"`
}

// ParsedContent is the result of splitting an anchored document.
type ParsedContent struct {
	OriginalText string           `json:"original_text"`
	Sections     []SplicedSection `json:"sections"`
	AnchorIDs    []string         `json:"anchor_ids"`
}

// ExtractSections splits text at anchor boundaries. Text before the first
// anchor becomes an unanchored intro section; each anchor opens a section
// running to the next anchor or end of text.
func ExtractSections(text string) ParsedContent {
	content := ParsedContent{OriginalText: text, AnchorIDs: []string{}}

	matches := anchor.Matches(text)
	if len(matches) == 0 {
		// Degenerate input: treat the whole text as one unanchored section.
		content.Sections = []SplicedSection{parseSlice(IntroID, "", text)}
		return content
	}

	if intro := text[:matches[0].Start]; strings.TrimSpace(intro) != "" {
		content.Sections = append(content.Sections, parseSlice(IntroID, "", intro))
	}

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1].Start
		}
		slice := text[m.End:end]
		content.Sections = append(content.Sections, parseSlice(m.Token, anchor.Marker(m.Token), slice))
		content.AnchorIDs = append(content.AnchorIDs, m.Token)
	}
	return content
}

// ListAnchors returns the anchor ids (inner tokens, not full markers) in
// left-to-right order.
func ListAnchors(text string) []string {
	return anchor.FindTokens(text)
}

// ReplaceAnchors substitutes the literal marker of every id in the map with
// its replacement, leaving unmatched anchors untouched. Substitution is
// exact-match, so operation order does not matter and the call is
// idempotent as long as replacement text contains no anchor markers — a
// caller obligation.
func ReplaceAnchors(text string, replacements map[string]string) string {
	for id, replacement := range replacements {
		text = strings.ReplaceAll(text, anchor.Marker(id), replacement)
	}
	return text
}

// StripAnchors removes every anchor marker together with its immediately
// trailing whitespace, preserving all other content. Idempotent.
func StripAnchors(text string) string {
	return stripRe.ReplaceAllString(text, "")
}

// parseSlice decomposes one anchor-delimited slice: title from the first
// non-empty line, original text up to the first content marker, translated
// texts and typed risks from the segments that follow their markers.
func parseSlice(id, anchorMarker, slice string) SplicedSection {
	sec := SplicedSection{
		ID:              id,
		Anchor:          anchorMarker,
		TranslatedTexts: []string{},
		Risks:           []Risk{},
	}

	locs := contentMarkerRe.FindAllStringSubmatchIndex(slice, -1)
	if len(locs) == 0 {
		sec.OriginalText = strings.TrimSpace(slice)
	} else {
		sec.OriginalText = strings.TrimSpace(slice[:locs[0][0]])
	}
	sec.Title = titleOf(sec.OriginalText)

	for i, loc := range locs {
		kind := slice[loc[2]:loc[3]]
		end := len(slice)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segment := strings.TrimSpace(slice[loc[1]:end])
		if kind == "translation" {
			sec.TranslatedTexts = append(sec.TranslatedTexts, segment)
			continue
		}
		sec.Risks = append(sec.Risks, Risk{Kind: kind, Text: segment})
	}
	return sec
}

// titleOf takes the first non-empty line and strips leading numbering or
// markdown markers.
func titleOf(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(numberingRe.ReplaceAllString(line, ""))
	}
	return ""
}
