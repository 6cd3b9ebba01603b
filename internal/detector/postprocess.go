package detector

import (
	"maps"

	"github.com/contractlens/docstruct/internal/docmodel"
)

// postProcess folds undersized sections into their predecessors and drops
// what remains below the minimum length. Merging runs first so two adjacent
// short sections combine into one viable section instead of both vanishing.
func (d *Detector) postProcess(sections []docmodel.DocumentSection) []docmodel.DocumentSection {
	minLen := d.cfg.MinSectionLength
	if minLen <= 0 {
		return sections
	}

	// Left-to-right running buffer: a section shorter than twice the
	// minimum is absorbed into its predecessor.
	var merged []docmodel.DocumentSection
	for _, s := range sections {
		if len(merged) > 0 && s.ContentLength() < 2*minLen {
			merged[len(merged)-1] = mergeSections(merged[len(merged)-1], s)
			continue
		}
		merged = append(merged, s)
	}

	out := merged[:0]
	for _, s := range merged {
		if s.ContentLength() >= minLen {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mergeSections builds a new section from two adjacent ones. The absorbing
// section keeps its id and anchor; the absorbed id is recorded in metadata.
// Neither input is mutated.
func mergeSections(a, b docmodel.DocumentSection) docmodel.DocumentSection {
	title := a.Title
	if len([]rune(b.Title)) > len([]rune(a.Title)) {
		title = b.Title
	}

	content := a.Content
	if b.Content != "" {
		if content != "" {
			content += "\n"
		}
		content += b.Content
	}

	meta := make(map[string]any, len(a.Metadata)+1)
	maps.Copy(meta, a.Metadata)
	meta["merged_with"] = b.ID

	elems := make([]docmodel.TextElement, 0, len(a.SourceElements)+len(b.SourceElements))
	elems = append(elems, a.SourceElements...)
	elems = append(elems, b.SourceElements...)

	return docmodel.DocumentSection{
		ID:             a.ID,
		Title:          title,
		Content:        content,
		Level:          min(a.Level, b.Level),
		Start:          a.Start,
		End:            b.End,
		Anchor:         a.Anchor,
		SourceElements: elems,
		Subsections:    append(append([]docmodel.DocumentSection(nil), a.Subsections...), b.Subsections...),
		Confidence:     min(a.Confidence, b.Confidence),
		Metadata:       meta,
	}
}
