package detector

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules is the externally loadable detection configuration: the regex
// pattern groups tried by the pattern strategy and the keyword list used by
// the heuristic strategy. Patterns are data, not code, so deployments can
// tune them per document corpus.
type Rules struct {
	Numbered   []string `yaml:"numbered"`
	Subsection []string `yaml:"subsection"`
	Named      []string `yaml:"named"`
	Keywords   []string `yaml:"keywords"`
}

// DefaultRules covers the legal-document corpus this service was built for:
// Russian and English contract headings.
func DefaultRules() Rules {
	return Rules{
		Numbered: []string{
			`^(\d+)\.\s+(.+)$`,
			`^(\d+)\)\s+(.+)$`,
			`(?i)^(раздел\s+\d+)\.?\s*(.*)$`,
			`(?i)^(статья\s+\d+)\.?\s*(.*)$`,
			`(?i)^(глава\s+\d+)\.?\s*(.*)$`,
			`(?i)^(section\s+\d+)\.?\s*(.*)$`,
			`(?i)^(article\s+\d+)\.?\s*(.*)$`,
		},
		Subsection: []string{
			`^(\d+(?:\.\d+)+)\.?\s+(.+)$`,
		},
		Named: []string{
			`(?i)^(введение|заключение|преамбула|приложение|термины и определения|реквизиты сторон)\s*:?\s*(.*)$`,
			`(?i)^(introduction|conclusion|preamble|appendix|definitions|recitals)\s*:?\s*(.*)$`,
		},
		Keywords: []string{
			"договор", "сторона", "обязательство", "ответственность",
			"соглашение", "условие", "порядок", "оплата", "срок",
		},
	}
}

// LoadRules reads a YAML rules file. Empty groups fall back to the defaults
// so a file may override only the keywords, say.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	def := DefaultRules()
	if len(r.Numbered) == 0 {
		r.Numbered = def.Numbered
	}
	if len(r.Subsection) == 0 {
		r.Subsection = def.Subsection
	}
	if len(r.Named) == 0 {
		r.Named = def.Named
	}
	if len(r.Keywords) == 0 {
		r.Keywords = def.Keywords
	}
	return r, nil
}

type patternClass int

const (
	classNumbered patternClass = iota
	classSubsection
	classNamed
)

func (c patternClass) String() string {
	switch c {
	case classNumbered:
		return "numbered"
	case classSubsection:
		return "subsection"
	case classNamed:
		return "named"
	}
	return "unknown"
}

const (
	// maxPatternLength bounds user-supplied patterns at load time.
	maxPatternLength = 512
	// maxScanBytes bounds the text a pattern is matched against. Headings
	// are short; anything longer is body text.
	maxScanBytes = 512
)

type compiledPattern struct {
	class patternClass
	re    *regexp.Regexp
}

// PatternSet holds validated, compiled heading patterns in match order.
// It is read-only after compilation and shared across analysis runs.
type PatternSet struct {
	patterns []compiledPattern
}

// CompilePatterns validates and compiles every pattern in the rules. A rules
// file with an invalid or oversized pattern is a configuration error caught
// here, at load time, not during analysis.
func CompilePatterns(r Rules) (*PatternSet, error) {
	ps := &PatternSet{}
	groups := []struct {
		class    patternClass
		patterns []string
	}{
		{classNumbered, r.Numbered},
		{classSubsection, r.Subsection},
		{classNamed, r.Named},
	}
	for _, g := range groups {
		for _, raw := range g.patterns {
			if len(raw) > maxPatternLength {
				return nil, fmt.Errorf("pattern too long (%d bytes): %.40s...", len(raw), raw)
			}
			re, err := regexp.Compile(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", raw, err)
			}
			ps.patterns = append(ps.patterns, compiledPattern{class: g.class, re: re})
		}
	}
	return ps, nil
}

// patternMatch is a successful heading match: the numbering/keyword prefix
// and the remaining title text.
type patternMatch struct {
	class  patternClass
	prefix string
	title  string
}

// match tries every pattern in order against the first line of text and
// returns the first hit. Matching is bounded: only a short prefix of the
// line is scanned, and Go's RE2 engine guarantees linear-time evaluation,
// so a pathological pattern or input degrades to a miss, never a stall.
func (ps *PatternSet) match(text string) *patternMatch {
	line := firstLine(strings.TrimSpace(text))
	if line == "" {
		return nil
	}
	line = truncateBytes(line, maxScanBytes)
	for _, p := range ps.patterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		pm := &patternMatch{class: p.class}
		if len(m) > 1 {
			pm.prefix = strings.TrimSpace(m[1])
		}
		if len(m) > 2 {
			pm.title = strings.TrimSpace(m[2])
		}
		if pm.title == "" {
			pm.title = pm.prefix
		}
		return pm
	}
	return nil
}

// level derives the heading depth from the match: the count of dot-separated
// numeric groups in the prefix, clamped to maxDepth, or 1 for keyword classes.
func (m *patternMatch) level(maxDepth int) int {
	prefix := strings.TrimSuffix(m.prefix, ".")
	parts := strings.Split(prefix, ".")
	numeric := 0
	for _, p := range parts {
		if p == "" || !allDigits(p) {
			numeric = 0
			break
		}
		numeric++
	}
	if numeric == 0 {
		return 1
	}
	if numeric > maxDepth {
		return maxDepth
	}
	return numeric
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
