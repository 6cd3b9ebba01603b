// Package anchor generates and recognizes the unique section markers that
// correlate original document content with model-generated content across
// the whole round trip.
package anchor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Marker grammar: <!--anchor:<slug>_<hash6>-->. The comment-like delimiters
// cannot occur in prose, so scanning plain text never yields false positives.
const (
	Prefix = "<!--anchor:"
	Suffix = "-->"

	hashLen     = 6
	maxAttempts = 32
)

// ErrRegistryExhausted is returned when collision resolution runs out of
// attempts. This indicates a caller bug (e.g. re-generating for the same
// pair in a loop), not a data problem.
var ErrRegistryExhausted = errors.New("anchor registry exhausted collision attempts")

var markerRe = regexp.MustCompile(`<!--anchor:([a-z0-9-]+_[0-9a-f]{6,})-->`)

// Registry tracks anchors issued during a single analysis run. One registry
// exists per run; concurrent analyses of different documents each own their
// own instance. Not safe for concurrent use.
type Registry struct {
	used    map[string]struct{}
	byToken map[string]string // token -> section id
}

// NewRegistry returns an empty per-run registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset clears all issued anchors. Call once per independent document analysis.
func (r *Registry) Reset() {
	r.used = make(map[string]struct{})
	r.byToken = make(map[string]string)
}

// Generate builds a unique anchor marker for a section. The base is a
// transliterated slug of the title plus a short content hash of id+title;
// collisions grow the hash deterministically until unique.
func (r *Registry) Generate(id, title string) (string, error) {
	slug := Slugify(title)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		token := slug + "_" + contentHash(id, title, attempt)
		marker := Prefix + token + Suffix
		if _, taken := r.used[marker]; taken {
			continue
		}
		r.used[marker] = struct{}{}
		r.byToken[token] = id
		return marker, nil
	}
	return "", fmt.Errorf("%w: id=%s", ErrRegistryExhausted, id)
}

// ExtractID recovers the section id a marker was issued for. Returns false
// when the text does not match the anchor grammar or the marker was not
// issued by this registry.
func (r *Registry) ExtractID(anchorText string) (string, bool) {
	token, ok := Token(anchorText)
	if !ok {
		return "", false
	}
	id, ok := r.byToken[token]
	return id, ok
}

// Token parses a full marker and returns its inner token.
func Token(marker string) (string, bool) {
	m := markerRe.FindStringSubmatch(marker)
	if m == nil || m[0] != marker {
		return "", false
	}
	return m[1], true
}

// IsToken reports whether s has the shape of an anchor token (slug_hash).
func IsToken(s string) bool {
	return tokenRe.MatchString(s)
}

var tokenRe = regexp.MustCompile(`^[a-z0-9-]+_[0-9a-f]{6,}$`)

// Marker wraps a bare token back into the full marker form.
func Marker(token string) string {
	return Prefix + token + Suffix
}

// FindAll returns every well-formed marker in text, in left-to-right order.
func FindAll(text string) []string {
	return markerRe.FindAllString(text, -1)
}

// FindTokens returns the inner tokens of every marker in text, in order.
func FindTokens(text string) []string {
	matches := markerRe.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[1])
	}
	return tokens
}

// Match locates one marker occurrence inside a larger text.
type Match struct {
	Token string
	Start int // byte offset of the marker
	End   int // byte offset just past the marker
}

// Matches returns marker occurrences with byte offsets, left to right.
func Matches(text string) []Match {
	idx := markerRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]Match, 0, len(idx))
	for _, loc := range idx {
		out = append(out, Match{
			Token: text[loc[2]:loc[3]],
			Start: loc[0],
			End:   loc[1],
		})
	}
	return out
}

// MarkerPattern exposes the marker regexp for packages that splice around
// anchors without going through the registry.
func MarkerPattern() *regexp.Regexp {
	return markerRe
}

func contentHash(id, title string, attempt int) string {
	h := sha256.New()
	h.Write([]byte(id))
	h.Write([]byte{0})
	h.Write([]byte(title))
	if attempt > 0 {
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(attempt)))
	}
	sum := h.Sum(nil)
	// Collisions extend the hash by two hex chars per attempt so the marker
	// stays deterministic for a given (id, title, attempt).
	n := hashLen + 2*attempt
	if n > len(sum)*2 {
		n = len(sum) * 2
	}
	return hex.EncodeToString(sum)[:n]
}
