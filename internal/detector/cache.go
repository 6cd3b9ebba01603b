package detector

import "hash/fnv"

// matchCache memoizes per-element pattern and heuristic decisions within one
// analysis run. Legal documents repeat boilerplate phrases heavily, so the
// same trimmed text is evaluated once. The cache is owned by a single run
// and is not safe for concurrent use.
type matchCache struct {
	pattern   map[uint64]*patternMatch // nil entry = cached miss
	heuristic map[uint64]bool
}

func newMatchCache() *matchCache {
	c := &matchCache{}
	c.Clear()
	return c
}

// Clear drops all memoized decisions.
func (c *matchCache) Clear() {
	c.pattern = make(map[uint64]*patternMatch)
	c.heuristic = make(map[uint64]bool)
}

func (c *matchCache) patternFor(key uint64) (*patternMatch, bool) {
	m, ok := c.pattern[key]
	return m, ok
}

func (c *matchCache) putPattern(key uint64, m *patternMatch) {
	c.pattern[key] = m
}

func (c *matchCache) heuristicFor(key uint64) (bool, bool) {
	v, ok := c.heuristic[key]
	return v, ok
}

func (c *matchCache) putHeuristic(key uint64, v bool) {
	c.heuristic[key] = v
}

// contentKey hashes trimmed element text for cache lookup.
func contentKey(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
