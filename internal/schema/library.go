package schema

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Library is a named schema table. Schemas are registered at startup and
// read-only afterwards; the mutex only guards late registration.
type Library struct {
	mu      sync.RWMutex
	schemas map[string]*Node
}

// NewLibrary returns a library preloaded with the built-in schemas.
func NewLibrary() *Library {
	l := &Library{schemas: make(map[string]*Node)}
	l.Register("translation", TranslationSchema())
	return l
}

// Register adds or replaces a named schema.
func (l *Library) Register(name string, node *Node) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.schemas[name] = node
}

// Get looks up a schema by name.
func (l *Library) Get(name string) (*Node, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.schemas[name]
	return n, ok
}

// LoadFile registers schemas from a YAML file mapping names to nodes.
func (l *Library) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schemas: %w", err)
	}
	var loaded map[string]*Node
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse schemas: %w", err)
	}
	for name, node := range loaded {
		if node == nil || node.Type == "" {
			return fmt.Errorf("schema %q: missing type", name)
		}
		l.Register(name, node)
	}
	return nil
}

// TranslationSchema describes the JSON shape expected from the translation
// model: a sections array where every item carries its anchor, translated
// text and optional typed risks.
func TranslationSchema() *Node {
	one := 1
	return &Node{
		Type:     TypeObject,
		Required: []string{"sections"},
		Properties: map[string]*Node{
			"sections": {
				Type: TypeArray,
				Items: &Node{
					Type:     TypeObject,
					Required: []string{"anchor", "translated_text"},
					Properties: map[string]*Node{
						"anchor":          {Type: TypeString, MinLength: &one},
						"translated_text": {Type: TypeString, MinLength: &one},
						"title":           {Type: TypeString},
						"risks": {
							Type: TypeArray,
							Items: &Node{
								Type:     TypeObject,
								Required: []string{"type", "text"},
								Properties: map[string]*Node{
									"type": {Type: TypeString, Enum: []any{"contradiction", "risk", "warning"}},
									"text": {Type: TypeString},
								},
							},
						},
					},
				},
			},
		},
	}
}
