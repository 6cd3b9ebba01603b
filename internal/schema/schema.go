// Package schema validates JSON text against declared shapes: types,
// required fields, bounds, enums and array item types. Violations split
// into hard errors and soft warnings so forward-compatible model output
// (extra fields) never fails validation.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type is the closed vocabulary of schema types.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Node is a recursive schema descriptor.
type Node struct {
	Type       Type             `json:"type" yaml:"type"`
	Required   []string         `json:"required,omitempty" yaml:"required"`     // object only
	Properties map[string]*Node `json:"properties,omitempty" yaml:"properties"` // object only
	Items      *Node            `json:"items,omitempty" yaml:"items"`           // array only
	Enum       []any            `json:"enum,omitempty" yaml:"enum"`
	MinLength  *int             `json:"min_length,omitempty" yaml:"min_length"`
	MaxLength  *int             `json:"max_length,omitempty" yaml:"max_length"`
	Minimum    *float64         `json:"minimum,omitempty" yaml:"minimum"`
	Maximum    *float64         `json:"maximum,omitempty" yaml:"maximum"`
}

// Outcome is the result of one validation. Errors are hard failures;
// warnings never affect validity.
type Outcome struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (o *Outcome) errorf(format string, args ...any) {
	o.Errors = append(o.Errors, fmt.Sprintf(format, args...))
}

func (o *Outcome) warnf(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks jsonText against the schema. Malformed JSON yields a
// single "Invalid JSON" error. Validity is simply the absence of errors.
func Validate(jsonText string, node *Node) Outcome {
	out := Outcome{Errors: []string{}, Warnings: []string{}}

	dec := json.NewDecoder(strings.NewReader(jsonText))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		out.errorf("Invalid JSON: %s", err)
		return out
	}

	if node != nil {
		checkValue("", value, node, &out)
	}
	out.Valid = len(out.Errors) == 0
	return out
}

func checkValue(path string, v any, n *Node, out *Outcome) {
	actual := typeName(v)
	if !typeMatches(n.Type, actual) {
		out.errorf("Field '%s' expected type '%s', got '%s'", displayPath(path), n.Type, actual)
		return
	}

	switch n.Type {
	case TypeObject:
		checkObject(path, v.(map[string]any), n, out)
	case TypeArray:
		checkArray(path, v.([]any), n, out)
	case TypeString:
		checkString(path, v.(string), n, out)
	case TypeNumber, TypeInteger:
		checkNumber(path, v.(json.Number), n, out)
	case TypeBoolean:
		// Type agreement is the whole check.
	}
}

func checkObject(path string, obj map[string]any, n *Node, out *Outcome) {
	for _, name := range n.Required {
		if _, ok := obj[name]; !ok {
			out.errorf("Missing required field: %s", joinPath(path, name))
		}
	}
	for name, v := range obj {
		child, declared := n.Properties[name]
		if !declared {
			// Extra fields support forward-compatible model output.
			out.warnf("Unexpected field: %s", joinPath(path, name))
			continue
		}
		if child != nil {
			checkValue(joinPath(path, name), v, child, out)
		}
	}
}

func checkArray(path string, arr []any, n *Node, out *Outcome) {
	if n.Items == nil {
		return
	}
	for i, item := range arr {
		checkValue(fmt.Sprintf("%s[%d]", displayPath(path), i), item, n.Items, out)
	}
}

func checkString(path string, s string, n *Node, out *Outcome) {
	length := len([]rune(s))
	if n.MinLength != nil && length < *n.MinLength {
		out.errorf("Field '%s' must be at least %d characters", displayPath(path), *n.MinLength)
	}
	if n.MaxLength != nil && length > *n.MaxLength {
		out.errorf("Field '%s' must be no more than %d characters", displayPath(path), *n.MaxLength)
	}
	if len(n.Enum) > 0 && !enumContains(n.Enum, s) {
		out.errorf("Field '%s' must be one of: %s", displayPath(path), enumList(n.Enum))
	}
}

func checkNumber(path string, num json.Number, n *Node, out *Outcome) {
	f, err := num.Float64()
	if err != nil {
		out.errorf("Field '%s' expected type '%s', got '%s'", displayPath(path), n.Type, "string")
		return
	}
	if n.Minimum != nil && f < *n.Minimum {
		out.errorf("Field '%s' must be at least %v", displayPath(path), *n.Minimum)
	}
	if n.Maximum != nil && f > *n.Maximum {
		out.errorf("Field '%s' must be no more than %v", displayPath(path), *n.Maximum)
	}
	if len(n.Enum) > 0 && !enumContains(n.Enum, f) {
		out.errorf("Field '%s' must be one of: %s", displayPath(path), enumList(n.Enum))
	}
}

// typeName reports the JSON type of a decoded value, distinguishing
// integers from general numbers via json.Number inspection.
func typeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// typeMatches allows integers wherever numbers are expected, but not the
// reverse.
func typeMatches(expected Type, actual string) bool {
	if string(expected) == actual {
		return true
	}
	return expected == TypeNumber && actual == "integer"
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if enumEqual(e, v) {
			return true
		}
	}
	return false
}

func enumEqual(e, v any) bool {
	switch ev := e.(type) {
	case string:
		s, ok := v.(string)
		return ok && s == ev
	case int:
		f, ok := v.(float64)
		return ok && f == float64(ev)
	case float64:
		f, ok := v.(float64)
		return ok && f == ev
	default:
		return fmt.Sprint(e) == fmt.Sprint(v)
	}
}

func enumList(enum []any) string {
	parts := make([]string, 0, len(enum))
	for _, e := range enum {
		parts = append(parts, fmt.Sprint(e))
	}
	return strings.Join(parts, ", ")
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// displayPath names the JSON root in messages about the top-level value.
func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
