// Package reconcile validates a model's anchor-tagged JSON response against
// the anchor set of the original document. Under non-strict mode it applies
// partial-success semantics: a response that only covers some anchors still
// yields a usable partial result instead of a total failure.
package reconcile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/contractlens/docstruct/internal/anchor"
	"github.com/contractlens/docstruct/internal/schema"
)

// AnchorOutcome records whether one original anchor was satisfied by the
// response.
type AnchorOutcome struct {
	IsValid bool `json:"is_valid"`
}

// ParsedResponse is the reconciliation result. It is always populated;
// failures are reported through IsValid/Errors, never returned as an error.
type ParsedResponse struct {
	IsValid        bool                     `json:"is_valid"`
	ParsedData     any                      `json:"parsed_data,omitempty"`
	AnchorOutcomes map[string]AnchorOutcome `json:"anchor_outcomes"`
	Warnings       []string                 `json:"warnings"`
	Errors         []string                 `json:"errors"`
	SchemaType     string                   `json:"schema_type"`
	RawResponse    string                   `json:"raw_response"`
}

// Reconciler validates model responses against registered schemas and the
// original anchor set.
type Reconciler struct {
	schemas *schema.Library
	log     *slog.Logger
}

// New creates a reconciler over the given schema library.
func New(schemas *schema.Library, log *slog.Logger) *Reconciler {
	return &Reconciler{schemas: schemas, log: log}
}

// Reconcile validates the raw response and marks each original anchor as
// satisfied or missing.
//
// Strict mode: any malformed JSON, hard schema error, or missing original
// anchor fails the response. Non-strict mode: the response is valid when at
// least one original anchor matched; missing anchors and schema errors
// degrade to diagnostics on the result.
func (r *Reconciler) Reconcile(raw, schemaType string, originalAnchorIDs []string, strict bool) *ParsedResponse {
	resp := &ParsedResponse{
		AnchorOutcomes: make(map[string]AnchorOutcome, len(originalAnchorIDs)),
		Warnings:       []string{},
		Errors:         []string{},
		SchemaType:     schemaType,
		RawResponse:    raw,
	}

	body := stripCodeBlock(raw)

	node, ok := r.schemas.Get(schemaType)
	if !ok {
		// A missing schema is a configuration gap, not a data problem:
		// degrade the schema check, keep reconciling anchors.
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("no schema registered for type %q, schema validation skipped", schemaType))
	} else {
		outcome := schema.Validate(body, node)
		resp.Errors = append(resp.Errors, outcome.Errors...)
		resp.Warnings = append(resp.Warnings, outcome.Warnings...)
	}

	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		// Schema validation already reported the malformed JSON; without a
		// parse no anchor can match.
		for _, id := range originalAnchorIDs {
			resp.AnchorOutcomes[id] = AnchorOutcome{IsValid: false}
		}
		resp.IsValid = false
		return resp
	}
	resp.ParsedData = parsed

	present := responseAnchors(parsed)
	matched := 0
	for _, id := range originalAnchorIDs {
		_, ok := present[normalizeAnchor(id)]
		resp.AnchorOutcomes[id] = AnchorOutcome{IsValid: ok}
		if ok {
			matched++
			continue
		}
		if strict {
			resp.Errors = append(resp.Errors, fmt.Sprintf("anchor missing from response: %s", id))
		} else {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("anchor missing from response: %s", id))
		}
	}

	if strict {
		resp.IsValid = len(resp.Errors) == 0
	} else {
		// Partial success: one matched anchor makes the response usable.
		resp.IsValid = matched > 0 || (len(originalAnchorIDs) == 0 && len(resp.Errors) == 0)
	}

	r.log.Debug("reconciled response",
		"schema_type", schemaType,
		"anchors_expected", len(originalAnchorIDs),
		"anchors_matched", matched,
		"strict", strict,
		"valid", resp.IsValid,
	)
	return resp
}

// responseAnchors collects the normalized anchor tokens present in the
// parsed response. Sections arrays carry an "anchor" field per item; a bare
// top-level array of such items is accepted too.
func responseAnchors(parsed any) map[string]struct{} {
	out := make(map[string]struct{})

	var items []any
	switch t := parsed.(type) {
	case map[string]any:
		if arr, ok := t["sections"].([]any); ok {
			items = arr
		}
	case []any:
		items = t
	}

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		a, ok := obj["anchor"].(string)
		if !ok {
			continue
		}
		token := normalizeAnchor(a)
		if token == "" {
			continue
		}
		out[token] = struct{}{}
	}
	return out
}

// normalizeAnchor reduces either a full marker or a bare token to the token
// form used for comparison. Unrecognizable values normalize to themselves
// so exact matches still work for opaque ids.
func normalizeAnchor(s string) string {
	s = strings.TrimSpace(s)
	if token, ok := anchor.Token(s); ok {
		return token
	}
	return s
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeBlock unwraps a markdown-fenced JSON body, which models emit
// despite instructions not to.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
