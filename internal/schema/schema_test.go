package schema

import (
	"strings"
	"testing"
)

func TestValidateTranslationOK(t *testing.T) {
	body := `{
		"sections": [
			{"anchor": "oplata_abc123", "translated_text": "Payment terms.", "title": "Оплата"},
			{"anchor": "predmet_def456", "translated_text": "Subject.", "risks": [
				{"type": "risk", "text": "Unlimited liability clause."}
			]}
		]
	}`
	out := Validate(body, TranslationSchema())
	if !out.Valid {
		t.Fatalf("valid body rejected: %v", out.Errors)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", out.Warnings)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	out := Validate(`{"sections": [`, TranslationSchema())
	if out.Valid {
		t.Fatal("malformed JSON accepted")
	}
	if len(out.Errors) != 1 || !strings.HasPrefix(out.Errors[0], "Invalid JSON: ") {
		t.Errorf("errors = %v", out.Errors)
	}
}

func TestValidateMissingRequired(t *testing.T) {
	out := Validate(`{}`, TranslationSchema())
	if out.Valid {
		t.Fatal("missing required field accepted")
	}
	want := "Missing required field: sections"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}
}

func TestValidateMissingRequiredInArray(t *testing.T) {
	body := `{"sections": [
		{"anchor": "a_aaaaaa", "translated_text": "ok"},
		{"anchor": "b_bbbbbb"}
	]}`
	out := Validate(body, TranslationSchema())
	if out.Valid {
		t.Fatal("item missing translated_text accepted")
	}
	want := "Missing required field: sections[1].translated_text"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	out := Validate(`{"sections": "not an array"}`, TranslationSchema())
	want := "Field 'sections' expected type 'array', got 'string'"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}
}

func TestValidateRootTypeMismatch(t *testing.T) {
	out := Validate(`[1, 2]`, TranslationSchema())
	want := "Field '(root)' expected type 'object', got 'array'"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}
}

func TestValidateStringBounds(t *testing.T) {
	out := Validate(`{"sections": [{"anchor": "", "translated_text": "ok"}]}`, TranslationSchema())
	want := "Field 'sections[0].anchor' must be at least 1 characters"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}

	three := 3
	node := &Node{Type: TypeObject, Properties: map[string]*Node{
		"name": {Type: TypeString, MaxLength: &three},
	}}
	out = Validate(`{"name": "toolong"}`, node)
	want = "Field 'name' must be no more than 3 characters"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}
}

func TestValidateEnum(t *testing.T) {
	body := `{"sections": [{"anchor": "a_aaaaaa", "translated_text": "ok", "risks": [
		{"type": "fatal", "text": "boom"}
	]}]}`
	out := Validate(body, TranslationSchema())
	want := "Field 'sections[0].risks[0].type' must be one of: contradiction, risk, warning"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}
}

func TestValidateNumberBounds(t *testing.T) {
	zero := 0.0
	one := 1.0
	node := &Node{Type: TypeObject, Properties: map[string]*Node{
		"confidence": {Type: TypeNumber, Minimum: &zero, Maximum: &one},
	}}

	out := Validate(`{"confidence": 1.5}`, node)
	want := "Field 'confidence' must be no more than 1"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}

	out = Validate(`{"confidence": -0.1}`, node)
	want = "Field 'confidence' must be at least 0"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}
}

func TestValidateIntegerWhereNumberExpected(t *testing.T) {
	node := &Node{Type: TypeObject, Properties: map[string]*Node{
		"count": {Type: TypeNumber},
	}}
	out := Validate(`{"count": 5}`, node)
	if !out.Valid {
		t.Errorf("integer rejected where number expected: %v", out.Errors)
	}

	node.Properties["count"].Type = TypeInteger
	out = Validate(`{"count": 5.5}`, node)
	want := "Field 'count' expected type 'integer', got 'number'"
	if len(out.Errors) != 1 || out.Errors[0] != want {
		t.Errorf("errors = %v, want [%q]", out.Errors, want)
	}
}

func TestValidateUnexpectedFieldWarns(t *testing.T) {
	body := `{"sections": [], "model_version": "v2"}`
	out := Validate(body, TranslationSchema())
	if !out.Valid {
		t.Fatalf("extra field failed validation: %v", out.Errors)
	}
	if len(out.Warnings) != 1 || out.Warnings[0] != "Unexpected field: model_version" {
		t.Errorf("warnings = %v", out.Warnings)
	}
}
