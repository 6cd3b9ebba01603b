package anchor

import (
	"strings"
	"testing"
)

func TestGenerateAndExtractID(t *testing.T) {
	reg := NewRegistry()

	marker, err := reg.Generate("sec-1", "Оплата и порядок расчетов")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(marker, Prefix) || !strings.HasSuffix(marker, Suffix) {
		t.Errorf("marker %q lacks delimiters", marker)
	}
	if !strings.Contains(marker, "oplata") {
		t.Errorf("marker %q missing transliterated slug", marker)
	}

	id, ok := reg.ExtractID(marker)
	if !ok {
		t.Fatalf("ExtractID(%q) not found", marker)
	}
	if id != "sec-1" {
		t.Errorf("ExtractID = %q, want sec-1", id)
	}
}

func TestGenerateUnique(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[string]struct{})

	// Identical titles, and even identical (id, title) pairs, must still
	// yield distinct markers within one run.
	for i := 0; i < 10; i++ {
		m, err := reg.Generate("same-id", "Ответственность сторон")
		if err != nil {
			t.Fatalf("Generate #%d: %v", i, err)
		}
		if _, dup := seen[m]; dup {
			t.Fatalf("duplicate marker %q", m)
		}
		seen[m] = struct{}{}
	}
}

func TestExtractIDUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.ExtractID("<!--anchor:oplata_abc123-->"); ok {
		t.Error("ExtractID matched a marker this registry never issued")
	}
	if _, ok := reg.ExtractID("plain text"); ok {
		t.Error("ExtractID matched non-marker text")
	}
}

func TestReset(t *testing.T) {
	reg := NewRegistry()
	m, err := reg.Generate("id", "Title")
	if err != nil {
		t.Fatal(err)
	}
	reg.Reset()
	if _, ok := reg.ExtractID(m); ok {
		t.Error("ExtractID found marker after Reset")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	marker := "<!--anchor:predmet-dogovora_a1b2c3-->"
	token, ok := Token(marker)
	if !ok {
		t.Fatalf("Token(%q) failed", marker)
	}
	if token != "predmet-dogovora_a1b2c3" {
		t.Errorf("Token = %q", token)
	}
	if Marker(token) != marker {
		t.Errorf("Marker(%q) = %q, want %q", token, Marker(token), marker)
	}
	if !IsToken(token) {
		t.Errorf("IsToken(%q) = false", token)
	}
	if IsToken("Not A Token") {
		t.Error("IsToken accepted prose")
	}
}

func TestTokenRejectsPartial(t *testing.T) {
	// Token must match the whole string, not a marker embedded in prose.
	if _, ok := Token("text <!--anchor:slug_abc123--> more"); ok {
		t.Error("Token matched embedded marker")
	}
}

func TestFindAllAndMatches(t *testing.T) {
	text := "intro\n<!--anchor:one_aaaaaa-->\nbody\n<!--anchor:two_bbbbbb-->\ntail"

	all := FindAll(text)
	if len(all) != 2 {
		t.Fatalf("FindAll = %d markers, want 2", len(all))
	}

	tokens := FindTokens(text)
	if len(tokens) != 2 || tokens[0] != "one_aaaaaa" || tokens[1] != "two_bbbbbb" {
		t.Errorf("FindTokens = %v", tokens)
	}

	ms := Matches(text)
	if len(ms) != 2 {
		t.Fatalf("Matches = %d, want 2", len(ms))
	}
	for _, m := range ms {
		if text[m.Start:m.End] != Marker(m.Token) {
			t.Errorf("offsets of %q do not cover the marker", m.Token)
		}
	}
	if ms[0].End > ms[1].Start {
		t.Error("matches out of order")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Предмет договора", "predmet-dogovora"},
		{"Оплата", "oplata"},
		{"ОТВЕТСТВЕННОСТЬ СТОРОН", "otvetstvennost-storon"},
		{"Payment Terms", "payment-terms"},
		{"Résumé café", "resume-cafe"},
		{"  1.2  Порядок оплаты  ", "1-2-poryadok-oplaty"},
		{"!!!", "section"},
		{"", "section"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugifyLength(t *testing.T) {
	got := Slugify("очень длинное название раздела договора о сотрудничестве")
	if len(got) > MaxSlugLength {
		t.Errorf("slug %q exceeds %d bytes", got, MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Errorf("slug %q has dangling dash", got)
	}
}
