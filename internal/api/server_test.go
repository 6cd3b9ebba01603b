package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contractlens/docstruct/internal/analyzer"
	"github.com/contractlens/docstruct/internal/config"
	"github.com/contractlens/docstruct/internal/reconcile"
	"github.com/contractlens/docstruct/internal/schema"
)

func testServer() *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Load()

	anCfg := analyzer.DefaultConfig()
	anCfg.Detector.MinSectionLength = 20
	an := analyzer.New(anCfg, log)
	rec := reconcile.New(schema.NewLibrary(), log)
	return NewServer(an, rec, log, cfg)
}

func TestHealth(t *testing.T) {
	srv := testServer()
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAnalyzeUpload(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "contract.txt")
	if err != nil {
		t.Fatal(err)
	}
	doc := "1. Предмет договора\n\n" +
		"Исполнитель обязуется оказать услуги, перечисленные в приложении к договору.\n\n" +
		"2. Оплата\n\n" +
		"Заказчик оплачивает услуги в течение десяти банковских дней после подписания акта.\n"
	part.Write([]byte(doc))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	srv := testServer()
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result struct {
		Sections []struct {
			Title  string `json:"title"`
			Anchor string `json:"anchor"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(result.Sections))
	}
	if result.Sections[0].Title != "Предмет договора" {
		t.Errorf("title = %q", result.Sections[0].Title)
	}
	if result.Sections[0].Anchor == "" {
		t.Error("section missing anchor")
	}
}

func TestAnalyzeRejectsUnsupported(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "malware.exe")
	part.Write([]byte("MZ"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	testServer().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeRejectsShortDocument(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "tiny.txt")
	part.Write([]byte("слишком мало текста"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	testServer().ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	body := `{
		"raw_response": "{\"sections\": [{\"anchor\": \"predmet_aaaaaa\", \"translated_text\": \"ok\"}]}",
		"anchor_ids": ["predmet_aaaaaa", "oplata_bbbbbb"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader(body))

	w := httptest.NewRecorder()
	testServer().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp reconcile.ParsedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.IsValid {
		t.Errorf("partial response invalid: %v", resp.Warnings)
	}
	if resp.SchemaType != "translation" {
		t.Errorf("schema type = %q, want default applied", resp.SchemaType)
	}
	if resp.AnchorOutcomes["oplata_bbbbbb"].IsValid {
		t.Error("missing anchor marked valid")
	}
}

func TestSpliceEndpoints(t *testing.T) {
	text := "вступление\n<!--anchor:one_aaaaaa-->\nраздел один"

	t.Run("extract", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/splice/extract",
			strings.NewReader(`{"text": "`+strings.ReplaceAll(text, "\n", `\n`)+`"}`))
		w := httptest.NewRecorder()
		testServer().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var parsed struct {
			AnchorIDs []string `json:"anchor_ids"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatal(err)
		}
		if len(parsed.AnchorIDs) != 1 || parsed.AnchorIDs[0] != "one_aaaaaa" {
			t.Errorf("anchor ids = %v", parsed.AnchorIDs)
		}
	})

	t.Run("strip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/splice/strip",
			strings.NewReader(`{"text": "`+strings.ReplaceAll(text, "\n", `\n`)+`"}`))
		w := httptest.NewRecorder()
		testServer().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var out map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(out["text"], "<!--anchor:") {
			t.Errorf("markers survived: %q", out["text"])
		}
	})
}

func TestReconcileBadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader("{"))
	w := httptest.NewRecorder()
	testServer().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
