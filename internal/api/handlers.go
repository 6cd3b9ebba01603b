package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/contractlens/docstruct/internal/extractor"
	"github.com/contractlens/docstruct/internal/splice"
)

// handleAnalyze accepts a document upload, extracts its element list and
// runs structure analysis. The response is always a full analysis result;
// degraded analyses carry their cause in warnings/metadata.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !extractor.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	ex, err := extractor.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdf, ok := ex.(*extractor.PDFExtractor); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	doc, err := ex.Extract(io.LimitReader(file, s.cfg.MaxUploadBytes+1), filename)
	if err != nil {
		s.log.Error("extraction failed", "filename", filename, "error", err)
		jsonError(w, "extraction failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if !s.analyzer.CanAnalyze(doc) {
		jsonError(w, "document has no analyzable content", http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, s.analyzer.Analyze(doc))
}

type reconcileRequest struct {
	RawResponse string   `json:"raw_response"`
	SchemaType  string   `json:"schema_type"`
	AnchorIDs   []string `json:"anchor_ids"`
	Strict      bool     `json:"strict"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.SchemaType == "" {
		req.SchemaType = "translation"
	}
	writeJSON(w, http.StatusOK, s.reconciler.Reconcile(req.RawResponse, req.SchemaType, req.AnchorIDs, req.Strict))
}

type spliceRequest struct {
	Text         string            `json:"text"`
	Replacements map[string]string `json:"replacements,omitempty"`
}

func (s *Server) handleSpliceExtract(w http.ResponseWriter, r *http.Request) {
	var req spliceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, splice.ExtractSections(req.Text))
}

func (s *Server) handleSpliceReplace(w http.ResponseWriter, r *http.Request) {
	var req spliceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": splice.ReplaceAnchors(req.Text, req.Replacements)})
}

func (s *Server) handleSpliceStrip(w http.ResponseWriter, r *http.Request) {
	var req spliceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": splice.StripAnchors(req.Text)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	return name
}
