package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/contractlens/docstruct/internal/analyzer"
	"github.com/contractlens/docstruct/internal/config"
	"github.com/contractlens/docstruct/internal/reconcile"
)

// Server is the thin HTTP surface over the analysis core: upload-and-analyze,
// response reconciliation and anchor splicing. Auth, billing and job
// orchestration live elsewhere in the platform.
type Server struct {
	router     chi.Router
	analyzer   *analyzer.Analyzer
	reconciler *reconcile.Reconciler
	log        *slog.Logger
	cfg        config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(an *analyzer.Analyzer, rec *reconcile.Reconciler, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		analyzer:   an,
		reconciler: rec,
		log:        log,
		cfg:        cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Post("/api/analyze", s.handleAnalyze)
	r.Post("/api/reconcile", s.handleReconcile)
	r.Post("/api/splice/extract", s.handleSpliceExtract)
	r.Post("/api/splice/replace", s.handleSpliceReplace)
	r.Post("/api/splice/strip", s.handleSpliceStrip)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
