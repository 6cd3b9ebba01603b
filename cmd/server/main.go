package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/contractlens/docstruct/internal/analyzer"
	"github.com/contractlens/docstruct/internal/api"
	"github.com/contractlens/docstruct/internal/config"
	"github.com/contractlens/docstruct/internal/detector"
	"github.com/contractlens/docstruct/internal/reconcile"
	"github.com/contractlens/docstruct/internal/schema"
)

func main() {
	// Local development convenience; a missing .env is fine.
	godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	detCfg := detector.DefaultConfig()
	detCfg.MinSectionLength = cfg.MinSectionLength
	if cfg.DetectorRulesPath != "" {
		rules, err := detector.LoadRules(cfg.DetectorRulesPath)
		if err != nil {
			log.Error("loading detector rules", "path", cfg.DetectorRulesPath, "error", err)
			os.Exit(1)
		}
		patterns, err := detector.CompilePatterns(rules)
		if err != nil {
			log.Error("compiling detector rules", "path", cfg.DetectorRulesPath, "error", err)
			os.Exit(1)
		}
		detCfg.Patterns = patterns
		detCfg.Keywords = rules.Keywords
	}

	schemas := schema.NewLibrary()
	if cfg.SchemasPath != "" {
		if err := schemas.LoadFile(cfg.SchemasPath); err != nil {
			log.Error("loading schemas", "path", cfg.SchemasPath, "error", err)
			os.Exit(1)
		}
	}

	an := analyzer.New(analyzer.Config{
		MinConfidence:     cfg.MinConfidence,
		TimeBudget:        cfg.TimeBudget,
		MinDocumentLength: cfg.MinDocumentLength,
		BatchConcurrency:  cfg.BatchConcurrency,
		Detector:          detCfg,
	}, log)
	rec := reconcile.New(schemas, log)

	srv := api.NewServer(an, rec, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docstruct", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
