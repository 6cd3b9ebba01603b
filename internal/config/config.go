package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Upload limits
	MaxUploadBytes int64

	// Analysis
	MinConfidence     float64
	MinSectionLength  int
	MinDocumentLength int
	TimeBudget        time.Duration
	BatchConcurrency  int

	// Optional external rule/schema files (YAML). Empty means built-ins.
	DetectorRulesPath string
	SchemasPath       string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		MinConfidence:     envFloat("MIN_CONFIDENCE", 0.3),
		MinSectionLength:  envInt("MIN_SECTION_LENGTH", 50),
		MinDocumentLength: envInt("MIN_DOCUMENT_LENGTH", 100),
		TimeBudget:        envDuration("ANALYSIS_TIME_BUDGET", 120*time.Second),
		BatchConcurrency:  envInt("BATCH_CONCURRENCY", 4),

		DetectorRulesPath: os.Getenv("DETECTOR_RULES_PATH"),
		SchemasPath:       os.Getenv("SCHEMAS_PATH"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MinConfidence <= 0 || cfg.MinConfidence > 1 {
		cfg.MinConfidence = 0.3
	}
	if cfg.MinSectionLength <= 0 {
		cfg.MinSectionLength = 50
	}
	if cfg.MinDocumentLength <= 0 {
		cfg.MinDocumentLength = 100
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = 120 * time.Second
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DetectorRulesPath != "" {
		if _, err := os.Stat(c.DetectorRulesPath); err != nil {
			return fmt.Errorf("DETECTOR_RULES_PATH: %w", err)
		}
	}
	if c.SchemasPath != "" {
		if _, err := os.Stat(c.SchemasPath); err != nil {
			return fmt.Errorf("SCHEMAS_PATH: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
