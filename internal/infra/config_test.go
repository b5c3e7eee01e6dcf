package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("IMAGE_API_KEY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL should default empty, got %q", cfg.DatabaseURL)
	}
	if cfg.JobTTL != 24*time.Hour {
		t.Fatalf("JobTTL = %v, want 24h", cfg.JobTTL)
	}
	if cfg.JobMaxEvents != 300 || cfg.JobMaxAttempts != 3 {
		t.Fatalf("job limits mismatch: events=%d attempts=%d", cfg.JobMaxEvents, cfg.JobMaxAttempts)
	}
	if cfg.HTTPWriteTimeout != 0 {
		t.Fatalf("HTTPWriteTimeout = %v, want 0 for streaming", cfg.HTTPWriteTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("CORSOrigins = %#v", cfg.CORSOrigins)
	}
	if cfg.ExportPDFCmd != nil {
		t.Fatalf("ExportPDFCmd should default nil, got %#v", cfg.ExportPDFCmd)
	}
}

func TestLoadConfigImageKeyFallsBackToGemini(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIza-shared")
	t.Setenv("IMAGE_API_KEY", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ImageAPIKey != "AIza-shared" {
		t.Fatalf("ImageAPIKey = %q, want gemini key", cfg.ImageAPIKey)
	}
}

func TestLoadConfigParsesLists(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, http://localhost:3000 ,")
	t.Setenv("EXPORT_PDF_CMD", "node workers/pdf.js")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://app.example.com", "http://localhost:3000"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %#v, want %#v", cfg.CORSOrigins, want)
	}
	for i, origin := range want {
		if cfg.CORSOrigins[i] != origin {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], origin)
		}
	}
	if len(cfg.ExportPDFCmd) != 2 || cfg.ExportPDFCmd[0] != "node" || cfg.ExportPDFCmd[1] != "workers/pdf.js" {
		t.Fatalf("ExportPDFCmd = %#v", cfg.ExportPDFCmd)
	}
}
