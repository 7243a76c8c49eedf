package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	content := `
catalog:
  url: "https://catalog.example.edu"
  subjects: ["CS", "MATH"]
  term: "2267"
scraper:
  engine: chromedp
  headless: false
  wait_timeout_seconds: 20
output:
  dir: out
  formats: ["json"]
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Catalog.URL != "https://catalog.example.edu" {
		t.Errorf("URL = %q", cfg.Catalog.URL)
	}
	if len(cfg.Catalog.Subjects) != 2 || cfg.Catalog.Subjects[0] != "CS" {
		t.Errorf("Subjects = %v", cfg.Catalog.Subjects)
	}
	if cfg.Scraper.Engine != "chromedp" {
		t.Errorf("Engine = %q", cfg.Scraper.Engine)
	}
	if cfg.Scraper.Headless {
		t.Error("Headless should be overridden to false")
	}
	if cfg.WaitTimeout() != 20*time.Second {
		t.Errorf("WaitTimeout = %v", cfg.WaitTimeout())
	}

	// Unset keys keep their defaults.
	if len(cfg.Catalog.FrameCandidates) == 0 {
		t.Error("FrameCandidates default lost")
	}
	if cfg.Output.PersistEvery != 5 {
		t.Errorf("PersistEvery = %d, want default 5", cfg.Output.PersistEvery)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{}
	if cfg.WaitTimeout() != 10*time.Second {
		t.Errorf("WaitTimeout = %v, want 10s fallback", cfg.WaitTimeout())
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms fallback", cfg.PollInterval())
	}
}
