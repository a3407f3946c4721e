package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `
database:
  dsn: "postgres://localhost/growdash"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		t.Error("Expected default CORS origins")
	}
	if cfg.LLM.Provider != "NONE" {
		t.Errorf("Expected default provider NONE, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Expected default model gpt-4o-mini, got %s", cfg.LLM.Model)
	}
	if cfg.News.MaxHeadlines != 6 {
		t.Errorf("Expected default 6 headlines, got %d", cfg.News.MaxHeadlines)
	}
	if cfg.News.CacheMinutes != 60 {
		t.Errorf("Expected default 60 minute cache, got %d", cfg.News.CacheMinutes)
	}
	if cfg.Broker.Exchange != "NSE" {
		t.Errorf("Expected default exchange NSE, got %s", cfg.Broker.Exchange)
	}
}

func TestLoadConfigEnvOverridesDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-wins/growdash")
	path := writeConfig(t, `
database:
  dsn: "postgres://file/growdash"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Database.DSN != "postgres://env-wins/growdash" {
		t.Errorf("Expected DATABASE_URL to win, got %s", cfg.Database.DSN)
	}
}

func TestLoadConfigMissingDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `
server:
  addr: ":9090"
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error without a DSN")
	}
}

func TestLoadConfigInvalidProvider(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `
database:
  dsn: "postgres://localhost/growdash"
llm:
  provider: "GEMINI"
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for unknown provider")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
