package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedding:
  provider: "gemini"
  model: "text-embedding-004"
llm:
  provider: "gemini"
  model: "gemini-2.0-flash"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Cache.Threshold != 0.85 {
		t.Errorf("Expected default threshold 0.85, got %f", cfg.Cache.Threshold)
	}
	if cfg.Cache.Index != "memory" {
		t.Errorf("Expected default index backend memory, got %q", cfg.Cache.Index)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.Worker.MaxConcurrency != 3 {
		t.Errorf("Expected default concurrency 3, got %d", cfg.Worker.MaxConcurrency)
	}
	if cfg.TTS.VoiceName != "ja-JP-Neural2-C" {
		t.Errorf("Expected default voice, got %q", cfg.TTS.VoiceName)
	}
}

func TestLoadConfigExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_AVATAR_KEY", "secret-123")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedding:
  provider: "gemini"
  apiKey: "${TEST_AVATAR_KEY}"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Embedding.APIKey != "secret-123" {
		t.Errorf("Expected expanded API key, got %q", cfg.Embedding.APIKey)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cache:
  threshold: 0.9
  index: "milvus"
worker:
  maxConcurrency: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Cache.Threshold != 0.9 || cfg.Cache.Index != "milvus" || cfg.Worker.MaxConcurrency != 10 {
		t.Errorf("Overrides not honored: %+v", cfg)
	}
}
