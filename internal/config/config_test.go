package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{APIKey: "test-key", Model: "test-model", Dimensions: 768},
		LLM:       LLMConfig{APIKey: "test-key", Model: "test-chat"},
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database.addrs")
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"embedding api key", func(c *Config) { c.Embedding.APIKey = "" }},
		{"embedding model", func(c *Config) { c.Embedding.Model = "" }},
		{"llm api key", func(c *Config) { c.LLM.APIKey = "" }},
		{"llm model", func(c *Config) { c.LLM.Model = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidate_CandidatePoolBelowK(t *testing.T) {
	cfg := validConfig()
	cfg.Index.DefaultK = 10
	cfg.Index.CandidatePool = 5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for candidate_pool < default_k")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimensions = 0
	cfg.ApplyDefaults()

	if cfg.Index.DefaultK != 5 {
		t.Errorf("default_k = %d, want 5", cfg.Index.DefaultK)
	}
	if cfg.Index.CandidatePool != 50 {
		t.Errorf("candidate_pool = %d, want 50", cfg.Index.CandidatePool)
	}
	if cfg.LLM.MaxToolCalls != 1 {
		t.Errorf("max_tool_calls = %d, want 1", cfg.LLM.MaxToolCalls)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("dimensions = %d, want 768", cfg.Embedding.Dimensions)
	}
	if cfg.Ingest.BatchSize != 64 || cfg.Ingest.ChunkSize != 500 {
		t.Errorf("ingest defaults = %d/%d, want 64/500", cfg.Ingest.BatchSize, cfg.Ingest.ChunkSize)
	}
	if cfg.Index.Name != "planets" {
		t.Errorf("index name = %q, want planets", cfg.Index.Name)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}

	yaml := `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
embedding:
  api_key: ${KEPLER_TEST_EMB_KEY}
  model: test-model
llm:
  api_key: ${KEPLER_TEST_LLM_KEY:-fallback-key}
  model: test-chat
`
	if err := os.WriteFile(filepath.Join(cfgDir, "test.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KEPLER_TEST_EMB_KEY", "secret-emb")
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWD) })

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Embedding.APIKey != "secret-emb" {
		t.Errorf("api_key = %q, want expanded env value", cfg.Embedding.APIKey)
	}
	if cfg.LLM.APIKey != "fallback-key" {
		t.Errorf("llm api_key = %q, want default fallback", cfg.LLM.APIKey)
	}
}
