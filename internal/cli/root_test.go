package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "llm:\n  provider: ollama\n  model: llama3\nlimiter:\n  concurrency: 4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfgFile = path
	initConfig()

	cfg, err := buildConfig()
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %q, config file value must beat the flag default", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "llama3" {
		t.Errorf("model = %q, config file value must beat the flag default", cfg.LLM.Model)
	}
	if cfg.Limiter.Concurrency != 4 {
		t.Errorf("concurrency = %d, want the config file value 4", cfg.Limiter.Concurrency)
	}

	t.Setenv("PAPERMINE_LLM_MODEL", "mistral")
	cfg, err = buildConfig()
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.LLM.Model != "mistral" {
		t.Errorf("model = %q, environment must beat the config file", cfg.LLM.Model)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %q, unset environment key must leave the file value", cfg.LLM.Provider)
	}

	if err := rootCmd.PersistentFlags().Set("llm-model", "gpt-4o"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, err = buildConfig()
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("model = %q, an explicitly set flag must beat environment and file", cfg.LLM.Model)
	}
}
