package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8000 {
		t.Errorf("Expected default port 8000, got %d", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Host)
	}
	if !cfg.QueryLog.Enabled {
		t.Error("Query log should default to enabled")
	}
	if cfg.StrictArguments {
		t.Error("Strict arguments should default to off")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
host: 127.0.0.1
port: 9999
api_key: filekey
log_level: debug
strict_arguments: true
query_log:
  enabled: true
  exclude_patterns:
    - "debug_*"
    - "health"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 9999 {
		t.Errorf("File values not applied: %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.APIKey != "filekey" {
		t.Errorf("Expected filekey, got %s", cfg.APIKey)
	}
	if !cfg.StrictArguments {
		t.Error("strict_arguments not applied")
	}
	if len(cfg.QueryLog.ExcludePatterns) != 2 {
		t.Errorf("Exclude patterns not applied: %v", cfg.QueryLog.ExcludePatterns)
	}
	if cfg.Path != path {
		t.Errorf("Config path not recorded: %s", cfg.Path)
	}
	if cfg.Addr() != "127.0.0.1:9999" {
		t.Errorf("Addr mismatch: %s", cfg.Addr())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\napi_key: filekey\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv("PORT", "7777")
	t.Setenv("MCP_API_KEY", "envkey")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 7777 {
		t.Errorf("PORT env should win over file, got %d", cfg.Port)
	}
	if cfg.APIKey != "envkey" {
		t.Errorf("MCP_API_KEY env should win over file, got %s", cfg.APIKey)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LOG_LEVEL env not applied, got %s", cfg.LogLevel)
	}
}

func TestBadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
