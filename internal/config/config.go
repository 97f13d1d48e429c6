package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type QueryLogConfig struct {
	Enabled         bool     `yaml:"enabled"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

type Config struct {
	Host            string         `yaml:"host"`
	Port            int            `yaml:"port"`
	APIKey          string         `yaml:"api_key"`
	DatabasePath    string         `yaml:"database_path"`
	LogLevel        string         `yaml:"log_level"`
	LogFormat       string         `yaml:"log_format"`
	StrictArguments bool           `yaml:"strict_arguments"`
	QueryLog        QueryLogConfig `yaml:"query_log"`

	// Path holds the config file the values came from, empty when only
	// defaults and environment applied.
	Path string `yaml:"-"`
}

func defaults() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".embed-mcp")

	return &Config{
		Host:         "0.0.0.0",
		Port:         8000,
		DatabasePath: filepath.Join(baseDir, "embed-mcp.db"),
		LogLevel:     "info",
		LogFormat:    "text",
		QueryLog: QueryLogConfig{
			Enabled: true,
			ExcludePatterns: []string{
				"debug_*",
			},
		},
	}
}

// Load builds the config from defaults, then the YAML file at path (or the
// default location when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		homeDir, _ := os.UserHomeDir()
		candidate := filepath.Join(homeDir, ".embed-mcp", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		cfg.Path = path
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("MCP_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(filepath.Dir(c.DatabasePath), 0700)
}
