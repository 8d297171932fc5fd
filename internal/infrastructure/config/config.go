package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the rvn tool configuration
type Config struct {
	PluginsDir     string `json:"plugins_dir"`
	EnvironmentDir string `json:"environment_dir"`
	IndexURL       string `json:"index_url"`
	IndexDir       string `json:"index_dir,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	BaselinePath   string `json:"baseline_manifest"`
	Debug          bool   `json:"debug,omitempty"`
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rvn-config.json"
	}
	return filepath.Join(home, ".rvn", "config.json")
}

// Load reads configuration in precedence order: built-in defaults, then the
// config file when present, then RVN_* environment variables.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		PluginsDir:     "./plugins",
		EnvironmentDir: "~/.rvn/env",
		IndexURL:       "https://index.ravenml.io",
		BaselinePath:   "~/.rvn/baseline.txt",
	}

	if configPath == "" {
		configPath = os.Getenv("RVN_CONFIG_PATH")
		if configPath == "" {
			configPath = DefaultConfigPath()
		}
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes the configuration to a file, creating parent directories
func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RVN_PLUGINS_DIR"); v != "" {
		cfg.PluginsDir = v
	}
	if v := os.Getenv("RVN_ENVIRONMENT_DIR"); v != "" {
		cfg.EnvironmentDir = v
	}
	if v := os.Getenv("RVN_INDEX_URL"); v != "" {
		cfg.IndexURL = v
	}
	if v := os.Getenv("RVN_INDEX_DIR"); v != "" {
		cfg.IndexDir = v
	}
	if v := os.Getenv("RVN_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("RVN_BASELINE"); v != "" {
		cfg.BaselinePath = v
	}
	if os.Getenv("RVN_DEBUG") == "1" {
		cfg.Debug = true
	}
}
