package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds CLI configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	WorkflowsDir string `json:"workflows_dir"`
	LogLevel     string `json:"log_level"`
	DefaultShell string `json:"default_shell"`
	MaxOutputKB  int64  `json:"max_output_kb"`
}

func defaultConfig() Config {
	return Config{
		WorkflowsDir: "workflows",
		LogLevel:     "info",
	}
}

func flowkitDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowkit"
	}
	return filepath.Join(home, ".flowkit")
}

func settingsPath() string {
	return filepath.Join(flowkitDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("FLOWKIT_WORKFLOWS_DIR"); v != "" {
		cfg.WorkflowsDir = v
	}
	if v := os.Getenv("FLOWKIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLOWKIT_DEFAULT_SHELL"); v != "" {
		cfg.DefaultShell = v
	}
	if v := os.Getenv("FLOWKIT_MAX_OUTPUT_KB"); v != "" {
		if kb, err := strconv.ParseInt(v, 10, 64); err == nil && kb > 0 {
			cfg.MaxOutputKB = kb
		}
	}

	return cfg
}
