package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // keep any real settings.json out of the test
	t.Setenv("FLOWKIT_WORKFLOWS_DIR", "")
	t.Setenv("FLOWKIT_LOG_LEVEL", "")
	t.Setenv("FLOWKIT_DEFAULT_SHELL", "")
	t.Setenv("FLOWKIT_MAX_OUTPUT_KB", "")

	cfg := loadConfig()
	assert.Equal(t, "workflows", cfg.WorkflowsDir)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FLOWKIT_WORKFLOWS_DIR", "/flows")
	t.Setenv("FLOWKIT_LOG_LEVEL", "debug")
	t.Setenv("FLOWKIT_DEFAULT_SHELL", "bash")
	t.Setenv("FLOWKIT_MAX_OUTPUT_KB", "256")

	cfg := loadConfig()
	assert.Equal(t, "/flows", cfg.WorkflowsDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "bash", cfg.DefaultShell)
	assert.Equal(t, int64(256), cfg.MaxOutputKB)
}

func TestLoadConfig_BadMaxOutputIgnored(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, v := range []string{"lots", "-1", "0"} {
		t.Setenv("FLOWKIT_MAX_OUTPUT_KB", v)
		cfg := loadConfig()
		assert.Zero(t, cfg.MaxOutputKB, "value %q must not override", v)
	}
}
