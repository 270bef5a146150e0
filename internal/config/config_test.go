package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_BASE_URL", "https://api.example.com/v1")
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_PLANNER_MODEL", "planner-model")
	t.Setenv("LLM_GENERATOR_MODEL", "generator-model")
}

func TestLoadFailsFastWithoutRequiredLLMSettings(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadAppliesDefaultsAndEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SQL_PERMISSIVE_MODE", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "m_schema.json", cfg.SchemaPath)
	assert.Equal(t, 3, cfg.NCandidates)
	assert.True(t, cfg.PermissiveMode)
	assert.Equal(t, "planner-model", cfg.LLM.PlannerModel)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schemaPath: custom_schema.json\nnCandidates: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom_schema.json", cfg.SchemaPath)
	assert.Equal(t, 5, cfg.NCandidates)
}
