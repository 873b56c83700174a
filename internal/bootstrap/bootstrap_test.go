package bootstrap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsidyscout/internal/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestBuild_UnconfiguredOracleYieldsErrorResults(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()

	app, err := Build(cfg, "", nil)
	require.NoError(t, err)
	assert.Empty(t, app.LLMProvider)

	res := app.Analyzer.AnalyzeSubsidy(context.Background(), "https://127.0.0.1:1/regeling")
	require.True(t, res.Failed())
}

func TestBuild_ConfiguredProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Anthropic.APIKey = "test-key"
	cfg.SetDefaults()

	app, err := Build(cfg, "anthropic", nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", app.LLMProvider)
	assert.Equal(t, cfg.LLM.Anthropic.Model, app.LLMModel)
}

func TestBuild_UnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()

	_, err := Build(cfg, "mystery", nil)
	require.Error(t, err)
}

func TestBuild_BrokenVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	cfg := &config.Config{}
	cfg.Classifier.VocabularyPath = path
	cfg.SetDefaults()

	_, err := Build(cfg, "", nil)
	require.Error(t, err)
}
