package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "MODEL_NAME", "CHALLENGE_OUTPUT_DIR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro-latest", cfg.LLM.Model)
	assert.Equal(t, 200*time.Millisecond, cfg.CallDelay())
	assert.Equal(t, "nasa_challenges_", cfg.Scraper.FilePrefix)
	assert.True(t, cfg.Pipeline.SmartMerge)
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "harvester.yaml")
	yml := `
llm:
  model: gemini-2.0-flash
pipeline:
  delay: 1s
scraper:
  output_dir: /tmp/out
  browser: false
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, time.Second, cfg.CallDelay())
	assert.Equal(t, "/tmp/out", cfg.Scraper.OutputDir)
	assert.False(t, cfg.Scraper.Browser)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	// untouched keys keep their defaults
	assert.Equal(t, "nasa_challenges_", cfg.Scraper.FilePrefix)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k-123")
	t.Setenv("MODEL_NAME", "gemini-custom")
	t.Setenv("CHALLENGE_OUTPUT_DIR", "/data")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "k-123", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-custom", cfg.LLM.Model)
	assert.Equal(t, "/data", cfg.Scraper.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "k-123", cfg.GeminiConfig().APIKey)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate(), "missing api key")

	cfg.LLM.APIKey = "k"
	require.NoError(t, cfg.Validate())

	cfg.Pipeline.Delay = "soon"
	require.Error(t, cfg.Validate())
	assert.Equal(t, 200*time.Millisecond, cfg.CallDelay())
}

func TestScraperSelectorsAndDelay(t *testing.T) {
	cfg := Default()
	assert.Equal(t, `div[class*="challenge-index_results"]`, cfg.Scraper.ListingWaitSelector)
	assert.Empty(t, cfg.Scraper.DetailWaitSelector)
	assert.Equal(t, 500*time.Millisecond, cfg.ScrapeDelay())

	cfg.LLM.APIKey = "k"
	cfg.Scraper.Delay = "2s"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2*time.Second, cfg.ScrapeDelay())

	cfg.Scraper.Delay = "later"
	require.Error(t, cfg.Validate())
	assert.Equal(t, 500*time.Millisecond, cfg.ScrapeDelay())
}
