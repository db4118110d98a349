package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFileYieldsEmptyConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.DefaultProvider())
	assert.False(t, cfg.AutoApply())
}

func TestAPIKeyPrefersConfigFileOverEnv(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  openai:
    api_key: from-file
`)
	t.Setenv("OPENAI_API_KEY", "from-env")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey("openai"))
}

func TestAPIKeyFallsBackToEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey("anthropic"))
}

func TestGoogleKeyPrefersGeminiOverGoogle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.APIKey("google"))
}

func TestAutoApplyFromEnvFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.False(t, cfg.AutoApply())

	t.Setenv("SONGBIRD_AUTO_APPLY", "1")
	assert.True(t, cfg.AutoApply())
}

func TestAvailableProvidersAlwaysIncludesOllama(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
	}
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Contains(t, cfg.AvailableProviders(), "ollama")
}

func TestWatchReloadsOnFileChange(t *testing.T) {
	path := writeConfigFile(t, "default_provider: anthropic\n")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.DefaultProvider())

	done := make(chan struct{})
	defer close(done)
	require.NoError(t, cfg.Watch(done))

	require.NoError(t, os.WriteFile(path, []byte("default_provider: openrouter\n"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cfg.DefaultProvider() == "openrouter" {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	assert.Equal(t, "openrouter", cfg.DefaultProvider())
}
