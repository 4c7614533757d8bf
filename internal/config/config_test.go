package config

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TADA_DATA_DIR", "LAB_DIR", "DB_TYPE", "DB_PORT", "DB_USER", "TADA_PROVIDER",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "TADA_MODELS", "TADA_MAX_ATTEMPTS",
		"TADA_RETRY_DELAY", "TADA_REQUEST_INTERVAL",
	} {
		t.Setenv(key, "")
	}
	for i := 2; i < 10; i++ {
		t.Setenv(fmt.Sprintf("GEMINI_API_KEY_%d", i), "")
	}
}

func TestNewDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".tada"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, ".tada", "tada.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(home, ".tada", "profile.yaml"), cfg.ProfilePath)
	assert.Equal(t, "oracle", cfg.Database.Type)
	assert.Equal(t, 1521, cfg.Database.Port)
	assert.Equal(t, "system", cfg.Database.User)
	assert.Equal(t, "gemini", cfg.Generation.Provider)
	assert.Equal(t, defaultGeminiModels, cfg.Generation.Models)
	assert.Equal(t, 5, cfg.Generation.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Generation.RetryDelay)
}

func TestNewOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TADA_DATA_DIR", "/tmp/tada-data")
	t.Setenv("DB_TYPE", "MySQL")
	t.Setenv("TADA_MODELS", "m1, m2,,")
	t.Setenv("TADA_MAX_ATTEMPTS", "3")
	t.Setenv("TADA_RETRY_DELAY", "250ms")
	t.Setenv("GEMINI_API_KEY", "k1")
	t.Setenv("GEMINI_API_KEY_3", "k3")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tada-data", cfg.DataDir)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, []string{"m1", "m2"}, cfg.Generation.Models)
	assert.Equal(t, 3, cfg.Generation.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Generation.RetryDelay)
	assert.Equal(t, []string{"k1", "k3"}, cfg.Generation.APIKeys)
}

func TestCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := New()
	require.NoError(t, err)

	_, err = cfg.Credentials()
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	cfg.Generation.Provider = "openai"
	_, err = cfg.Credentials()
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	cfg.Generation.OpenAIKey = "sk-test"
	keys, err := cfg.Credentials()
	require.NoError(t, err)
	assert.Equal(t, []string{"sk-test"}, keys)

	cfg.Generation.Provider = "llama"
	_, err = cfg.Credentials()
	assert.ErrorContains(t, err, "unknown provider")
}
