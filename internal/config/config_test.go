package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, content map[string]interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(content)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "testrig.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.GetString(KeyDataRoot))
	assert.Equal(t, "chromium", cfg.GetString(KeyBrowserType))
	assert.True(t, cfg.GetBool(KeyBrowserHeadless))
	assert.Equal(t, 3, cfg.GetInt(KeyAPIRetryCount))
	assert.Equal(t, 30*time.Second, cfg.GetDuration(KeyAPITimeout))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, map[string]interface{}{
		"base": map[string]interface{}{"url": "https://staging.example.com"},
		"browser": map[string]interface{}{
			"headless": false,
		},
	})

	cfg, err := Load(Options{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.GetString(KeyBaseURL))
	assert.False(t, cfg.GetBool(KeyBrowserHeadless))
	// Untouched keys keep their defaults.
	assert.Equal(t, "data", cfg.GetString(KeyDataRoot))
}

func TestLoad_ExplicitMissingFileIsError(t *testing.T) {
	_, err := Load(Options{Path: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, map[string]interface{}{
		"data": map[string]interface{}{"root": "from-file"},
	})
	t.Setenv("TESTRIG_DATA_ROOT", "from-env")

	cfg, err := Load(Options{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GetString(KeyDataRoot))
}

func TestLookup_ConfigKeyBeforeEnvironment(t *testing.T) {
	path := writeConfigFile(t, map[string]interface{}{
		"base": map[string]interface{}{"url": "https://cfg.example.com"},
	})

	cfg, err := Load(Options{Path: path})
	require.NoError(t, err)

	val, ok := cfg.Lookup("BASE_URL")
	require.True(t, ok)
	assert.Equal(t, "https://cfg.example.com", val)
}

func TestLookup_FallsBackToEnvironment(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)

	t.Setenv("SOME_EXTERNAL_SECRET", "s3cret")
	val, ok := cfg.Lookup("SOME_EXTERNAL_SECRET")
	require.True(t, ok)
	assert.Equal(t, "s3cret", val)

	_, ok = cfg.Lookup("DEFINITELY_NOT_SET_ANYWHERE_12345")
	assert.False(t, ok)
}

func TestOnChange_CallbackRegistration(t *testing.T) {
	path := writeConfigFile(t, map[string]interface{}{
		"base": map[string]interface{}{"url": "https://cfg.example.com"},
	})

	cfg, err := Load(Options{Path: path})
	require.NoError(t, err)

	called := false
	cfg.OnChange(func() { called = true })
	// Watching without a change must not fire callbacks.
	cfg.WatchChanges()
	assert.False(t, called)
}
