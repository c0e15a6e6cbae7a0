package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("ANTICIPATE_DATA_DIR", dataDir)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.Data.Dir)
	assert.Equal(t, DefaultDriver, cfg.Data.Driver)
	assert.Equal(t, DefaultCacheTTL, cfg.Snapshot.CacheTTL)
	assert.Equal(t, DefaultStaleTaskDays, cfg.Detectors.StaleTaskDays)
	assert.Equal(t, 5, cfg.Feedback.MinSamples)
	assert.Equal(t, 1.5, cfg.Feedback.MaxModifier)
	assert.Equal(t, 90*24*time.Hour, cfg.Retention.AnalyticsMaxAge())
	assert.Equal(t, 30*24*time.Hour, cfg.Retention.WeightsMaxAge())
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dataDir, "policies"), cfg.PoliciesDir())
	assert.Equal(t, filepath.Join(dataDir, "cycle.lock"), cfg.LockPath())
	assert.Empty(t, cfg.LLM.Provider)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anticipate.yaml")
	content := `
data:
  dir: /var/lib/anticipate
  driver: memory
snapshot:
  path: /tmp/snap.yaml
  cache_ttl: 2m
detectors:
  disabled: [financial, family]
  stale_task_days: 10
llm:
  provider: ollama
  model: llama3.2
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("ANTICIPATE_SERVER_PORT", "9000")
	t.Setenv("ANTICIPATE_LLM_MODEL", "qwen2.5")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/anticipate", cfg.Data.Dir)
	assert.Equal(t, "memory", cfg.Data.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Snapshot.CacheTTL)
	assert.Equal(t, []string{"financial", "family"}, cfg.Detectors.Disabled)
	assert.Equal(t, 10, cfg.Detectors.StaleTaskDays)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen2.5", cfg.LLM.Model)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  driver: postgres\nllm:\n  provider: bedrock\n"), 0644))

	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Driver")
	assert.Contains(t, err.Error(), "Provider")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_TelemetryNeedsKey(t *testing.T) {
	t.Setenv("ANTICIPATE_DATA_DIR", t.TempDir())
	t.Setenv("ANTICIPATE_TELEMETRY_ENABLED", "true")

	_, err := Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PostHogKey")
}

func TestResolveDataDir(t *testing.T) {
	assert.Equal(t, "/explicit", ResolveDataDir("/explicit"))

	t.Chdir(t.TempDir())

	t.Setenv("XDG_DATA_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "anticipate"), ResolveDataDir(""))

	t.Setenv("XDG_DATA_HOME", "")
	orig := GetGlobalDir
	GetGlobalDir = func() (string, error) { return "/home/me/.anticipate", nil }
	t.Cleanup(func() { GetGlobalDir = orig })
	assert.Equal(t, "/home/me/.anticipate", ResolveDataDir(""))

	require.NoError(t, os.Mkdir(LocalDir, 0755))
	assert.Equal(t, LocalDir, ResolveDataDir(""))
}
