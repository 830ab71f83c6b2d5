package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	flags, err := ParseConfigFlags(nil)
	require.NoError(t, err)
	eff, err := LoadEffectiveConfig(flags, &Config{}, false, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "defaults", eff.Source)
	assert.Equal(t, "0.0.0.0:8080", eff.Addr)
	assert.Equal(t, defaultDBPath, eff.DBPath)
	assert.Equal(t, "free", eff.Config.Editor.Plan)
	assert.Equal(t, time.Second, eff.Config.Editor.HistoryWindow.Duration())
	assert.Equal(t, 250*time.Millisecond, eff.Config.Editor.PreviewDelay.Duration())
	require.NoError(t, ValidateConfig(eff))
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  db_path: /from/file
  max_body_size: 2MB
editor:
  plan: premium
  history_window: 500ms
  history_limit: 3
telemetry:
  flush_interval: 5
`), 0o600))

	flags, err := ParseConfigFlags([]string{"-config", path, "-db", "/from/flag"})
	require.NoError(t, err)
	fileCfg, found, err := ParseConfigFile(flags)
	require.NoError(t, err)
	require.True(t, found)

	eff, err := LoadEffectiveConfig(flags, fileCfg, found, envMap(map[string]string{
		"EMBEDGEN_SERVER_PORT":   "9100",
		"EMBEDGEN_PREVIEW_DELAY": "1s",
		"EMBEDGEN_BACKEND_URL":   "https://api.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, "config+env+flags", eff.Source)
	assert.Equal(t, "0.0.0.0:9100", eff.Addr)
	assert.Equal(t, "/from/flag", eff.DBPath)
	assert.Equal(t, SizeBytes(2_000_000), eff.Config.Server.MaxBodySize)
	assert.Equal(t, "premium", eff.Config.Editor.Plan)
	assert.Equal(t, 500*time.Millisecond, eff.Config.Editor.HistoryWindow.Duration())
	assert.Equal(t, 3, eff.Config.Editor.HistoryLimit)
	assert.Equal(t, time.Second, eff.Config.Editor.PreviewDelay.Duration())
	assert.Equal(t, 5*time.Second, eff.Config.Telemetry.FlushInterval.Duration())
	assert.Equal(t, "https://api.example", eff.Config.Backend.URL)
}

func TestMissingExplicitConfigFile(t *testing.T) {
	flags, err := ParseConfigFlags([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")})
	require.NoError(t, err)
	_, _, err = ParseConfigFile(flags)
	assert.Error(t, err)

	flags, err = ParseConfigFlags([]string{"-config", "x.yaml"})
	require.NoError(t, err)
	flags.Set = map[string]bool{}
	cfg, found, err := ParseConfigFile(flags)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, cfg)
}

func TestBadEnvValues(t *testing.T) {
	_, err := LoadEffectiveConfig(Flags{Set: map[string]bool{}}, nil, false, envMap(map[string]string{
		"EMBEDGEN_HISTORY_LIMIT":  "lots",
		"EMBEDGEN_MAX_BODY_SIZE":  "huge",
		"EMBEDGEN_HISTORY_WINDOW": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDGEN_HISTORY_LIMIT")
	assert.Contains(t, err.Error(), "EMBEDGEN_MAX_BODY_SIZE")
	assert.Contains(t, err.Error(), "EMBEDGEN_HISTORY_WINDOW")
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"plan", func(c *Config) { c.Editor.Plan = "gold" }},
		{"cron", func(c *Config) { c.Scheduling.DefaultCron = "every day" }},
		{"history", func(c *Config) { c.Editor.HistoryLimit = -1 }},
		{"window", func(c *Config) { c.Editor.PreviewDelay = Duration(-time.Second) }},
		{"sensor", func(c *Config) { c.Sensor.DiskLowPct = 99 }},
		{"retention", func(c *Config) { c.Retention.Enabled = true; c.Retention.Cron = "nightly" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{}
			c.ApplyDefaults()
			tc.mutate(c)
			if err := ValidateConfig(EffectiveConfigResult{Config: c, DBPath: c.Server.DBPath}); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
