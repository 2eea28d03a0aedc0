package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

const sampleYAML = `
environment: development
server:
  address: ":9090"
  cors_origins: ["https://eternals.studio"]
auth:
  access_token_ttl: 45m
store:
  cart_session_ttl: 2h
field:
  tick_interval: 40ms
  params:
    node_count: 20
    repulsion_threshold: 150
    repulsion_strength: 0.02
    opacity_step: 0.05
    opacity_decay: 0.02
    min_opacity: 0.3
    margin: 40
    bounce_damping: 0.8
    velocity_damping: 0.99
    jitter: 0.02
    connection_threshold: 200
    max_edge_opacity: 0.4
    grab_radius: 50
    initial_speed: 0.5
    release_speed: 0.5
`

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFile_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_OverlaysYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), sampleYAML)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"https://eternals.studio"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 45*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.Store.CartSessionTTL)
	assert.Equal(t, 40*time.Millisecond, cfg.Field.TickInterval)
	assert.Equal(t, 20, cfg.Field.Params.NodeCount)
	assert.Equal(t, "eternals-backend", cfg.Auth.JWTIssuer, "unset keys keep defaults")
}

func TestLoadFile_RejectsBadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "server: [unterminated")
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	path := writeConfig(t, t.TempDir(), sampleYAML)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_ADDRESS", ":7070")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "5")
	t.Setenv("FIELD_TICK_MS", "25")
	t.Setenv("DISCORD_CLIENT_ID", "discord-id")
	t.Setenv("ENABLE_METRICS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 25*time.Millisecond, cfg.Field.TickInterval)
	assert.Equal(t, "discord-id", cfg.OAuth.Providers()["discord"].ClientID)
	assert.True(t, cfg.Observability.EnableMetrics)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown environment", func(c *Config) { c.Environment = "moon" }},
		{"production without secret", func(c *Config) { c.Environment = Production }},
		{"zero token ttl", func(c *Config) { c.Auth.AccessTokenTTL = 0 }},
		{"zero cart ttl", func(c *Config) { c.Store.CartSessionTTL = 0 }},
		{"zero tick", func(c *Config) { c.Field.TickInterval = 0 }},
		{"no connections", func(c *Config) { c.Field.MaxConnections = 0 }},
		{"empty viewport", func(c *Config) { c.Field.Width = 0 }},
		{"bad params", func(c *Config) { c.Field.Params.NodeCount = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Environment = Production
	cfg.Auth.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestConfigWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleYAML)
	initial, err := LoadFile(path)
	require.NoError(t, err)

	w := NewConfigWatcher(initial, zaptest.NewLogger(t))
	var got *Config
	w.OnChange(func(c *Config) { got = c })
	w.OnChange(func(*Config) { panic("boom") })

	writeConfig(t, dir, sampleYAML+"log_level: debug\n")
	w.Reload()
	require.NotNil(t, got)
	assert.Equal(t, "debug", got.LogLevel)
	assert.Same(t, got, w.GetConfig())

	writeConfig(t, dir, "field:\n  tick_interval: -1s\n")
	w.Reload()
	assert.Equal(t, "debug", w.GetConfig().LogLevel, "invalid file keeps the current config")
}

func TestConfigWatcher_CallbacksAddedDuringReloadWaitForNextReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleYAML)
	initial, err := LoadFile(path)
	require.NoError(t, err)

	w := NewConfigWatcher(initial, zaptest.NewLogger(t))
	var outer, inner int
	w.OnChange(func(*Config) {
		outer++
		if outer == 1 {
			w.OnChange(func(*Config) { inner++ })
		}
	})

	w.Reload()
	assert.Equal(t, 1, outer)
	assert.Equal(t, 0, inner)

	w.Reload()
	assert.Equal(t, 2, outer)
	assert.Equal(t, 1, inner)
}

func TestConfigWatcher_RunPicksUpWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeConfig(t, dir, sampleYAML)
	initial, err := LoadFile(path)
	require.NoError(t, err)

	w := NewConfigWatcher(initial, zaptest.NewLogger(t))
	w.debounce = 10 * time.Millisecond
	changed := make(chan *Config, 4)
	w.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	var got *Config
	deadline := time.After(5 * time.Second)
	for got == nil {
		writeConfig(t, dir, sampleYAML+"log_level: warn\n")
		select {
		case got = <-changed:
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("no reload after writing the config file")
		}
	}
	assert.Equal(t, "warn", got.LogLevel)

	cancel()
	require.NoError(t, <-done)
}

func TestConfigWatcher_RunDisabledOutsideDevelopment(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := Default()
	cfg.Environment = Production
	w := NewConfigWatcher(cfg, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
}
