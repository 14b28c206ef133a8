package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/config"
)

// isolate runs the test in an empty directory so no stray .env or
// config.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{"NEXT_PUBLIC_TENCENT_MAP_KEY", "TENCENT_MAP_KEY", "STRAND_TENCENT_KEY"} {
		t.Setenv(name, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, 25, cfg.Navigation.Steps)
	assert.Equal(t, 15.0, cfg.Navigation.Jitter)
	assert.Equal(t, "sequential", cfg.Navigation.DeflectionMode)
	assert.Zero(t, cfg.Navigation.SimulatedLatency)
	assert.Equal(t, "https://apis.map.qq.com", cfg.Tencent.BaseURL)
	assert.Empty(t, cfg.Tencent.Key)
	assert.Equal(t, config.CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.StaleTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("STRAND_SERVER_PORT", "9090")
	t.Setenv("STRAND_NAVIGATION_DEFLECTION_MODE", "fixed_point")
	t.Setenv("STRAND_NAVIGATION_SIMULATED_LATENCY", "1s")
	t.Setenv("STRAND_CACHE_TTL", "30s")
	t.Setenv("STRAND_TENCENT_KEY", "strand-key")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "fixed_point", cfg.Navigation.DeflectionMode)
	assert.Equal(t, time.Second, cfg.Navigation.SimulatedLatency)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "strand-key", cfg.Tencent.Key)
}

func TestLoad_LegacyKeyVariable(t *testing.T) {
	isolate(t)
	t.Setenv("NEXT_PUBLIC_TENCENT_MAP_KEY", "legacy-key")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.Tencent.Key)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("TENCENT_MAP_KEY")
	t.Cleanup(func() { os.Unsetenv("TENCENT_MAP_KEY") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TENCENT_MAP_KEY=from-dotenv\n"), 0o600))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Tencent.Key)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	yaml := "server:\n  port: 7070\nnavigation:\n  steps: 40\ncache:\n  backend: valkey\n  valkey_addr: cache:6379\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 40, cfg.Navigation.Steps)
	assert.Equal(t, config.CacheValkey, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.ValkeyAddr)
}

func TestLoad_InvalidConfig(t *testing.T) {
	isolate(t)
	t.Setenv("STRAND_SERVER_PORT", "70000")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Server:     config.ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
			Navigation: config.NavigationConfig{Steps: 25, Jitter: 15, DeflectionMode: "sequential"},
			Tencent:    config.TencentConfig{BaseURL: "https://apis.map.qq.com"},
			Cache:      config.CacheConfig{Backend: config.CacheMemory, Size: 10, TTL: time.Minute, StaleTTL: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"steps", func(c *config.Config) { c.Navigation.Steps = 1 }, "navigation.steps"},
		{"jitter", func(c *config.Config) { c.Navigation.Jitter = -1 }, "navigation.jitter"},
		{"mode", func(c *config.Config) { c.Navigation.DeflectionMode = "spiral" }, "navigation.deflection_mode"},
		{"backend", func(c *config.Config) { c.Cache.Backend = "disk" }, "cache.backend"},
		{"valkey addr", func(c *config.Config) { c.Cache.Backend = config.CacheValkey }, "cache.valkey_addr"},
		{"stale ttl", func(c *config.Config) { c.Cache.StaleTTL = time.Second }, "cache.stale_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
