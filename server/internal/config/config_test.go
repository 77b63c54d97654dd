package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Unrelated top-level keys are ignored.
	p := writeConfig(t, `client:
  server: "http://localhost:4321"
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPPort, cfg.Server.HTTPPort)
	assert.Equal(t, DefaultGRPCPort, cfg.Server.GRPCPort)
	assert.Equal(t, DefaultSweepInterval, cfg.Server.Eviction.Interval)
	assert.Equal(t, DefaultStreamInterval, cfg.Server.Stream.Interval)
	assert.Equal(t, slog.LevelInfo, cfg.Server.Level())
	assert.Zero(t, cfg.Server.RateLimit.RPS)
}

func TestLoad_FullServer(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  grpc_port: 9090
  log_level: debug
  auth:
    mode: apikey
    key_env: MY_KEY
    header: X-Dice-Key
  eviction:
    interval: 500ms
    seed: 42
  rate_limit:
    rps: 100
    burst: 20
  stream:
    interval: 1s
  alerts:
    rules:
      - name: too_many
        condition: "records > 1000"
        severity: warning
        cooldown: 5m
    webhooks:
      - type: slack
        url_env: SLACK_URL
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	s := cfg.Server
	assert.Equal(t, 9091, s.HTTPPort)
	assert.Equal(t, 9090, s.GRPCPort)
	assert.Equal(t, slog.LevelDebug, s.Level())
	assert.Equal(t, "apikey", s.Auth.Mode)
	assert.Equal(t, "x-dice-key", s.Auth.EffectiveHeader())
	assert.Equal(t, 500*time.Millisecond, s.Eviction.Interval)
	assert.Equal(t, uint64(42), s.Eviction.Seed)
	assert.Equal(t, 100.0, s.RateLimit.RPS)
	assert.Equal(t, 20, s.RateLimit.EffectiveBurst())
	assert.Equal(t, time.Second, s.Stream.Interval)
	require.Len(t, s.Alerts.Rules, 1)
	assert.Equal(t, 5*time.Minute, s.Alerts.Rules[0].Cooldown)
	require.Len(t, s.Alerts.Webhooks, 1)
	assert.Equal(t, "slack", s.Alerts.Webhooks[0].Type)
}

func TestLoad_DefaultHeader(t *testing.T) {
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: K
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "x-api-key", cfg.Server.Auth.EffectiveHeader())
}

func TestLoad_KeyEnvResolution(t *testing.T) {
	t.Setenv("TEST_DICEKV_KEY", "supersecret")
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: TEST_DICEKV_KEY
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "supersecret", cfg.Server.Auth.Key())
}

func TestWebhookURLFromEnv(t *testing.T) {
	t.Setenv("TEST_HOOK_URL", "http://hooks.example/x")
	assert.Equal(t, "http://hooks.example/x", WebhookConfig{URLEnv: "TEST_HOOK_URL"}.URL())
	assert.Empty(t, WebhookConfig{}.URL())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown auth mode": "server:\n  auth:\n    mode: oauth2\n",
		"http port range":   "server:\n  http_port: 70000\n",
		"grpc port range":   "server:\n  grpc_port: -1\n",
		"same ports":        "server:\n  http_port: 5000\n  grpc_port: 5000\n",
		"log level":         "server:\n  log_level: verbose\n",
		"zero interval":     "server:\n  eviction:\n    interval: 0s\n",
		"negative rps":      "server:\n  rate_limit:\n    rps: -1\n",
		"stream interval":   "server:\n  stream:\n    interval: -1s\n",
		"rule without name": "server:\n  alerts:\n    rules:\n      - condition: \"records > 1\"\n",
		"bad condition":     "server:\n  alerts:\n    rules:\n      - name: r\n        condition: \"records\"\n",
		"webhook type":      "server:\n  alerts:\n    webhooks:\n      - type: email\n",
		"bad yaml":          "server: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestEffectiveBurst(t *testing.T) {
	assert.Equal(t, 1, RateLimitConfig{RPS: 0.5}.EffectiveBurst())
	assert.Equal(t, 50, RateLimitConfig{RPS: 50}.EffectiveBurst())
	assert.Equal(t, 7, RateLimitConfig{RPS: 50, Burst: 7}.EffectiveBurst())
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ServerConfig{LogLevel: "WARN"}.Level())
	assert.Equal(t, slog.LevelError, ServerConfig{LogLevel: "error"}.Level())
	assert.Equal(t, slog.LevelInfo, ServerConfig{}.Level())
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "server:\n  eviction:\n    interval: 2s\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got *Config
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(c *Config) {
			mu.Lock()
			got = c
			mu.Unlock()
		})
	}()

	// Keep rewriting until the watcher, which starts asynchronously, sees it.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(p, []byte("server:\n  eviction:\n    interval: 3s\n"), 0o600)
		mu.Lock()
		defer mu.Unlock()
		return got != nil && got.Server.Eviction.Interval == 3*time.Second
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatch_InvalidReloadIgnored(t *testing.T) {
	p := writeConfig(t, "server:\n  http_port: 4321\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	go Watch(ctx, p, func(*Config) { //nolint:errcheck
		mu.Lock()
		calls++
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(p, []byte("server:\n  http_port: 0\n"), 0o600))
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}

func TestWatch_MissingDir(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent/dir/config.yaml", func(*Config) {})
	assert.Error(t, err)
}
