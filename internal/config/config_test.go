package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			setup: func() {
				viper.Reset()
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultPort, cfg.Server.Port)
				assert.Equal(t, DefaultHost, cfg.Server.Host)
				assert.Equal(t, []string{"localhost:*", "127.0.0.1:*"}, cfg.Server.AllowedOrigins)
				assert.Equal(t, int64(DefaultReadLimit), cfg.Server.ReadLimit)
				assert.Equal(t, "", cfg.Vault.BaseURL)
				assert.Equal(t, DefaultTimeout, cfg.Vault.Timeout)
				assert.Equal(t, 2000*time.Millisecond, cfg.Editor.SettleDelay)
				assert.False(t, cfg.Editor.ReadySignal)
				assert.Equal(t, "light", cfg.Editor.Theme)
				assert.False(t, cfg.Submit.Validate)
				assert.Equal(t, DefaultSubmitRate, cfg.Submit.Rate)
				assert.Equal(t, DefaultSubmitBurst, cfg.Submit.Burst)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Equal(t, "text", cfg.Log.Format)
			},
		},
		{
			name: "explicit values",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 3000)
				viper.Set("server.host", "0.0.0.0")
				viper.Set("vault.base_url", "https://vault.example.com")
				viper.Set("vault.token", "tok")
				viper.Set("vault.timeout", "3s")
				viper.Set("editor.settle_delay", "500ms")
				viper.Set("editor.ready_signal", true)
				viper.Set("editor.theme", "dark")
				viper.Set("submit.validate", true)
				viper.Set("log.format", "json")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
				assert.Equal(t, "https://vault.example.com", cfg.Vault.BaseURL)
				assert.Equal(t, "tok", cfg.Vault.Token)
				assert.Equal(t, 3*time.Second, cfg.Vault.Timeout)
				assert.Equal(t, 500*time.Millisecond, cfg.Editor.SettleDelay)
				assert.True(t, cfg.Editor.ReadySignal)
				assert.Equal(t, "dark", cfg.Editor.Theme)
				assert.True(t, cfg.Submit.Validate)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
		{
			name: "port zero is kept when set",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 0)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0, cfg.Server.Port)
			},
		},
		{
			name: "origins from a comma separated string",
			setup: func() {
				viper.Reset()
				viper.Set("server.allowed_origins", "example.com,*.example.org")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Len(t, cfg.Server.AllowedOrigins, 2)
			},
		},
		{
			name: "invalid port type",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", "invalid_port")
			},
			expectError: true,
		},
		{
			name: "relative vault url",
			setup: func() {
				viper.Reset()
				viper.Set("vault.base_url", "vault.local/api")
			},
			expectError: true,
		},
		{
			name: "unknown theme",
			setup: func() {
				viper.Reset()
				viper.Set("editor.theme", "solarized")
			},
			expectError: true,
		},
		{
			name: "unknown log level",
			setup: func() {
				viper.Reset()
				viper.Set("log.level", "verbose")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer viper.Reset()

			cfg, err := Load()

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".textvault.yml")
	content := `
server:
  port: 9090
vault:
  base_url: http://localhost:8080
editor:
  settle_delay: 1s
submit:
  rate: 0.5
  burst: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TEXTVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, v.ReadInConfig())

	t.Setenv("TEXTVAULT_SERVER_PORT", "9191")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Vault.BaseURL)
	assert.Equal(t, time.Second, cfg.Editor.SettleDelay)
	assert.Equal(t, 0.5, cfg.Submit.Rate)
	assert.Equal(t, 2, cfg.Submit.Burst)
}

func TestValidateConfigWithDetails(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errors   []string
		warnings []string
	}{
		{
			name: "default is valid",
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			errors: []string{"server.port"},
		},
		{
			name:     "privileged port",
			mutate:   func(c *Config) { c.Server.Port = 80 },
			warnings: []string{"server.port"},
		},
		{
			name:   "dangerous host",
			mutate: func(c *Config) { c.Server.Host = "localhost;rm" },
			errors: []string{"server.host"},
		},
		{
			name:     "origin with scheme",
			mutate:   func(c *Config) { c.Server.AllowedOrigins = []string{"https://example.com"} },
			warnings: []string{"server.allowed_origins"},
		},
		{
			name:     "token without url",
			mutate:   func(c *Config) { c.Vault.Token = "t" },
			warnings: []string{"vault.token"},
		},
		{
			name:   "negative delay",
			mutate: func(c *Config) { c.Editor.SettleDelay = -time.Second },
			errors: []string{"editor.settle_delay"},
		},
		{
			name: "negative throttle",
			mutate: func(c *Config) {
				c.Submit.Rate = -1
				c.Submit.Burst = -1
			},
			errors: []string{"submit.rate", "submit.burst"},
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Log.Format = "xml" },
			errors: []string{"log.format"},
		},
	}

	fields := func(errs []ValidationError) []string {
		var out []string
		for _, e := range errs {
			out = append(out, e.Field)
		}
		return out
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			result := ValidateConfigWithDetails(cfg)

			assert.Equal(t, tt.errors, fields(result.Errors))
			assert.Equal(t, tt.warnings, fields(result.Warnings))
			assert.Equal(t, len(tt.errors) == 0, result.Valid)
			if !result.Valid {
				assert.Contains(t, result.String(), tt.errors[0])
			}
		})
	}
}

func TestValidateHostname(t *testing.T) {
	valid := []string{"localhost", "127.0.0.1", "::1", "0.0.0.0", "vault.example.com", "my-host"}
	for _, h := range valid {
		assert.NoError(t, validateHostname(h), h)
	}

	invalid := []string{"-bad", "host name", "a`b", "x$(y)"}
	for _, h := range invalid {
		assert.Error(t, validateHostname(h), h)
	}
}

func TestLoadFromEnvOnly(t *testing.T) {
	v := viper.New()
	v.SetEnvPrefix("TEXTVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	t.Setenv("TEXTVAULT_VAULT_BASE_URL", "https://vault.example.com")
	t.Setenv("TEXTVAULT_VAULT_TOKEN", "secret")
	t.Setenv("TEXTVAULT_EDITOR_THEME", "dark")
	t.Setenv("TEXTVAULT_SUBMIT_VALIDATE", "true")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "https://vault.example.com", cfg.Vault.BaseURL)
	assert.Equal(t, "secret", cfg.Vault.Token)
	assert.Equal(t, "dark", cfg.Editor.Theme)
	assert.True(t, cfg.Submit.Validate)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}
