// Package config provides configuration management for TextVault using
// Viper for loading from files, environment variables, and command-line
// flags.
//
// The configuration supports YAML files (.textvault.yml), environment
// variable overrides with the TEXTVAULT_ prefix, and validation. It covers
// the composer server, the vault backend, the editor readiness gate, the
// submission policy, and logging.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Vault  VaultConfig  `yaml:"vault" mapstructure:"vault"`
	Editor EditorConfig `yaml:"editor" mapstructure:"editor"`
	Submit SubmitConfig `yaml:"submit" mapstructure:"submit"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Host           string   `yaml:"host" mapstructure:"host"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// ReadLimit caps a single websocket frame from the page, in bytes.
	ReadLimit int64 `yaml:"read_limit" mapstructure:"read_limit"`
}

type VaultConfig struct {
	// BaseURL of the TextVault backend. Empty means payloads are only logged.
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Token   string        `yaml:"token" mapstructure:"token"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type EditorConfig struct {
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	// ReadySignal lets the editor's own ready event lift the placeholder
	// before the settle delay has passed.
	ReadySignal bool   `yaml:"ready_signal" mapstructure:"ready_signal"`
	Theme       string `yaml:"theme" mapstructure:"theme"`
}

type SubmitConfig struct {
	Validate bool    `yaml:"validate" mapstructure:"validate"`
	Rate     float64 `yaml:"rate" mapstructure:"rate"`
	Burst    int     `yaml:"burst" mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Defaults.
const (
	DefaultPort        = 8080
	DefaultHost        = "localhost"
	DefaultReadLimit   = 1 << 20
	DefaultTimeout     = 10 * time.Second
	DefaultSettleDelay = 2000 * time.Millisecond
	DefaultTheme       = "light"
	DefaultSubmitRate  = 1.0
	DefaultSubmitBurst = 3
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// envKeys are the keys settable through TEXTVAULT_* variables.
var envKeys = []string{
	"server.port", "server.host", "server.allowed_origins", "server.read_limit",
	"vault.base_url", "vault.token", "vault.timeout",
	"editor.settle_delay", "editor.ready_signal", "editor.theme",
	"submit.validate", "submit.rate", "submit.burst",
	"log.level", "log.format",
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, nil)
	return cfg
}

// Load reads the configuration from the global viper instance, applies
// defaults and validates the result.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for an explicit viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// Unmarshal only sees env vars for keys viper already knows.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Slices set through flags or env arrive as strings.
	if v.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	applyDefaults(&config, v)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config, v *viper.Viper) {
	isSet := func(key string) bool { return v != nil && v.IsSet(key) }

	if !isSet("server.port") && config.Server.Port == 0 {
		config.Server.Port = DefaultPort
	}
	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{"localhost:*", "127.0.0.1:*"}
	}
	if config.Server.ReadLimit == 0 {
		config.Server.ReadLimit = DefaultReadLimit
	}

	if config.Vault.Timeout == 0 {
		config.Vault.Timeout = DefaultTimeout
	}

	if config.Editor.SettleDelay == 0 {
		config.Editor.SettleDelay = DefaultSettleDelay
	}
	if config.Editor.Theme == "" {
		config.Editor.Theme = DefaultTheme
	}

	if config.Submit.Rate == 0 {
		config.Submit.Rate = DefaultSubmitRate
	}
	if config.Submit.Burst == 0 {
		config.Submit.Burst = DefaultSubmitBurst
	}

	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Format == "" {
		config.Log.Format = DefaultLogFormat
	}
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
