//go:build property
// +build property

package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigurationProperties tests configuration validation properties
func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: Valid configurations should always validate without error
	properties.Property("valid config validates", prop.ForAll(
		func(port int, host string, delayMs int, dark bool) bool {
			cfg := Default()
			cfg.Server.Port = port
			cfg.Server.Host = host
			cfg.Editor.SettleDelay = time.Duration(delayMs) * time.Millisecond
			if dark {
				cfg.Editor.Theme = "dark"
			}
			return validateConfig(cfg) == nil
		},
		gen.IntRange(1024, 65535),
		gen.RegexMatch(`^[a-z][a-z0-9]{0,20}(\.[a-z][a-z0-9]{0,10}){0,3}$`),
		gen.IntRange(1, 10000),
		gen.Bool(),
	))

	// Property: Out of range ports are always rejected
	properties.Property("invalid port rejected", prop.ForAll(
		func(port int) bool {
			cfg := Default()
			cfg.Server.Port = port
			return validateConfig(cfg) != nil
		},
		gen.OneGenOf(gen.IntRange(-100000, -1), gen.IntRange(65536, 200000)),
	))

	// Property: Any http(s) URL with a host is an acceptable vault address
	properties.Property("vault url acceptance", prop.ForAll(
		func(secure bool, host string, port int) bool {
			scheme := "http"
			if secure {
				scheme = "https"
			}
			cfg := Default()
			cfg.Vault.BaseURL = fmt.Sprintf("%s://%s:%d", scheme, host, port)
			return validateConfig(cfg) == nil
		},
		gen.Bool(),
		gen.RegexMatch(`^[a-z][a-z0-9]{0,15}$`),
		gen.IntRange(1, 65535),
	))

	// Property: Validation is deterministic
	properties.Property("validation consistency", prop.ForAll(
		func(level string) bool {
			cfg := Default()
			cfg.Log.Level = level
			r1 := ValidateConfigWithDetails(cfg)
			r2 := ValidateConfigWithDetails(cfg)
			return r1.Valid == r2.Valid && len(r1.Errors) == len(r2.Errors)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
