package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/textvault/textvault/internal/logging"
	"github.com/textvault/textvault/internal/theme"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServerConfigDetails(&config.Server, result)
	validateVaultConfigDetails(&config.Vault, result)
	validateEditorConfigDetails(&config.Editor, result)
	validateSubmitConfigDetails(&config.Submit, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

// validateConfig returns the first validation error, if any.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		err := result.Errors[0]
		return &err
	}
	return nil
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	// Port 0 lets the system pick, which tests rely on.
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}

	for _, origin := range config.AllowedOrigins {
		if strings.Contains(origin, "://") {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "server.allowed_origins",
				Value:       origin,
				Message:     "origin patterns match host[:port] only; the scheme is ignored",
				Suggestions: []string{"Write 'example.com' or 'localhost:*'"},
			})
		}
	}

	if config.ReadLimit < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.read_limit",
			Value:   config.ReadLimit,
			Message: "read limit must not be negative",
		})
	}
}

func validateVaultConfigDetails(config *VaultConfig, result *ValidationResult) {
	if config.BaseURL != "" {
		u, err := url.Parse(config.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "vault.base_url",
				Value:   config.BaseURL,
				Message: "must be an absolute http(s) URL",
				Suggestions: []string{
					"Example: http://localhost:8080",
					"Leave empty to log payloads instead of storing them",
				},
			})
		}
	} else if config.Token != "" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "vault.token",
			Message: "token is set but no base_url; it will not be used",
		})
	}

	if config.Timeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "vault.timeout",
			Value:   config.Timeout,
			Message: "timeout must not be negative",
		})
	}
}

func validateEditorConfigDetails(config *EditorConfig, result *ValidationResult) {
	if config.SettleDelay < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "editor.settle_delay",
			Value:   config.SettleDelay,
			Message: "settle delay must be positive",
		})
	}

	if _, err := theme.ParseMode(config.Theme); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "editor.theme",
			Value:       config.Theme,
			Message:     err.Error(),
			Suggestions: []string{"Use 'light' or 'dark'"},
		})
	}
}

func validateSubmitConfigDetails(config *SubmitConfig, result *ValidationResult) {
	if config.Rate < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "submit.rate",
			Value:   config.Rate,
			Message: "rate must not be negative",
		})
	}
	if config.Burst < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "submit.burst",
			Value:   config.Burst,
			Message: "burst must not be negative",
		})
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.level",
			Value:       config.Level,
			Message:     err.Error(),
			Suggestions: []string{"Use debug, info, warn or error"},
		})
	}

	switch config.Format {
	case "", "text", "json":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.format",
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown log format %q", config.Format),
			Suggestions: []string{"Use text or json"},
		})
	}
}

// Helper validation functions

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}
