package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeRejected   ErrorType = "rejected"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// VaultError is a structured error type with context.
type VaultError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Component string
	// Status is the HTTP status returned by the persistence backend, if any.
	Status int
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *VaultError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *VaultError) Is(target error) bool {
	var t *VaultError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *VaultError) WithContext(key string, value interface{}) *VaultError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *VaultError) WithComponent(component string) *VaultError {
	e.Component = component

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *VaultError {
	return &VaultError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewNetworkError creates an error for a failed exchange with a remote
// service: dial failures, timeouts, unreadable responses.
func NewNetworkError(code, message string, cause error) *VaultError {
	return &VaultError{
		Type:    ErrorTypeNetwork,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewRejectedError creates an error for a request the remote service
// answered but refused.
func NewRejectedError(code, message string, status int) *VaultError {
	return &VaultError{
		Type:    ErrorTypeRejected,
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *VaultError {
	return &VaultError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *VaultError {
	return &VaultError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the type of the first VaultError in err's chain, or
// ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Type
	}

	return ErrorTypeInternal
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	var ve *VaultError
	return errors.As(err, &ve) && ve.Type == ErrorTypeValidation
}

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool {
	var ve *VaultError
	return errors.As(err, &ve) && ve.Type == ErrorTypeNetwork
}

// IsRejected checks if an error is a rejection by a remote service.
func IsRejected(err error) bool {
	var ve *VaultError
	return errors.As(err, &ve) && ve.Type == ErrorTypeRejected
}

// ErrorHandler provides centralized error logging.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level matching its type: caller mistakes and remote
// refusals are warnings, everything else is an error.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ve *VaultError
	if !errors.As(err, &ve) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	fields := []interface{}{"type", string(ve.Type), "code", ve.Code}
	if ve.Component != "" {
		fields = append(fields, "component", ve.Component)
	}
	if ve.Status != 0 {
		fields = append(fields, "status", ve.Status)
	}

	switch ve.Type {
	case ErrorTypeValidation, ErrorTypeRejected:
		h.logger.Warn(ctx, err, "Request refused", fields...)
	default:
		h.logger.Error(ctx, err, "Error occurred", fields...)
	}
}

// Common error codes.
const (
	ErrCodeUnknownLanguage  = "ERR_UNKNOWN_LANGUAGE"
	ErrCodeUnknownTheme     = "ERR_UNKNOWN_THEME"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeTransport        = "ERR_TRANSPORT"
	ErrCodeBadResponse      = "ERR_BAD_RESPONSE"
	ErrCodePasteRejected    = "ERR_PASTE_REJECTED"
	ErrCodeThrottled        = "ERR_THROTTLED"
	ErrCodeSessionClosed    = "ERR_SESSION_CLOSED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// FieldValidationError reports a single failed field check.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// Field returns the field name that failed validation.
func (fve *FieldValidationError) Field() string {
	return fve.FieldName
}
