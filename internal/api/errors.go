package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failure so the host can decide whether suggesting a
// retry makes sense.
type ErrorKind string

const (
	KindConfig       ErrorKind = "config"
	KindAuth         ErrorKind = "auth"
	KindTransient    ErrorKind = "transient"
	KindRequest      ErrorKind = "request"
	KindParse        ErrorKind = "parse"
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindRegistration ErrorKind = "registration"
	KindInternal     ErrorKind = "internal"
)

// Retryable reports whether failures of this kind may succeed when retried
// later without any change by the caller.
func (k ErrorKind) Retryable() bool {
	return k == KindTransient
}

// ConfigError reports missing or invalid settings discovered at startup.
// Every offending field is collected so the operator can fix them in one pass.
type ConfigError struct {
	// Fields lists the configuration keys (environment variable names) at fault.
	Fields []string

	// Problems holds one human-readable line per issue, aligned with Fields.
	Problems []string
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid configuration"
	}
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Add records a problem for field.
func (e *ConfigError) Add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, field)
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// HasProblems reports whether any problem was recorded.
func (e *ConfigError) HasProblems() bool {
	return len(e.Problems) > 0
}

// AuthError indicates that the credential exchange failed or that the server
// rejected the request even after a fresh token was obtained.
type AuthError struct {
	// Message describes the failure in user terms.
	Message string

	// StatusCode is the HTTP status that caused the failure, if any.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface for AuthError.
func (e *AuthError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "authentication failed"
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransientError reports a network failure or 5xx response that persisted
// through every permitted retry.
type TransientError struct {
	Message    string
	StatusCode int
	Attempts   int
	Err        error
}

// Error implements the error interface for TransientError.
func (e *TransientError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "temporary failure"
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *TransientError) Unwrap() error { return e.Err }

// RequestError is a non-retryable client error (4xx other than 401/403).
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

// Error implements the error interface for RequestError.
func (e *RequestError) Error() string {
	status := http.StatusText(e.StatusCode)
	if status == "" {
		status = "error"
	}
	msg := fmt.Sprintf("%s %s: HTTP %d %s", e.Method, e.Path, e.StatusCode, status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// ParseError reports a response body that could not be decoded.
type ParseError struct {
	Message string
	// Snippet is the beginning of the offending body, for diagnostics.
	Snippet string
	Err     error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "malformed response body"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a tool argument that does not satisfy the tool's
// parameter schema.
type ValidationError struct {
	// Field is the name of the offending argument.
	Field   string
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Message
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError represents a resource not found error with contextual information.
// It is used both for unknown tool names and for remote entities (a filer, a
// volume) that a handler looked up and could not find.
type NotFoundError struct {
	// ResourceType categorizes the type of resource that was not found
	// (e.g., "tool", "filer", "volume")
	ResourceType string

	// ResourceName is the specific identifier of the resource that was not found
	ResourceName string

	// Message provides a custom error message if the default format is insufficient
	Message string
}

// Error implements the error interface for NotFoundError.
// Returns either the custom message if provided, or a formatted default message
// using the resource type and name.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// NewNotFoundError creates a new NotFoundError with the specified resource type and name.
//
// Example:
//
//	return api.NewNotFoundError("tool", "list_filers")
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceName: resourceName,
	}
}

// RegistrationError reports an invalid or duplicate tool registration.
type RegistrationError struct {
	Name    string
	Message string
}

// Error implements the error interface for RegistrationError.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("cannot register tool %q: %s", e.Name, e.Message)
}

// IsConfigError checks if an error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsAuthError checks if an error is or wraps an AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsTransient checks if an error is or wraps a TransientError.
func IsTransient(err error) bool {
	var target *TransientError
	return errors.As(err, &target)
}

// IsRequestError checks if an error is or wraps a RequestError.
func IsRequestError(err error) bool {
	var target *RequestError
	return errors.As(err, &target)
}

// IsParseError checks if an error is or wraps a ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsValidationError checks if an error is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound checks if an error is a NotFoundError using error unwrapping.
// The NMC clients report a 404 as a RequestError; only the tool handlers
// turn it into a NotFoundError.
//
// Example:
//
//	_, err := application.SelfTest(ctx, app.SelfTestOptions{Tools: []string{"no_such_tool"}})
//	if api.IsNotFound(err) {
//	    // Handle not found case
//	}
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsRegistrationError checks if an error is or wraps a RegistrationError.
func IsRegistrationError(err error) bool {
	var target *RegistrationError
	return errors.As(err, &target)
}

// Classify maps err onto the error taxonomy. Context cancellation and
// deadlines count as transient; anything unrecognised is internal.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case IsConfigError(err):
		return KindConfig
	case IsAuthError(err):
		return KindAuth
	case IsTransient(err):
		return KindTransient
	case IsRequestError(err):
		return KindRequest
	case IsParseError(err):
		return KindParse
	case IsValidationError(err):
		return KindValidation
	case IsNotFound(err):
		return KindNotFound
	case IsRegistrationError(err):
		return KindRegistration
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	default:
		return KindInternal
	}
}
