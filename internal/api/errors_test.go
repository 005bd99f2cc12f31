package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{"nil", nil, ""},
		{"config", &ConfigError{}, KindConfig},
		{"auth", &AuthError{Message: "bad credentials"}, KindAuth},
		{"wrapped auth", fmt.Errorf("listing filers: %w", &AuthError{}), KindAuth},
		{"transient", &TransientError{Attempts: 3}, KindTransient},
		{"request", &RequestError{StatusCode: 404}, KindRequest},
		{"parse", &ParseError{}, KindParse},
		{"validation", NewValidationError("limit", "must be an integer"), KindValidation},
		{"not found", NewNotFoundError("tool", "nope"), KindNotFound},
		{"registration", &RegistrationError{Name: "x"}, KindRegistration},
		{"canceled", context.Canceled, KindTransient},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), KindTransient},
		{"unknown", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestAuthErrorWrappingTransientClassifiesAsAuth(t *testing.T) {
	err := &AuthError{Message: "login failed", Err: &TransientError{Message: "connection refused"}}
	assert.Equal(t, KindAuth, Classify(err))
	assert.True(t, IsTransient(err))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{NewNotFoundError("tool", "list_things"), "tool list_things not found"},
		{&NotFoundError{Message: "custom"}, "custom"},
		{NewValidationError("focus", "must be one of %v", []string{"errors"}), `invalid argument "focus": must be one of [errors]`},
		{&RequestError{Method: "GET", Path: "/api/v1.2/filers/9/", StatusCode: 404, Message: "Not found."}, "GET /api/v1.2/filers/9/: HTTP 404 Not Found: Not found."},
		{&AuthError{Message: "token rejected", StatusCode: 401}, "token rejected (HTTP 401)"},
		{&TransientError{Message: "server error", StatusCode: 503, Attempts: 3}, "server error (HTTP 503) after 3 attempts"},
		{&RegistrationError{Name: "list_filers", Message: "already registered"}, `cannot register tool "list_filers": already registered`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.err.Error())
	}
}

func TestConfigErrorCollectsFields(t *testing.T) {
	cfgErr := &ConfigError{}
	assert.False(t, cfgErr.HasProblems())

	cfgErr.Add("API_BASE_URL", "is required")
	cfgErr.Add("NMC_PASSWORD", "is required")

	assert.True(t, cfgErr.HasProblems())
	assert.Equal(t, []string{"API_BASE_URL", "NMC_PASSWORD"}, cfgErr.Fields)
	assert.Contains(t, cfgErr.Error(), "is required; is required")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &TransientError{Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, &AuthError{Err: cause}, cause)
	assert.ErrorIs(t, &ParseError{Err: cause}, cause)
}
