package nmc

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/auth"
	"nmc-mcp/internal/client"
)

// AuthAPI performs the NMC credential exchange. It implements
// auth.Authenticator.
type AuthAPI struct{ doer client.Doer }

var _ auth.Authenticator = (*AuthAPI)(nil)

var ssoPattern = regexp.MustCompile(`\bsso\b|single sign`)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}

// Login posts the credentials and returns the issued token. Rejections,
// including accounts that cannot use the API, are reported as
// *api.AuthError.
func (a *AuthAPI) Login(ctx context.Context, username, password string) (auth.LoginResult, error) {
	var body loginResponse
	err := client.PostJSON(ctx, a.doer, LoginPath, loginRequest{Username: username, Password: password}, &body, false)
	if err != nil {
		return auth.LoginResult{}, loginError(err)
	}
	if body.Token == "" {
		return auth.LoginResult{}, &api.AuthError{Message: "login response contained no token"}
	}

	res := auth.LoginResult{Token: body.Token}
	if t, ok := ParseTime(body.Expires); ok {
		res.ExpiresAt = t
	}
	return res, nil
}

// loginError turns a rejected login into an AuthError with a hint for the
// account types the NMC refuses API access to.
func loginError(err error) error {
	var (
		authErr *api.AuthError
		reqErr  *api.RequestError
		message string
		status  int
	)
	switch {
	case errors.As(err, &authErr):
		message, status = authErr.Message, authErr.StatusCode
	case errors.As(err, &reqErr):
		message, status = reqErr.Message, reqErr.StatusCode
	default:
		return err
	}

	lower := strings.ToLower(message)
	switch {
	case ssoPattern.MatchString(lower):
		message = "SSO accounts cannot use the NMC API; use a local or domain account: " + message
	case strings.Contains(lower, "disabled") || strings.Contains(lower, "not permitted"):
		message = "API access is disabled for this account: " + message
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		message = "invalid credentials: " + message
	}
	return &api.AuthError{Message: "login failed: " + message, StatusCode: status, Err: err}
}

// LoginTimeLayout is the NMC expiry format, e.g. "2025-08-09T08:00:27UTC".
const LoginTimeLayout = "2006-01-02T15:04:05MST"

// FormatTime renders t the way the NMC does.
func FormatTime(t time.Time) string {
	return t.UTC().Format(LoginTimeLayout)
}
