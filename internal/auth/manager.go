package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/clock"
	"nmc-mcp/internal/metrics"
	"nmc-mcp/pkg/logging"
	pkgstrings "nmc-mcp/pkg/strings"

	"golang.org/x/sync/singleflight"
)

// loginKey is the single singleflight key; there is only one credential.
const loginKey = "login"

// State is the lifecycle state reported by Status.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateValid           State = "valid"
	StateNearExpiry      State = "near_expiry"
	StateFailed          State = "failed"
)

// LoginResult is what a successful login exchange yields. ExpiresAt wins over
// ExpiresIn; when neither is set the manager's default lifetime applies.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	ExpiresIn time.Duration
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
}

// TokenStore persists the current token across processes. Implementations
// live in the tokenstore package.
type TokenStore interface {
	Load(ctx context.Context) (Token, bool, error)
	Save(ctx context.Context, token Token) error
	Clear(ctx context.Context) error
}

// Config configures a Manager.
type Config struct {
	Username string
	Password string

	// ExpiryMargin: tokens with this much lifetime or less are never used.
	ExpiryMargin time.Duration
	// RefreshWindow: tokens with this much lifetime or less are refreshed
	// proactively while still being usable.
	RefreshWindow time.Duration
	// DefaultLifetime applies when the server declares no expiry.
	DefaultLifetime time.Duration
	// LoginTimeout bounds one login exchange independently of the callers
	// waiting on it.
	LoginTimeout time.Duration
	// RefreshBackoff: after a failed proactive refresh, the usable token is
	// returned without another attempt for this long.
	RefreshBackoff time.Duration

	Clock   clock.Clock
	Store   TokenStore
	Metrics *metrics.Metrics
}

// Status is a side-effect-free snapshot of the manager.
type Status struct {
	State              State         `json:"state"`
	HasToken           bool          `json:"has_token"`
	TokenPreview       string        `json:"token_preview,omitempty"`
	IssuedAt           time.Time     `json:"issued_at,omitempty"`
	ExpiresAt          time.Time     `json:"expires_at,omitempty"`
	TTL                time.Duration `json:"ttl"`
	RefreshRecommended bool          `json:"refresh_recommended"`
	Logins             int           `json:"logins"`
	LastLogin          time.Time     `json:"last_login,omitempty"`
	LastError          string        `json:"last_error,omitempty"`
}

// Manager owns the single current NMC token.
//
// All reads and swaps of the token go through the manager. Login exchanges
// are coalesced with singleflight, so concurrent callers that find the token
// missing or stale share one exchange and observe the same resulting token.
type Manager struct {
	cfg   Config
	authn Authenticator
	clock clock.Clock
	group singleflight.Group

	mu             sync.RWMutex
	current        *Token
	authenticating bool
	failed         bool
	lastErr        error
	logins         int
	lastLogin      time.Time
	storeChecked   bool

	// proactiveFailedAt is when the last proactive refresh failed; zero
	// after any successful login.
	proactiveFailedAt time.Time
}

// NewManager creates a token manager.
func NewManager(cfg Config, authn Authenticator) *Manager {
	if cfg.DefaultLifetime <= 0 {
		cfg.DefaultLifetime = time.Hour
	}
	if cfg.RefreshWindow < cfg.ExpiryMargin {
		cfg.RefreshWindow = cfg.ExpiryMargin
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = 30 * time.Second
	}
	if cfg.RefreshBackoff <= 0 {
		cfg.RefreshBackoff = time.Minute
	}
	return &Manager{
		cfg:   cfg,
		authn: authn,
		clock: clock.OrReal(cfg.Clock),
	}
}

// EnsureValid returns a token that is safe to send.
//
// With no token, or one inside the expiry margin, it logs in first and
// fails with *api.AuthError if that exchange fails. With a token inside the
// refresh window it refreshes proactively; if that refresh fails the old,
// still usable token is returned and proactive refresh pauses for
// RefreshBackoff.
func (m *Manager) EnsureValid(ctx context.Context) (Token, error) {
	m.adoptStoredToken(ctx)

	tok, ok := m.snapshot()
	if ok {
		switch m.statusOf(tok) {
		case TokenValid:
			return tok, nil
		case TokenExpiring:
			if m.inRefreshBackoff() {
				return tok, nil
			}
			logging.Debug("Auth", "Token expires in %v, refreshing proactively", tok.TTL(m.clock.Now()).Round(time.Second))
			fresh, err := m.login(ctx)
			if err == nil {
				return fresh, nil
			}
			if ctx.Err() != nil {
				return Token{}, err
			}
			// The previous token may have been replaced or expired meanwhile.
			if cur, ok := m.snapshot(); ok && m.statusOf(cur) != TokenExpired {
				m.mu.Lock()
				m.proactiveFailedAt = m.clock.Now()
				m.mu.Unlock()
				logging.Warn("Auth", "Proactive token refresh failed, continuing with current token for %v: %v", m.cfg.RefreshBackoff, err)
				return cur, nil
			}
			return Token{}, err
		}
	}

	return m.login(ctx)
}

// Refresh re-authenticates. Without force, a token that is still valid
// (outside the refresh window) is returned as is.
func (m *Manager) Refresh(ctx context.Context, force bool) (Token, error) {
	if !force {
		m.adoptStoredToken(ctx)
		if tok, ok := m.snapshot(); ok && m.statusOf(tok) == TokenValid {
			logging.Debug("Auth", "Token still valid for %v, skipping refresh", tok.TTL(m.clock.Now()).Round(time.Second))
			return tok, nil
		}
	}
	return m.login(ctx)
}

// RefreshRejected handles a token the server answered with 401/403. If
// another caller already replaced that token, the replacement is returned
// without a new login; otherwise a forced refresh is performed.
func (m *Manager) RefreshRejected(ctx context.Context, rejected string) (Token, error) {
	if tok, ok := m.snapshot(); ok && tok.Value != rejected && m.statusOf(tok) != TokenExpired {
		logging.Debug("Auth", "Rejected token was already replaced, reusing %s", pkgstrings.MaskSecret(tok.Value))
		return tok, nil
	}

	logging.Info("Auth", "Server rejected token %s, re-authenticating", pkgstrings.MaskSecret(rejected))
	m.mu.Lock()
	if m.current != nil && m.current.Value == rejected {
		m.current = nil
	}
	m.mu.Unlock()
	if m.cfg.Store != nil {
		if err := m.cfg.Store.Clear(ctx); err != nil {
			logging.Warn("Auth", "Failed to clear cached token: %v", err)
		}
	}

	return m.login(ctx)
}

// Status reports the current token state without side effects.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	st := Status{
		Logins:    m.logins,
		LastLogin: m.lastLogin,
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}

	var tokStatus TokenStatus = TokenExpired
	if m.current != nil {
		tok := *m.current
		tokStatus = m.statusOf(tok)
		st.HasToken = true
		st.TokenPreview = pkgstrings.MaskSecret(tok.Value)
		st.IssuedAt = tok.IssuedAt
		st.ExpiresAt = tok.ExpiresAt
		st.TTL = tok.TTL(now)
		if st.TTL < 0 {
			st.TTL = 0
		}
	}
	st.RefreshRecommended = tokStatus != TokenValid

	switch {
	case m.authenticating:
		st.State = StateAuthenticating
	case m.current != nil && tokStatus == TokenValid:
		st.State = StateValid
	case m.current != nil && tokStatus == TokenExpiring:
		st.State = StateNearExpiry
	case m.failed:
		st.State = StateFailed
	default:
		st.State = StateUnauthenticated
	}
	return st
}

// login joins or starts the single in-flight exchange. The exchange runs
// detached from ctx with its own timeout; ctx only bounds how long this
// caller waits for it.
func (m *Manager) login(ctx context.Context) (Token, error) {
	ch := m.group.DoChan(loginKey, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.LoginTimeout)
		defer cancel()
		return m.exchange(lctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	case <-ctx.Done():
		return Token{}, ctx.Err()
	}
}

func (m *Manager) exchange(ctx context.Context) (Token, error) {
	if m.authn == nil {
		return Token{}, &api.AuthError{Message: "no authenticator configured"}
	}

	m.mu.Lock()
	m.authenticating = true
	m.mu.Unlock()

	start := m.clock.Now()
	res, err := m.authn.Login(ctx, m.cfg.Username, m.cfg.Password)
	if err == nil && res.Token == "" {
		err = errors.New("login response contained no token")
	}
	if err != nil {
		var authErr *api.AuthError
		if !errors.As(err, &authErr) {
			err = &api.AuthError{Message: "login failed", Err: err}
		}
		m.mu.Lock()
		m.authenticating = false
		m.failed = true
		m.lastErr = err
		m.mu.Unlock()
		m.cfg.Metrics.IncLogin("failure")
		logging.Error("Auth", err, "Login as %s failed", m.cfg.Username)
		return Token{}, err
	}

	tok := Token{
		Value:     res.Token,
		IssuedAt:  start,
		ExpiresAt: m.expiryFor(start, res),
	}

	m.mu.Lock()
	m.current = &tok
	m.authenticating = false
	m.failed = false
	m.lastErr = nil
	m.logins++
	m.lastLogin = start
	m.proactiveFailedAt = time.Time{}
	m.mu.Unlock()
	m.cfg.Metrics.IncLogin("success")

	logging.Info("Auth", "Obtained token %s, expires %s (in %v)",
		pkgstrings.MaskSecret(tok.Value), tok.ExpiresAt.Format(time.RFC3339), tok.TTL(start).Round(time.Second))

	if m.cfg.Store != nil {
		if err := m.cfg.Store.Save(ctx, tok); err != nil {
			logging.Warn("Auth", "Failed to cache token: %v", err)
		}
	}
	return tok, nil
}

func (m *Manager) expiryFor(issued time.Time, res LoginResult) time.Time {
	switch {
	case !res.ExpiresAt.IsZero() && res.ExpiresAt.After(issued):
		return res.ExpiresAt
	case res.ExpiresIn > 0:
		return issued.Add(res.ExpiresIn)
	}
	if !res.ExpiresAt.IsZero() {
		logging.Warn("Auth", "Server declared expiry %s is not in the future, assuming %v lifetime",
			res.ExpiresAt.Format(time.RFC3339), m.cfg.DefaultLifetime)
	}
	return issued.Add(m.cfg.DefaultLifetime)
}

// adoptStoredToken loads a cached token once, on first use.
func (m *Manager) adoptStoredToken(ctx context.Context) {
	if m.cfg.Store == nil {
		return
	}
	m.mu.Lock()
	if m.storeChecked {
		m.mu.Unlock()
		return
	}
	m.storeChecked = true
	m.mu.Unlock()

	tok, ok, err := m.cfg.Store.Load(ctx)
	if err != nil {
		logging.Warn("Auth", "Failed to read cached token: %v", err)
		return
	}
	if !ok || m.statusOf(tok) == TokenExpired {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		m.current = &tok
		logging.Info("Auth", "Reusing cached token %s, expires %s",
			pkgstrings.MaskSecret(tok.Value), tok.ExpiresAt.Format(time.RFC3339))
	}
}

func (m *Manager) inRefreshBackoff() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.proactiveFailedAt.IsZero() && m.clock.Now().Before(m.proactiveFailedAt.Add(m.cfg.RefreshBackoff))
}

func (m *Manager) snapshot() (Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Token{}, false
	}
	return *m.current, true
}

func (m *Manager) statusOf(tok Token) TokenStatus {
	return tok.StatusAt(m.clock.Now(), m.cfg.ExpiryMargin, m.cfg.RefreshWindow)
}
