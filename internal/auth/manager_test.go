package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 8, 9, 7, 0, 0, 0, time.UTC)

// fakeAuthenticator issues tok-1, tok-2, ... with a one hour lifetime.
type fakeAuthenticator struct {
	clock *mock.MockClock

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
	failAt  map[int]error
}

func newFakeAuthenticator(clock *mock.MockClock) *fakeAuthenticator {
	return &fakeAuthenticator{clock: clock, failAt: map[int]error{}}
}

func (f *fakeAuthenticator) Login(ctx context.Context, username, password string) (LoginResult, error) {
	n := int(f.calls.Add(1))
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	f.mu.Lock()
	started, release := f.started, f.release
	err := f.failAt[n]
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return LoginResult{}, ctx.Err()
		}
	}
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:     fmt.Sprintf("tok-%d", n),
		ExpiresAt: f.clock.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthenticator) block() (started chan struct{}, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = make(chan struct{}, 16)
	f.release = make(chan struct{})
	return f.started, f.release
}

func newTestManager(clock *mock.MockClock, authn Authenticator) *Manager {
	return NewManager(Config{
		Username:        "admin",
		Password:        "secret",
		ExpiryMargin:    time.Minute,
		RefreshWindow:   10 * time.Minute,
		DefaultLifetime: time.Hour,
		LoginTimeout:    5 * time.Second,
		Clock:           clock,
	}, authn)
}

func TestEnsureValid_LogsInOnceAndCaches(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	m := newTestManager(clock, authn)

	tok, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
	assert.Equal(t, epoch, tok.IssuedAt)
	assert.Equal(t, epoch.Add(time.Hour), tok.ExpiresAt)

	tok, err = m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
	assert.Equal(t, int32(1), authn.calls.Load())
}

// A one hour token: a call 55 minutes in refreshes proactively before the
// margin is crossed, and a call five minutes after that reuses the new token.
func TestEnsureValid_ProactiveRefreshScenario(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	m := newTestManager(clock, authn)

	first, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first.Value)

	clock.Advance(55 * time.Minute)
	assert.True(t, m.Status().RefreshRecommended)
	assert.Equal(t, StateNearExpiry, m.Status().State)

	second, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", second.Value)
	assert.Equal(t, epoch.Add(55*time.Minute+time.Hour), second.ExpiresAt)
	assert.Greater(t, first.TTL(clock.Now()), time.Minute, "refresh happened before the margin")

	clock.Advance(5 * time.Minute)
	third, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", third.Value)
	assert.Equal(t, int32(2), authn.calls.Load())
}

func TestEnsureValid_ConcurrentCallersShareOneLogin(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	started, release := authn.block()
	m := newTestManager(clock, authn)

	const callers = 20
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := m.EnsureValid(context.Background())
			tokens[i], errs[i] = tok.Value, err
		}(i)
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("login was never started")
	}
	assert.Equal(t, StateAuthenticating, m.Status().State)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
	assert.Equal(t, int32(1), authn.calls.Load())
	assert.Equal(t, int32(1), authn.maxSeen.Load())
}

func TestEnsureValid_LoginFailureIsAuthError(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	authn.failAt[1] = errors.New("connection refused")
	m := newTestManager(clock, authn)

	_, err := m.EnsureValid(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))

	st := m.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.False(t, st.HasToken)
	assert.Contains(t, st.LastError, "connection refused")

	// The next call starts over and succeeds.
	tok, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.Value)
	assert.Equal(t, StateValid, m.Status().State)
	assert.Empty(t, m.Status().LastError)
}

func TestEnsureValid_AuthErrorFromAuthenticatorIsKept(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	authn.failAt[1] = &api.AuthError{Message: "SSO-only account", StatusCode: 403}
	m := newTestManager(clock, authn)

	_, err := m.EnsureValid(context.Background())
	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 403, authErr.StatusCode)
}

func TestEnsureValid_ProactiveRefreshFailureKeepsUsableToken(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	authn.failAt[2] = errors.New("timeout")
	m := newTestManager(clock, authn)

	_, err := m.EnsureValid(context.Background())
	require.NoError(t, err)

	clock.Advance(55 * time.Minute)
	tok, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
	assert.Contains(t, m.Status().LastError, "timeout")
}

// hangingAuthenticator issues one token and then never answers again.
type hangingAuthenticator struct {
	clock *mock.MockClock
	calls atomic.Int32
}

func (h *hangingAuthenticator) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if h.calls.Add(1) == 1 {
		return LoginResult{Token: "tok-1", ExpiresAt: h.clock.Now().Add(time.Hour)}, nil
	}
	<-ctx.Done()
	return LoginResult{}, ctx.Err()
}

func TestEnsureValid_FailedProactiveRefreshBacksOff(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := &hangingAuthenticator{clock: clock}
	m := NewManager(Config{
		ExpiryMargin:   time.Minute,
		RefreshWindow:  10 * time.Minute,
		LoginTimeout:   50 * time.Millisecond,
		RefreshBackoff: time.Minute,
		Clock:          clock,
	}, authn)

	_, err := m.EnsureValid(context.Background())
	require.NoError(t, err)

	clock.Advance(51 * time.Minute)
	start := time.Now()
	for i := 0; i < 5; i++ {
		tok, err := m.EnsureValid(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", tok.Value)
	}
	assert.Equal(t, int32(2), authn.calls.Load(), "one refresh attempt, then the usable token is reused")
	assert.Less(t, time.Since(start), 150*time.Millisecond, "only the first call waits for the login timeout")

	clock.Advance(time.Minute)
	tok, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
	assert.Equal(t, int32(3), authn.calls.Load(), "refresh is retried once the back-off has passed")
}

func TestEnsureValid_ExpiredTokenFailureSurfaces(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	authn.failAt[2] = errors.New("timeout")
	m := newTestManager(clock, authn)

	_, err := m.EnsureValid(context.Background())
	require.NoError(t, err)

	clock.Advance(59*time.Minute + 30*time.Second)
	_, err = m.EnsureValid(context.Background())
	assert.True(t, api.IsAuthError(err))
}

func TestEnsureValid_CancelledCallerStopsWaiting(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	started, release := authn.block()
	m := newTestManager(clock, authn)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := m.EnsureValid(ctx)
		errCh <- err
	}()

	<-started
	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting for the login")
	}

	// The detached exchange still completes and its token is reused.
	close(release)
	require.Eventually(t, func() bool { return m.Status().HasToken }, time.Second, 5*time.Millisecond)
	tok, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
	assert.Equal(t, int32(1), authn.calls.Load())
}

func TestRefresh(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	m := newTestManager(clock, authn)

	tok, err := m.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)

	tok, err = m.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value, "valid token is kept without force")

	tok, err = m.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.Value)
	assert.Equal(t, 2, m.Status().Logins)
}

func TestRefreshRejected(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	m := newTestManager(clock, authn)

	_, err := m.EnsureValid(context.Background())
	require.NoError(t, err)

	tok, err := m.RefreshRejected(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.Value)

	// A second caller that was rejected with the old token reuses the new one.
	tok, err = m.RefreshRejected(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.Value)
	assert.Equal(t, int32(2), authn.calls.Load())
}

func TestStatus(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	m := newTestManager(clock, newFakeAuthenticator(clock))

	st := m.Status()
	assert.Equal(t, StateUnauthenticated, st.State)
	assert.False(t, st.HasToken)
	assert.True(t, st.RefreshRecommended)

	_, err := m.EnsureValid(context.Background())
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	st = m.Status()
	assert.Equal(t, StateValid, st.State)
	assert.True(t, st.HasToken)
	assert.Equal(t, 40*time.Minute, st.TTL)
	assert.False(t, st.RefreshRecommended)
	assert.Equal(t, "*****", st.TokenPreview)
	assert.Equal(t, 1, st.Logins)

	clock.Advance(2 * time.Hour)
	st = m.Status()
	assert.Equal(t, StateUnauthenticated, st.State)
	assert.Equal(t, time.Duration(0), st.TTL)

	// Status has no side effects.
	assert.Equal(t, 1, m.Status().Logins)
}

func TestExpiryFallsBackToDefaultLifetime(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	m := newTestManager(clock, nil)

	assert.Equal(t, epoch.Add(time.Hour), m.expiryFor(epoch, LoginResult{}))
	assert.Equal(t, epoch.Add(30*time.Minute), m.expiryFor(epoch, LoginResult{ExpiresIn: 30 * time.Minute}))
	assert.Equal(t, epoch.Add(2*time.Hour), m.expiryFor(epoch, LoginResult{ExpiresAt: epoch.Add(2 * time.Hour)}))
	assert.Equal(t, epoch.Add(time.Hour), m.expiryFor(epoch, LoginResult{ExpiresAt: epoch.Add(-time.Minute)}))
}

func TestEnsureValid_NoAuthenticator(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	m := newTestManager(clock, nil)
	_, err := m.EnsureValid(context.Background())
	assert.True(t, api.IsAuthError(err))
}

type memoryStore struct {
	mu      sync.Mutex
	token   *Token
	saves   int
	cleared int
}

func (s *memoryStore) Load(ctx context.Context) (Token, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return Token{}, false, nil
	}
	return *s.token, true, nil
}

func (s *memoryStore) Save(ctx context.Context, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &token
	s.saves++
	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.cleared++
	return nil
}

func TestTokenStore(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	store := &memoryStore{token: &Token{Value: "cached", IssuedAt: epoch, ExpiresAt: epoch.Add(time.Hour)}}

	m := NewManager(Config{
		Username:      "admin",
		Password:      "secret",
		ExpiryMargin:  time.Minute,
		RefreshWindow: 10 * time.Minute,
		Clock:         clock,
		Store:         store,
	}, authn)

	tok, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", tok.Value)
	assert.Equal(t, int32(0), authn.calls.Load())

	tok, err = m.RefreshRejected(context.Background(), "cached")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
	assert.Equal(t, 1, store.cleared)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "tok-1", store.token.Value)
}

func TestTokenStore_ExpiredCachedTokenIgnored(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	authn := newFakeAuthenticator(clock)
	store := &memoryStore{token: &Token{Value: "stale", ExpiresAt: epoch.Add(30 * time.Second)}}

	m := NewManager(Config{ExpiryMargin: time.Minute, RefreshWindow: 10 * time.Minute, Clock: clock, Store: store}, authn)

	tok, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Value)
}
