package mock

import (
	"sort"
	"sync"
	"time"

	"nmc-mcp/internal/clock"
)

var _ clock.Clock = (*MockClock)(nil)

// MockClock implements clock.Clock with a controllable time value.
// Timers created with After only fire when Advance or Set moves the clock
// past their deadline, which lets tests step through token expiry and
// rate-limit windows without waiting for real time to pass.
type MockClock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	current time.Time
	timers  []*mockTimer
}

type mockTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// NewMockClock creates a new mock clock initialized to the given time.
// If t is zero, the clock is initialized to the current time.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Now()
	}
	m := &MockClock{current: t}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Now returns the current time according to this mock clock.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// After returns a channel that fires once the clock has been advanced by at
// least d. A non-positive d fires immediately.
func (m *MockClock) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- m.current
		return ch
	}
	m.timers = append(m.timers, &mockTimer{deadline: m.current.Add(d), ch: ch})
	m.sortLocked()
	m.cond.Broadcast()
	return ch
}

// Advance moves the clock forward by the given duration and fires every timer
// whose deadline has been reached.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
	m.fireLocked()
}

// Set sets the clock to a specific time and fires due timers.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
	m.fireLocked()
}

// Add is an alias for Advance for API familiarity.
func (m *MockClock) Add(d time.Duration) {
	m.Advance(d)
}

// Waiters returns the number of timers that have not fired yet.
func (m *MockClock) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// NextDeadline returns the earliest pending timer deadline.
func (m *MockClock) NextDeadline() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.timers) == 0 {
		return time.Time{}, false
	}
	return m.timers[0].deadline, true
}

// BlockUntil waits until at least n timers are pending or the timeout
// elapses. It reports whether the condition was met.
func (m *MockClock) BlockUntil(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	stop := time.AfterFunc(timeout, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer stop.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.timers) < n {
		if !time.Now().Before(deadline) {
			return false
		}
		m.cond.Wait()
	}
	return true
}

func (m *MockClock) sortLocked() {
	sort.SliceStable(m.timers, func(i, j int) bool {
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})
}

func (m *MockClock) fireLocked() {
	pending := m.timers[:0]
	for _, t := range m.timers {
		if !t.deadline.After(m.current) {
			t.ch <- m.current
			continue
		}
		pending = append(pending, t)
	}
	m.timers = pending
}
