// Package ratelimit paces outbound NMC API calls.
//
// The NMC API allows a fixed number of requests per rolling window (5 per
// second by default). Every HTTP attempt, including retries and the login
// exchange, must pass through one shared Limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"nmc-mcp/internal/clock"
	"nmc-mcp/pkg/logging"

	"golang.org/x/time/rate"
)

// Config holds configuration for the rate limiter.
type Config struct {
	// Limit is the maximum number of departures within Window.
	// Default: 5
	Limit int

	// Window is the rolling window length.
	// Default: 1 second
	Window time.Duration

	// Clock defaults to the system clock.
	Clock clock.Clock
}

// DefaultConfig returns the NMC rate limit: 5 requests per second.
func DefaultConfig() Config {
	return Config{
		Limit:  5,
		Window: time.Second,
	}
}

// Limiter is a sliding-window log limiter.
//
// Callers are admitted one at a time through a single-slot turn channel, so
// waiters are served in arrival order. The caller holding the turn either
// records its departure immediately or sleeps until the oldest departure in
// the window expires. A departure is recorded only when the caller is
// admitted, so a cancelled waiter never consumes a slot.
type Limiter struct {
	limit  int
	window time.Duration
	clock  clock.Clock

	turn chan struct{}

	mu         sync.Mutex
	departures []time.Time
	admitted   uint64
	waited     uint64

	logWait rate.Sometimes
}

// Stats is a point-in-time view of the limiter.
type Stats struct {
	Limit    int
	Window   time.Duration
	InWindow int
	// Admitted counts every successful Acquire.
	Admitted uint64
	// Waited counts Acquire calls that had to wait for the window to roll.
	Waited uint64
}

// New creates a new limiter with the given configuration.
func New(cfg Config) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}

	return &Limiter{
		limit:      cfg.Limit,
		window:     cfg.Window,
		clock:      clock.OrReal(cfg.Clock),
		turn:       make(chan struct{}, 1),
		departures: make([]time.Time, 0, cfg.Limit),
		logWait:    rate.Sometimes{Interval: 5 * time.Second},
	}
}

// Acquire blocks until one more request can depart without exceeding the
// limit in any rolling window, then records the departure.
//
// It returns ctx.Err() if ctx is done first, in which case no slot is used.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.turn <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.turn }()

	counted := false
	for {
		wait, ok := l.tryReserve()
		if ok {
			return nil
		}

		if !counted {
			counted = true
			l.mu.Lock()
			l.waited++
			l.mu.Unlock()
		}
		l.logWait.Do(func() {
			logging.Debug("RateLimit", "Rate limit of %d per %v reached, waiting %v", l.limit, l.window, wait)
		})

		select {
		case <-l.clock.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// tryReserve records a departure if the window has room. Otherwise it
// returns how long until the oldest departure leaves the window.
func (l *Limiter) tryReserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.pruneLocked(now)

	if len(l.departures) < l.limit {
		l.departures = append(l.departures, now)
		l.admitted++
		return 0, true
	}

	wait := l.departures[0].Add(l.window).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

// pruneLocked drops departures that are at least one window old.
func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.departures) && !l.departures[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.departures = append(l.departures[:0], l.departures[i:]...)
	}
}

// Stats returns current counters. It does not modify the window.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.clock.Now().Add(-l.window)
	inWindow := 0
	for _, t := range l.departures {
		if t.After(cutoff) {
			inWindow++
		}
	}

	return Stats{
		Limit:    l.limit,
		Window:   l.window,
		InWindow: inWindow,
		Admitted: l.admitted,
		Waited:   l.waited,
	}
}
