// Package clock abstracts the time source so token expiry and rate-limit
// windows can be driven deterministically in tests.
package clock

import "time"

// Clock provides the current time and timer channels.
type Clock interface {
	// Now returns the current time according to this clock.
	Now() time.Time
	// After returns a channel that receives the clock's time once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// Real implements Clock using the system time.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// After wraps time.After.
func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// OrReal returns c, or a Real clock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
