package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"nmc-mcp/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 8, 9, 8, 0, 0, 0, time.UTC)

func TestNew_Defaults(t *testing.T) {
	l := New(Config{})
	stats := l.Stats()
	assert.Equal(t, 5, stats.Limit)
	assert.Equal(t, time.Second, stats.Window)
}

func TestAcquire_AdmitsUpToLimitWithoutWaiting(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	l := New(Config{Limit: 5, Window: time.Second, Clock: clock})

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}

	stats := l.Stats()
	assert.Equal(t, 5, stats.InWindow)
	assert.Equal(t, uint64(5), stats.Admitted)
	assert.Equal(t, uint64(0), stats.Waited)
	assert.Equal(t, 0, clock.Waiters())
}

// Six simultaneous calls against a 5/second ceiling: five depart at once and
// the sixth departs exactly when the window rolls over.
func TestAcquire_SixthCallWaitsForWindowRollover(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	l := New(Config{Limit: 5, Window: time.Second, Clock: clock})

	departed := make(chan time.Time, 6)
	for i := 0; i < 6; i++ {
		go func() {
			if err := l.Acquire(context.Background()); err == nil {
				departed <- clock.Now()
			}
		}()
	}

	for i := 0; i < 5; i++ {
		select {
		case at := <-departed:
			assert.Equal(t, epoch, at)
		case <-time.After(time.Second):
			t.Fatalf("only %d calls departed in the first window", i)
		}
	}

	require.True(t, clock.BlockUntil(1, time.Second), "sixth caller should be waiting on the clock")

	clock.Advance(999 * time.Millisecond)
	select {
	case <-departed:
		t.Fatal("sixth call departed before the window rolled over")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(time.Millisecond)
	select {
	case at := <-departed:
		assert.Equal(t, epoch.Add(time.Second), at)
	case <-time.After(time.Second):
		t.Fatal("sixth call did not depart after the window rolled over")
	}

	assert.Equal(t, uint64(1), l.Stats().Waited)
}

// Many concurrent callers: no rolling window ever contains more departures
// than the limit.
func TestAcquire_NeverExceedsLimitInAnyWindow(t *testing.T) {
	const (
		limit   = 5
		callers = 32
		window  = time.Second
	)
	clock := mock.NewMockClock(epoch)
	l := New(Config{Limit: limit, Window: window, Clock: clock})

	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background()))
			mu.Lock()
			times = append(times, clock.Now())
			mu.Unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	deadline := time.After(5 * time.Second)
drive:
	for {
		select {
		case <-done:
			break drive
		case <-deadline:
			t.Fatal("callers did not finish")
		default:
		}

		if clock.Waiters() > 0 {
			mu.Lock()
			recorded := uint64(len(times))
			mu.Unlock()
			if recorded == l.Stats().Admitted {
				next, ok := clock.NextDeadline()
				if ok {
					clock.Set(next)
				}
				continue
			}
		}
		time.Sleep(time.Millisecond)
	}

	require.Len(t, times, callers)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i := range times {
		inWindow := 0
		for j := i; j < len(times) && times[j].Before(times[i].Add(window)); j++ {
			inWindow++
		}
		assert.LessOrEqual(t, inWindow, limit, "window starting at %v", times[i])
	}
	// 32 callers at 5 per second need at least six full rollovers.
	assert.GreaterOrEqual(t, times[len(times)-1].Sub(epoch), 6*window)
}

func TestAcquire_CancelledWaiterDoesNotLeakSlot(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	l := New(Config{Limit: 1, Window: time.Second, Clock: clock})

	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Acquire(ctx)
	}()

	require.True(t, clock.BlockUntil(1, time.Second))
	cancel()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return promptly")
	}

	stats := l.Stats()
	assert.Equal(t, 1, stats.InWindow)
	assert.Equal(t, uint64(1), stats.Admitted)

	clock.Advance(time.Second)
	require.NoError(t, l.Acquire(context.Background()), "turn and slot must be free after cancellation")
	assert.Equal(t, uint64(2), l.Stats().Admitted)
}

func TestAcquire_CancelledWhileQueuedForTurn(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	l := New(Config{Limit: 1, Window: time.Second, Clock: clock})
	require.NoError(t, l.Acquire(context.Background()))

	// First waiter holds the turn while sleeping on the clock.
	first := make(chan error, 1)
	go func() { first <- l.Acquire(context.Background()) }()
	require.True(t, clock.BlockUntil(1, time.Second))

	// Second waiter is queued behind it and gives up.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)

	clock.Advance(time.Second)
	select {
	case err := <-first:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first waiter was not admitted")
	}
	assert.Equal(t, uint64(2), l.Stats().Admitted)
}

func TestAcquire_AlreadyCancelledContext(t *testing.T) {
	l := New(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The turn may be free, so either branch of the select can win; both
	// outcomes are acceptable as long as a cancelled context never waits.
	err := l.Acquire(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestAcquire_WaitersAreServedInArrivalOrder(t *testing.T) {
	clock := mock.NewMockClock(epoch)
	l := New(Config{Limit: 1, Window: time.Second, Clock: clock})
	require.NoError(t, l.Acquire(context.Background()))

	order := make(chan string, 3)
	start := func(name string) {
		go func() {
			if err := l.Acquire(context.Background()); err == nil {
				order <- name
			}
		}()
	}

	start("a")
	require.True(t, clock.BlockUntil(1, time.Second))
	start("b")
	time.Sleep(10 * time.Millisecond)
	start("c")
	time.Sleep(10 * time.Millisecond)

	for _, want := range []string{"a", "b", "c"} {
		require.True(t, clock.BlockUntil(1, time.Second))
		clock.Advance(time.Second)
		select {
		case got := <-order:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("waiter %s was not admitted", want)
		}
	}
}

func TestAcquire_RealClockPacing(t *testing.T) {
	l := New(Config{Limit: 3, Window: 50 * time.Millisecond})

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background()))
		}()
	}
	wg.Wait()

	// 7 departures at 3 per window need two rollovers.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
