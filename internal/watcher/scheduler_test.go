package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out manually driven tickers so tests advance logical time
// instead of sleeping.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	ch chan time.Time

	mu      sync.Mutex
	every   time.Duration
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1), every: d}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) ticker(i int) *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[i]
}

func (c *fakeClock) tickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *fakeTicker) interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.every
}

// fire pushes one tick. The channel is buffered, matching time.Ticker.
func (t *fakeTicker) fire(tm time.Time) {
	select {
	case t.ch <- tm:
	default:
	}
}

func waitFired(t *testing.T, fired <-chan int64) int64 {
	t.Helper()
	select {
	case id := <-fired:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fire, got none")
		return 0
	}
}

func requireNoFire(t *testing.T, fired <-chan int64) {
	t.Helper()
	select {
	case id := <-fired:
		t.Fatalf("unexpected fire for watch %d", id)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSchedulerFiresRegisteredJob(t *testing.T) {
	clock := newFakeClock()
	sched := NewScheduler(clock, zerolog.Nop())
	defer sched.Close()

	fired := make(chan int64, 4)
	sched.Schedule(7, 24*time.Hour, func(ctx context.Context) { fired <- 7 })

	require.True(t, sched.Scheduled(7))
	require.Equal(t, 24*time.Hour, clock.ticker(0).interval())

	clock.ticker(0).fire(clock.Now())
	require.Equal(t, int64(7), waitFired(t, fired))
}

func TestScheduleReplacesExistingTimer(t *testing.T) {
	clock := newFakeClock()
	sched := NewScheduler(clock, zerolog.Nop())
	defer sched.Close()

	oldFired := make(chan int64, 4)
	newFired := make(chan int64, 4)

	sched.Schedule(1, 24*time.Hour, func(ctx context.Context) { oldFired <- 1 })
	sched.Schedule(1, 6*time.Hour, func(ctx context.Context) { newFired <- 1 })

	require.Equal(t, 1, sched.Len(), "replace must leave exactly one timer")
	require.True(t, clock.ticker(0).isStopped(), "old ticker must be stopped")
	require.Equal(t, 6*time.Hour, clock.ticker(1).interval())

	// A stale tick on the replaced timer must not reach the old job.
	clock.ticker(0).fire(clock.Now())
	requireNoFire(t, oldFired)

	clock.ticker(1).fire(clock.Now())
	require.Equal(t, int64(1), waitFired(t, newFired))
}

func TestCancelIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	sched := NewScheduler(clock, zerolog.Nop())
	defer sched.Close()

	fired := make(chan int64, 4)
	sched.Schedule(3, time.Hour, func(ctx context.Context) { fired <- 3 })

	sched.Cancel(3)
	sched.Cancel(3)
	sched.Cancel(99)

	require.False(t, sched.Scheduled(3))
	require.True(t, clock.ticker(0).isStopped())

	clock.ticker(0).fire(clock.Now())
	requireNoFire(t, fired)
}

func TestSlowFireDoesNotBlockOtherWatches(t *testing.T) {
	clock := newFakeClock()
	sched := NewScheduler(clock, zerolog.Nop())
	defer sched.Close()

	release := make(chan struct{})
	fired := make(chan int64, 4)

	sched.Schedule(1, time.Hour, func(ctx context.Context) {
		<-release
	})
	sched.Schedule(2, time.Hour, func(ctx context.Context) { fired <- 2 })

	clock.ticker(0).fire(clock.Now())
	clock.ticker(1).fire(clock.Now())

	require.Equal(t, int64(2), waitFired(t, fired))
	close(release)
}

func TestCloseStopsAllTimers(t *testing.T) {
	clock := newFakeClock()
	sched := NewScheduler(clock, zerolog.Nop())

	fired := make(chan int64, 4)
	sched.Schedule(1, time.Hour, func(ctx context.Context) { fired <- 1 })
	sched.Schedule(2, time.Hour, func(ctx context.Context) { fired <- 2 })

	sched.Close()

	require.Equal(t, 0, sched.Len())
	require.True(t, clock.ticker(0).isStopped())
	require.True(t, clock.ticker(1).isStopped())
}
