package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// JobFunc runs one recheck fire.
type JobFunc func(ctx context.Context)

// Scheduler owns the table of watch id to recurring timer. At most one timer
// is live per id; Schedule replaces, Cancel removes. Each fire dispatches on
// its own goroutine so a slow recheck never delays other watches.
type Scheduler struct {
	clock  Clock
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[int64]*entry
}

type entry struct {
	ticker Ticker
	done   chan struct{}
}

func (e *entry) stop() {
	e.ticker.Stop()
	close(e.done)
}

// NewScheduler constructs an empty scheduler.
func NewScheduler(clock Clock, logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:   clock,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[int64]*entry),
	}
}

// Schedule registers a recurring timer for id, replacing any existing one.
// The replaced timer cannot fire once Schedule returns; the new timer's first
// fire is every after this call, not aligned to the old cadence.
func (s *Scheduler) Schedule(id int64, every time.Duration, job JobFunc) {
	if every <= 0 {
		panic("watcher: schedule interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[id]; ok {
		old.stop()
	}

	e := &entry{
		ticker: s.clock.NewTicker(every),
		done:   make(chan struct{}),
	}
	s.entries[id] = e

	go s.loop(id, e, job)
	s.logger.Debug().Int64("watch_id", id).Dur("every", every).Msg("timer registered")
}

func (s *Scheduler) loop(id int64, e *entry, job JobFunc) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-e.done:
			return
		case <-e.ticker.C():
			// A tick raced with a replace or cancel; drop it.
			select {
			case <-e.done:
				return
			default:
			}
			s.logger.Info().Int64("watch_id", id).Msg("executing scheduled recheck")
			go job(s.ctx)
		}
	}
}

// Cancel removes the timer for id. A missing entry is a no-op, not an error.
func (s *Scheduler) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.stop()
	delete(s.entries, id)
	s.logger.Debug().Int64("watch_id", id).Msg("timer cancelled")
}

// Scheduled reports whether id currently has a live timer.
func (s *Scheduler) Scheduled(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// Len returns the number of live timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close cancels every timer and stops dispatching fires. In-flight rechecks
// are not waited for; observations are safe to miss, not to corrupt.
func (s *Scheduler) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.stop()
		delete(s.entries, id)
	}
}
