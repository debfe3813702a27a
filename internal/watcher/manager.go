package watcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"flightwatch/internal/storage"
)

// DefaultCheckInterval is applied when a request omits the interval, in hours.
const DefaultCheckInterval = 24

// WatchRequest carries the boundary input for create and update.
type WatchRequest struct {
	Destinations   []string
	Source         string
	DateStart      string
	DateEnd        string
	CheckInterval  int
	AllowNonDirect bool
	CustomFilter   string
}

// ValidationError reports a missing required watch field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (r WatchRequest) validate() error {
	switch {
	case len(r.Destinations) == 0:
		return &ValidationError{Field: "destinations"}
	case r.Source == "":
		return &ValidationError{Field: "source"}
	case r.DateStart == "":
		return &ValidationError{Field: "date_start"}
	case r.DateEnd == "":
		return &ValidationError{Field: "date_end"}
	}
	return nil
}

func (r WatchRequest) fields(defaultInterval int) storage.WatchFields {
	interval := r.CheckInterval
	if interval <= 0 {
		interval = defaultInterval
	}
	return storage.WatchFields{
		Destinations:   r.Destinations,
		Source:         r.Source,
		DateStart:      r.DateStart,
		DateEnd:        r.DateEnd,
		CheckInterval:  interval,
		AllowNonDirect: r.AllowNonDirect,
		CustomFilter:   r.CustomFilter,
	}
}

// Manager is the watch lifecycle façade: it coordinates store writes with
// scheduler registration so exactly one timer is live per active watch.
type Manager struct {
	store           storage.WatchStore
	sched           *Scheduler
	exec            Rechecker
	defaultInterval int
	logger          zerolog.Logger

	mu        sync.Mutex
	scheduled map[int64]string
}

// NewManager constructs the lifecycle manager.
func NewManager(store storage.WatchStore, sched *Scheduler, exec Rechecker, defaultInterval int, logger zerolog.Logger) *Manager {
	if defaultInterval <= 0 {
		defaultInterval = DefaultCheckInterval
	}
	return &Manager{
		store:           store,
		sched:           sched,
		exec:            exec,
		defaultInterval: defaultInterval,
		logger:          logger.With().Str("component", "manager").Logger(),
		scheduled:       make(map[int64]string),
	}
}

// Create validates and persists a new watch, runs one synchronous immediate
// recheck so the caller sees results before the first interval, then registers
// the recurring timer. The timer is registered whether or not the immediate
// recheck succeeded.
func (m *Manager) Create(ctx context.Context, req WatchRequest) (int64, error) {
	if err := req.validate(); err != nil {
		return 0, err
	}

	fields := req.fields(m.defaultInterval)
	id, err := m.store.CreateWatch(ctx, fields)
	if err != nil {
		return 0, fmt.Errorf("create watch: %w", err)
	}

	watch := watchFromFields(id, fields)
	if _, err := m.exec.Recheck(ctx, watch); err != nil {
		m.logger.Error().Err(err).Int64("watch_id", id).Msg("initial recheck failed")
	}

	m.register(watch)
	m.logger.Info().Int64("watch_id", id).Strs("destinations", watch.Destinations).
		Int("check_interval_hours", watch.CheckInterval).Msg("watch created and scheduled")
	return id, nil
}

// Update validates and persists replacement fields, then unconditionally
// replaces the watch's timer. No immediate recheck is run. The store no-ops on
// a missing id; callers that care should Get first.
func (m *Manager) Update(ctx context.Context, id int64, req WatchRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	fields := req.fields(m.defaultInterval)
	if err := m.store.UpdateWatch(ctx, id, fields); err != nil {
		return fmt.Errorf("update watch: %w", err)
	}

	m.register(watchFromFields(id, fields))
	m.logger.Info().Int64("watch_id", id).Int("check_interval_hours", fields.CheckInterval).
		Msg("watch updated, timer replaced")
	return nil
}

// Deactivate soft-deletes the watch and cancels its timer. Both halves are
// idempotent, so repeated calls always report success.
func (m *Manager) Deactivate(ctx context.Context, id int64) error {
	if err := m.store.DeactivateWatch(ctx, id); err != nil {
		return fmt.Errorf("deactivate watch: %w", err)
	}
	m.unregister(id)
	m.logger.Info().Int64("watch_id", id).Msg("watch deactivated")
	return nil
}

// Get looks up a watch by raw id. Inactive watches are returned as-is; only
// listings filter on the active flag.
func (m *Manager) Get(ctx context.Context, id int64) (storage.Watch, error) {
	return m.store.GetWatch(ctx, id)
}

// List returns active watches, newest first.
func (m *Manager) List(ctx context.Context) ([]storage.Watch, error) {
	return m.store.ListActiveWatches(ctx)
}

// Sync reconciles the timer table with the store: newly active watches gain
// timers, watches whose persisted parameters changed get their timers
// replaced, and deactivated watches lose theirs. The run loop calls this
// periodically so edits made by other processes, and watches surviving a
// restart, take effect.
func (m *Manager) Sync(ctx context.Context) error {
	watches, err := m.store.ListActiveWatches(ctx)
	if err != nil {
		return fmt.Errorf("list active watches: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[int64]struct{}, len(watches))
	for _, w := range watches {
		seen[w.ID] = struct{}{}
		fp := fingerprint(w)
		if m.scheduled[w.ID] == fp {
			continue
		}
		m.sched.Schedule(w.ID, checkEvery(w), m.job(w))
		m.scheduled[w.ID] = fp
	}

	for id := range m.scheduled {
		if _, ok := seen[id]; !ok {
			m.sched.Cancel(id)
			delete(m.scheduled, id)
		}
	}
	return nil
}

func (m *Manager) register(w storage.Watch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sched.Schedule(w.ID, checkEvery(w), m.job(w))
	m.scheduled[w.ID] = fingerprint(w)
}

func (m *Manager) unregister(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sched.Cancel(id)
	delete(m.scheduled, id)
}

// job captures the watch parameters current at schedule time. Updates replace
// the timer, so a fire never sees a mix of old and new parameters.
func (m *Manager) job(w storage.Watch) JobFunc {
	return func(ctx context.Context) {
		if _, err := m.exec.Recheck(ctx, w); err != nil {
			m.logger.Error().Err(err).Int64("watch_id", w.ID).Msg("scheduled recheck failed")
		}
	}
}

func watchFromFields(id int64, fields storage.WatchFields) storage.Watch {
	return storage.Watch{
		ID:             id,
		Destinations:   fields.Destinations,
		Source:         fields.Source,
		DateStart:      fields.DateStart,
		DateEnd:        fields.DateEnd,
		CheckInterval:  fields.CheckInterval,
		AllowNonDirect: fields.AllowNonDirect,
		CustomFilter:   fields.CustomFilter,
		Active:         true,
	}
}

func checkEvery(w storage.Watch) time.Duration {
	return time.Duration(w.CheckInterval) * time.Hour
}

// fingerprint covers the schedule-relevant fields of a watch.
func fingerprint(w storage.Watch) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%t|%s",
		strings.Join(w.Destinations, ","),
		w.Source,
		w.DateStart,
		w.DateEnd,
		w.CheckInterval,
		w.AllowNonDirect,
		w.CustomFilter,
	)
}
