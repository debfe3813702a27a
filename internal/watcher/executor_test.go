package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"flightwatch/internal/oracle"
	"flightwatch/internal/storage"
)

type stubOracle struct {
	fail map[string]bool
}

func (s *stubOracle) Estimate(ctx context.Context, q oracle.Query) (oracle.Estimate, error) {
	if s.fail[q.Destination] {
		return oracle.Estimate{}, errors.New("oracle unavailable")
	}
	return oracle.Estimate{
		Source:      q.Source,
		Destination: q.Destination,
		DateRange:   fmt.Sprintf("%s to %s", q.DateStart, q.DateEnd),
		EstimatedPriceRange: oracle.PriceRange{
			Min: decimal.NewFromInt(120),
			Max: decimal.NewFromInt(480),
		},
		BestBookingTime: "6 weeks ahead",
	}, nil
}

type memObservationStore struct {
	mu           sync.Mutex
	observations []storage.Observation
	failFor      map[string]bool
}

func (m *memObservationStore) InsertObservation(ctx context.Context, obs storage.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[obs.Destination] {
		return errors.New("storage unavailable")
	}
	obs.ID = int64(len(m.observations) + 1)
	m.observations = append(m.observations, obs)
	return nil
}

func (m *memObservationStore) ListRecentObservations(ctx context.Context, limit int) ([]storage.ObservationWithWatch, error) {
	return nil, nil
}

func (m *memObservationStore) ListObservationsByDestination(ctx context.Context, destination string) ([]storage.Observation, error) {
	return nil, nil
}

func (m *memObservationStore) all() []storage.Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Observation(nil), m.observations...)
}

type memNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *memNotifier) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, text)
	return nil
}

func (m *memNotifier) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func testWatch() storage.Watch {
	return storage.Watch{
		ID:            42,
		Destinations:  []string{"Paris", "Rome"},
		Source:        "USA",
		DateStart:     "2025-06-01",
		DateEnd:       "2025-06-10",
		CheckInterval: 24,
		Active:        true,
	}
}

func TestRecheckAppendsOneObservationPerDestination(t *testing.T) {
	store := &memObservationStore{}
	sink := &memNotifier{}
	exec := NewExecutor(&stubOracle{}, store, sink, newFakeClock(), zerolog.Nop())

	_, err := exec.Recheck(context.Background(), testWatch())
	require.NoError(t, err)

	observations := store.all()
	require.Len(t, observations, 2)
	require.Equal(t, "Paris", observations[0].Destination)
	require.Equal(t, "Rome", observations[1].Destination)
	for _, obs := range observations {
		require.Equal(t, int64(42), obs.WatchID)
		require.Equal(t, "2025-06-01", obs.Date)
		require.True(t, obs.Price.Equal(decimal.NewFromInt(120)))
		require.NotEmpty(t, obs.Details)
	}

	require.Len(t, sink.messages(), 1, "one consolidated message per recheck")
}

func TestRecheckSubstitutesFallbackOnOracleFailure(t *testing.T) {
	store := &memObservationStore{}
	exec := NewExecutor(&stubOracle{fail: map[string]bool{"Paris": true}}, store, &memNotifier{}, newFakeClock(), zerolog.Nop())

	_, err := exec.Recheck(context.Background(), testWatch())
	require.NoError(t, err)

	observations := store.all()
	require.Len(t, observations, 2, "one failing destination must not block the rest")
	require.True(t, observations[0].Price.Equal(decimal.NewFromInt(300)), "fallback minimum recorded for Paris")
	require.True(t, observations[1].Price.Equal(decimal.NewFromInt(120)))
}

func TestRecheckMessagePreservesDestinationOrder(t *testing.T) {
	sink := &memNotifier{}
	exec := NewExecutor(&stubOracle{}, &memObservationStore{}, sink, newFakeClock(), zerolog.Nop())

	message, err := exec.Recheck(context.Background(), testWatch())
	require.NoError(t, err)

	require.Contains(t, message, "*From:* USA")
	paris := strings.Index(message, "*Paris*")
	rome := strings.Index(message, "*Rome*")
	require.Greater(t, paris, -1)
	require.Greater(t, rome, paris, "destinations must appear in listed order")
	require.Contains(t, message, "$120 - $480")
	require.Contains(t, message, "Best booking: 6 weeks ahead")

	require.Equal(t, []string{message}, sink.messages())
}

func TestRecheckToleratesSinkFailure(t *testing.T) {
	store := &memObservationStore{}
	exec := NewExecutor(&stubOracle{}, store, &memNotifier{err: errors.New("telegram down")}, newFakeClock(), zerolog.Nop())

	_, err := exec.Recheck(context.Background(), testWatch())
	require.NoError(t, err, "sink failure must not surface")
	require.Len(t, store.all(), 2, "observations persist regardless of delivery")
}

func TestRecheckWithoutSink(t *testing.T) {
	store := &memObservationStore{}
	exec := NewExecutor(&stubOracle{}, store, nil, newFakeClock(), zerolog.Nop())

	message, err := exec.Recheck(context.Background(), testWatch())
	require.NoError(t, err)
	require.NotEmpty(t, message)
	require.Len(t, store.all(), 2)
}

func TestRecheckReportsStorageFailure(t *testing.T) {
	store := &memObservationStore{failFor: map[string]bool{"Paris": true}}
	sink := &memNotifier{}
	exec := NewExecutor(&stubOracle{}, store, sink, newFakeClock(), zerolog.Nop())

	_, err := exec.Recheck(context.Background(), testWatch())
	require.Error(t, err)
	require.Len(t, store.all(), 1, "remaining destinations still processed")
	require.Len(t, sink.messages(), 1, "notification still attempted")
}
