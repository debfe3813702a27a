package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"flightwatch/internal/notify"
	"flightwatch/internal/oracle"
	"flightwatch/internal/storage"
)

// Executor performs one recheck of a watch: it queries the price oracle once
// per destination, appends one observation each, and pushes one consolidated
// message for the whole watch.
type Executor struct {
	oracle   oracle.PriceOracle
	store    storage.ObservationStore
	notifier notify.Notifier
	clock    Clock
	logger   zerolog.Logger
}

// NewExecutor constructs a recheck executor. notifier may be nil, in which
// case delivery is skipped.
func NewExecutor(o oracle.PriceOracle, store storage.ObservationStore, notifier notify.Notifier, clock Clock, logger zerolog.Logger) *Executor {
	return &Executor{
		oracle:   o,
		store:    store,
		notifier: notifier,
		clock:    clock,
		logger:   logger.With().Str("component", "executor").Logger(),
	}
}

// Rechecker is the executor surface the lifecycle manager depends on.
type Rechecker interface {
	Recheck(ctx context.Context, w storage.Watch) (string, error)
}

// Recheck fans out over the watch destinations in listed order. An oracle
// failure for one destination substitutes the fallback estimate and never
// blocks the rest. All observations are persisted before the single
// notification attempt; a delivery failure is logged and swallowed. The
// returned error aggregates observation persistence failures only.
func (e *Executor) Recheck(ctx context.Context, w storage.Watch) (string, error) {
	msg := &strings.Builder{}
	fmt.Fprintf(msg, "🛫 *Flight Update for %s*\n", e.clock.Now().Format("2006-01-02 15:04"))
	fmt.Fprintf(msg, "✈️ *From:* %s\n\n", w.Source)

	var storeErrs []error
	for _, destination := range w.Destinations {
		q := oracle.Query{
			Source:         w.Source,
			Destination:    destination,
			DateStart:      w.DateStart,
			DateEnd:        w.DateEnd,
			AllowNonDirect: w.AllowNonDirect,
			CustomFilter:   w.CustomFilter,
		}

		estimate, err := e.oracle.Estimate(ctx, q)
		if err != nil {
			e.logger.Warn().Err(err).Int64("watch_id", w.ID).Str("destination", destination).
				Msg("oracle failed, substituting fallback estimate")
			estimate = oracle.Fallback(q)
		}

		details, err := json.Marshal(estimate)
		if err != nil {
			details = json.RawMessage("{}")
		}

		obs := storage.Observation{
			WatchID:     w.ID,
			Destination: destination,
			Date:        w.DateStart,
			Price:       estimate.EstimatedPriceRange.Min,
			Details:     details,
			CheckedAt:   e.clock.Now(),
		}
		if err := e.store.InsertObservation(ctx, obs); err != nil {
			e.logger.Error().Err(err).Int64("watch_id", w.ID).Str("destination", destination).
				Msg("failed to persist observation")
			storeErrs = append(storeErrs, err)
		}

		fmt.Fprintf(msg, "📍 *%s*\n", destination)
		fmt.Fprintf(msg, "💰 Price range: $%s - $%s\n",
			estimate.EstimatedPriceRange.Min.StringFixed(0),
			estimate.EstimatedPriceRange.Max.StringFixed(0))
		fmt.Fprintf(msg, "📅 Best booking: %s\n\n", orNA(estimate.BestBookingTime))
	}

	text := msg.String()

	if e.notifier == nil {
		e.logger.Debug().Int64("watch_id", w.ID).Msg("notification sink not configured, skipping delivery")
		return text, errors.Join(storeErrs...)
	}
	if err := e.notifier.Send(ctx, text); err != nil {
		e.logger.Error().Err(err).Int64("watch_id", w.ID).Msg("failed to deliver recheck notification")
	}

	return text, errors.Join(storeErrs...)
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

var _ Rechecker = (*Executor)(nil)
