package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrWatchNotFound indicates a watch id with no matching row.
	ErrWatchNotFound = errors.New("storage: watch not found")
)

const (
	insertWatchSQL = `INSERT INTO watches (
        destinations,
        source,
        date_start,
        date_end,
        check_interval,
        allow_non_direct,
        custom_filter,
        created_at,
        active
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,TRUE
    )
    RETURNING id;`

	getWatchSQL = `SELECT
        id,
        destinations,
        source,
        date_start,
        date_end,
        check_interval,
        allow_non_direct,
        custom_filter,
        created_at,
        active
    FROM watches
    WHERE id = $1;`

	listActiveWatchesSQL = `SELECT
        id,
        destinations,
        source,
        date_start,
        date_end,
        check_interval,
        allow_non_direct,
        custom_filter,
        created_at,
        active
    FROM watches
    WHERE active
    ORDER BY created_at DESC;`

	updateWatchSQL = `UPDATE watches
    SET destinations     = $2,
        source           = $3,
        date_start       = $4,
        date_end         = $5,
        check_interval   = $6,
        allow_non_direct = $7,
        custom_filter    = $8
    WHERE id = $1;`

	deactivateWatchSQL = `UPDATE watches SET active = FALSE WHERE id = $1;`

	insertObservationSQL = `INSERT INTO observations (
        watch_id,
        destination,
        date,
        price,
        details,
        checked_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    );`

	listRecentObservationsSQL = `SELECT
        o.id,
        o.watch_id,
        o.destination,
        o.date,
        o.price::text,
        o.details,
        o.checked_at,
        w.destinations
    FROM observations o
    JOIN watches w ON w.id = o.watch_id
    ORDER BY o.checked_at DESC
    LIMIT $1;`

	listObservationsByDestinationSQL = `SELECT
        id,
        watch_id,
        destination,
        date,
        price::text,
        details,
        checked_at
    FROM observations
    WHERE destination = $1
    ORDER BY checked_at ASC;`
)

// WatchStore defines operations for watch persistence.
type WatchStore interface {
	CreateWatch(ctx context.Context, fields WatchFields) (int64, error)
	GetWatch(ctx context.Context, id int64) (Watch, error)
	ListActiveWatches(ctx context.Context) ([]Watch, error)
	UpdateWatch(ctx context.Context, id int64, fields WatchFields) error
	DeactivateWatch(ctx context.Context, id int64) error
}

// ObservationStore defines operations for the append-only price history.
type ObservationStore interface {
	InsertObservation(ctx context.Context, obs Observation) error
	ListRecentObservations(ctx context.Context, limit int) ([]ObservationWithWatch, error)
	ListObservationsByDestination(ctx context.Context, destination string) ([]Observation, error)
}

// Store aggregates access to watches and observations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// CreateWatch inserts a new active watch and returns its assigned id.
func (s *Store) CreateWatch(ctx context.Context, fields WatchFields) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	destinations, err := json.Marshal(fields.Destinations)
	if err != nil {
		return 0, fmt.Errorf("marshal destinations: %w", err)
	}

	var id int64
	scanErr := pool.QueryRow(ctx, insertWatchSQL,
		destinations,
		fields.Source,
		fields.DateStart,
		fields.DateEnd,
		fields.CheckInterval,
		fields.AllowNonDirect,
		fields.CustomFilter,
		time.Now().UTC(),
	).Scan(&id)
	if scanErr != nil {
		return 0, fmt.Errorf("insert watch: %w", scanErr)
	}
	return id, nil
}

// GetWatch looks up a watch by raw id, independent of the active flag.
func (s *Store) GetWatch(ctx context.Context, id int64) (Watch, error) {
	pool, err := s.getPool()
	if err != nil {
		return Watch{}, err
	}

	row := pool.QueryRow(ctx, getWatchSQL, id)
	watch, scanErr := scanWatch(row)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return Watch{}, ErrWatchNotFound
		}
		return Watch{}, fmt.Errorf("get watch: %w", scanErr)
	}
	return watch, nil
}

// ListActiveWatches lists active watches ordered by creation time descending.
func (s *Store) ListActiveWatches(ctx context.Context) ([]Watch, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveWatchesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list active watches: %w", queryErr)
	}
	defer rows.Close()

	watches := make([]Watch, 0)
	for rows.Next() {
		watch, scanErr := scanWatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		watches = append(watches, watch)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return watches, nil
}

// UpdateWatch replaces the mutable fields of a watch. A missing id is a no-op.
func (s *Store) UpdateWatch(ctx context.Context, id int64, fields WatchFields) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	destinations, err := json.Marshal(fields.Destinations)
	if err != nil {
		return fmt.Errorf("marshal destinations: %w", err)
	}

	if _, execErr := pool.Exec(ctx, updateWatchSQL,
		id,
		destinations,
		fields.Source,
		fields.DateStart,
		fields.DateEnd,
		fields.CheckInterval,
		fields.AllowNonDirect,
		fields.CustomFilter,
	); execErr != nil {
		return fmt.Errorf("update watch: %w", execErr)
	}
	return nil
}

// DeactivateWatch soft-deletes a watch. Idempotent.
func (s *Store) DeactivateWatch(ctx context.Context, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deactivateWatchSQL, id); execErr != nil {
		return fmt.Errorf("deactivate watch: %w", execErr)
	}
	return nil
}

// InsertObservation appends one price observation.
func (s *Store) InsertObservation(ctx context.Context, obs Observation) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	details := obs.Details
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}

	if _, execErr := pool.Exec(ctx, insertObservationSQL,
		obs.WatchID,
		obs.Destination,
		obs.Date,
		obs.Price.String(),
		[]byte(details),
		obs.CheckedAt,
	); execErr != nil {
		return fmt.Errorf("insert observation: %w", execErr)
	}
	return nil
}

// ListRecentObservations lists the newest observations across all watches,
// each joined with its parent watch's destination list.
func (s *Store) ListRecentObservations(ctx context.Context, limit int) ([]ObservationWithWatch, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentObservationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent observations: %w", queryErr)
	}
	defer rows.Close()

	results := make([]ObservationWithWatch, 0, limit)
	for rows.Next() {
		var (
			rec          ObservationWithWatch
			priceStr     string
			details      json.RawMessage
			destinations []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.WatchID,
			&rec.Destination,
			&rec.Date,
			&priceStr,
			&details,
			&rec.CheckedAt,
			&destinations,
		); err != nil {
			return nil, err
		}

		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse price: %w", convErr)
		}
		rec.Price = price
		rec.Details = details

		if err := json.Unmarshal(destinations, &rec.WatchDestinations); err != nil {
			return nil, fmt.Errorf("unmarshal watch destinations: %w", err)
		}

		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return results, nil
}

// ListObservationsByDestination lists the full price history for one
// destination, oldest first, for charting.
func (s *Store) ListObservationsByDestination(ctx context.Context, destination string) ([]Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listObservationsByDestinationSQL, destination)
	if queryErr != nil {
		return nil, fmt.Errorf("list observations by destination: %w", queryErr)
	}
	defer rows.Close()

	observations := make([]Observation, 0)
	for rows.Next() {
		var (
			obs      Observation
			priceStr string
			details  json.RawMessage
		)
		if err := rows.Scan(
			&obs.ID,
			&obs.WatchID,
			&obs.Destination,
			&obs.Date,
			&priceStr,
			&details,
			&obs.CheckedAt,
		); err != nil {
			return nil, err
		}

		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse price: %w", convErr)
		}
		obs.Price = price
		obs.Details = details

		observations = append(observations, obs)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return observations, nil
}

func scanWatch(row pgx.Row) (Watch, error) {
	var (
		watch        Watch
		destinations []byte
	)
	if err := row.Scan(
		&watch.ID,
		&destinations,
		&watch.Source,
		&watch.DateStart,
		&watch.DateEnd,
		&watch.CheckInterval,
		&watch.AllowNonDirect,
		&watch.CustomFilter,
		&watch.CreatedAt,
		&watch.Active,
	); err != nil {
		return Watch{}, err
	}

	if err := json.Unmarshal(destinations, &watch.Destinations); err != nil {
		return Watch{}, fmt.Errorf("unmarshal destinations: %w", err)
	}
	return watch, nil
}

var _ WatchStore = (*Store)(nil)
var _ ObservationStore = (*Store)(nil)
