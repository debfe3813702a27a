package storage

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Watch represents a persisted recurring price-check request.
type Watch struct {
	ID             int64
	Destinations   []string
	Source         string
	DateStart      string
	DateEnd        string
	CheckInterval  int
	AllowNonDirect bool
	CustomFilter   string
	CreatedAt      time.Time
	Active         bool
}

// WatchFields carries the mutable portion of a watch for create/update.
type WatchFields struct {
	Destinations   []string
	Source         string
	DateStart      string
	DateEnd        string
	CheckInterval  int
	AllowNonDirect bool
	CustomFilter   string
}

// Observation captures one price data point for one destination of one watch.
type Observation struct {
	ID          int64
	WatchID     int64
	Destination string
	Date        string
	Price       decimal.Decimal
	Details     json.RawMessage
	CheckedAt   time.Time
}

// ObservationWithWatch joins an observation with its parent watch's
// destination list for the recent-results feed.
type ObservationWithWatch struct {
	Observation
	WatchDestinations []string
}
