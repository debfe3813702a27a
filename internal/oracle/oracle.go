package oracle

import (
	"context"

	"github.com/shopspring/decimal"
)

// Query describes one flight-price lookup for a single destination.
type Query struct {
	Source         string
	Destination    string
	DateStart      string
	DateEnd        string
	AllowNonDirect bool
	CustomFilter   string
}

// PriceRange bounds the estimated ticket price.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// FlightOption is one concrete booking suggestion inside an estimate.
type FlightOption struct {
	Provider    string          `json:"provider"`
	Price       decimal.Decimal `json:"price"`
	FlightType  string          `json:"flight_type"`
	BookingLink string          `json:"booking_link"`
	Details     string          `json:"details"`
}

// Estimate is the structured oracle response for one destination.
type Estimate struct {
	Source              string         `json:"source"`
	Destination         string         `json:"destination"`
	DateRange           string         `json:"date_range"`
	FlightOptions       []FlightOption `json:"flight_options"`
	EstimatedPriceRange PriceRange     `json:"estimated_price_range"`
	BestBookingTime     string         `json:"best_booking_time"`
	Tips                []string       `json:"tips"`
}

// PriceOracle retrieves a flight-price estimate for one destination. The
// estimate may be inaccurate or slow; callers substitute Fallback on error.
type PriceOracle interface {
	Estimate(ctx context.Context, q Query) (Estimate, error)
}
