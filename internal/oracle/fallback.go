package oracle

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Fallback builds the fixed substitute estimate used whenever the oracle
// fails. It is deterministic for a given query so the pipeline never aborts
// mid-fan-out.
func Fallback(q Query) Estimate {
	return Estimate{
		Source:      q.Source,
		Destination: q.Destination,
		DateRange:   fmt.Sprintf("%s to %s", q.DateStart, q.DateEnd),
		FlightOptions: []FlightOption{
			{
				Provider:    "Skyscanner",
				Price:       decimal.NewFromInt(450),
				FlightType:  "Direct",
				BookingLink: fmt.Sprintf("https://www.skyscanner.com/transport/flights/%s/%s/", strings.ToLower(q.Source), strings.ToLower(q.Destination)),
				Details:     "Morning departure, good price",
			},
			{
				Provider:    "Google Flights",
				Price:       decimal.NewFromInt(380),
				FlightType:  "1 stop",
				BookingLink: "https://www.google.com/flights",
				Details:     "Afternoon departure via hub",
			},
			{
				Provider:    "Kayak",
				Price:       decimal.NewFromInt(520),
				FlightType:  "Direct",
				BookingLink: "https://www.kayak.com/flights",
				Details:     "Evening departure, premium time",
			},
		},
		EstimatedPriceRange: PriceRange{
			Min: decimal.NewFromInt(300),
			Max: decimal.NewFromInt(800),
		},
		BestBookingTime: "2-3 months in advance",
		Tips: []string{
			"Book on Tuesday or Wednesday for better prices",
			"Use incognito mode when searching",
		},
	}
}
