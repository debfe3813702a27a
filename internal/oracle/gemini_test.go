package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testQuery() Query {
	return Query{
		Source:      "USA",
		Destination: "Paris",
		DateStart:   "2025-06-01",
		DateEnd:     "2025-06-10",
	}
}

func generateReply(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]string{{"text": text}},
				},
			},
		},
	}
}

func TestGeminiMissingAPIKey(t *testing.T) {
	g := NewGemini(GeminiOptions{}, noopLogger())
	if _, err := g.Estimate(context.Background(), testQuery()); err == nil {
		t.Fatal("missing api key should return an error")
	}
}

func TestGeminiParsesFencedJSON(t *testing.T) {
	reply := "Here are your options:\n```json\n" +
		`{"source":"USA","destination":"Paris","estimated_price_range":{"min":320,"max":760},"best_booking_time":"2 months ahead"}` +
		"\n```\nSafe travels!"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Goog-Api-Key") != "key" {
			t.Fatalf("api key header missing, got %q", r.Header.Get("X-Goog-Api-Key"))
		}
		_ = json.NewEncoder(w).Encode(generateReply(reply))
	}))
	defer srv.Close()

	g := NewGemini(GeminiOptions{APIKey: "key", BaseURL: srv.URL, Timeout: time.Second}, noopLogger())

	estimate, err := g.Estimate(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("estimate should succeed: %v", err)
	}
	if !estimate.EstimatedPriceRange.Min.Equal(decimal.NewFromInt(320)) {
		t.Fatalf("expected min 320, got %s", estimate.EstimatedPriceRange.Min)
	}
	if estimate.BestBookingTime != "2 months ahead" {
		t.Fatalf("unexpected best booking time %q", estimate.BestBookingTime)
	}
}

func TestGeminiAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "API key invalid", "status": "PERMISSION_DENIED"},
		})
	}))
	defer srv.Close()

	g := NewGemini(GeminiOptions{APIKey: "key", BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := g.Estimate(context.Background(), testQuery()); err == nil {
		t.Fatal("HTTP 403 should return an error")
	}
}

func TestGeminiMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateReply("I could not find any flights, sorry."))
	}))
	defer srv.Close()

	g := NewGemini(GeminiOptions{APIKey: "key", BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := g.Estimate(context.Background(), testQuery()); err == nil {
		t.Fatal("non-JSON reply should return an error")
	}
}

func TestExtractJSON(t *testing.T) {
	payload := `{"a":1}`
	cases := []string{
		payload,
		"```json\n" + payload + "\n```",
		"prefix\n```\n" + payload + "\n```\nsuffix",
		"  " + payload + "\n",
	}
	for _, in := range cases {
		if got := extractJSON(in); got != payload {
			t.Fatalf("extractJSON(%q) = %q, want %q", in, got, payload)
		}
	}
}

func TestFallbackEstimate(t *testing.T) {
	estimate := Fallback(testQuery())

	if !estimate.EstimatedPriceRange.Min.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("fallback min should be 300, got %s", estimate.EstimatedPriceRange.Min)
	}
	if !estimate.EstimatedPriceRange.Max.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("fallback max should be 800, got %s", estimate.EstimatedPriceRange.Max)
	}
	if len(estimate.FlightOptions) != 3 {
		t.Fatalf("fallback should carry 3 options, got %d", len(estimate.FlightOptions))
	}
	if estimate.Destination != "Paris" || estimate.Source != "USA" {
		t.Fatalf("fallback should echo the query, got %s → %s", estimate.Source, estimate.Destination)
	}
	if estimate.DateRange != "2025-06-01 to 2025-06-10" {
		t.Fatalf("unexpected date range %q", estimate.DateRange)
	}
}
