package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const generateContentPathFmt = "/v1beta/models/%s:generateContent"

// GeminiOptions parameterise the Gemini oracle.
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Gemini asks the Gemini API for flight-price estimates. Responses arrive as
// free text and may wrap the JSON payload in markdown code fences.
type Gemini struct {
	opts    GeminiOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewGemini constructs a Gemini oracle.
func NewGemini(opts GeminiOptions, logger zerolog.Logger) *Gemini {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash-exp"
	}

	return &Gemini{
		opts:    opts,
		logger:  logger.With().Str("component", "gemini_oracle").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Estimate queries Gemini for one destination and parses the structured reply.
func (g *Gemini) Estimate(ctx context.Context, q Query) (Estimate, error) {
	if g.opts.APIKey == "" {
		return Estimate{}, errors.New("gemini api key not configured")
	}

	reqPayload := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(q)}}}},
	}

	body, err := json.Marshal(reqPayload)
	if err != nil {
		return Estimate{}, err
	}

	endpoint := g.baseURL + fmt.Sprintf(generateContentPathFmt, g.opts.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Estimate{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.opts.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Estimate{}, err
	}
	defer resp.Body.Close()

	payloadBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Estimate{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return Estimate{}, parseHTTPError(resp.StatusCode, payloadBytes)
	}

	var genRes generateResponse
	if err := json.Unmarshal(payloadBytes, &genRes); err != nil {
		return Estimate{}, err
	}

	if len(genRes.Candidates) == 0 || len(genRes.Candidates[0].Content.Parts) == 0 {
		return Estimate{}, errors.New("gemini response contained no candidates")
	}

	text := genRes.Candidates[0].Content.Parts[0].Text

	var estimate Estimate
	if err := json.Unmarshal([]byte(extractJSON(text)), &estimate); err != nil {
		return Estimate{}, fmt.Errorf("parse estimate: %w", err)
	}

	return estimate, nil
}

func buildPrompt(q Query) string {
	flightType := "direct flights only"
	if q.AllowNonDirect {
		flightType = "direct and connecting flights"
	}

	builder := strings.Builder{}
	fmt.Fprintf(&builder, "You are a travel agent AI assistant. Search for flight options from %s to %s between %s and %s. Focus on %s.",
		q.Source, q.Destination, q.DateStart, q.DateEnd, flightType)
	if q.CustomFilter != "" {
		fmt.Fprintf(&builder, "\n\nAdditional filter: %s", q.CustomFilter)
	}
	builder.WriteString(`

Provide realistic flight options with:
1. 3-5 different flight options with specific airlines/providers
2. Price estimates for each option (economy class)
3. Flight types (direct/connecting)
4. Booking links (use realistic booking sites like Skyscanner, Kayak, Google Flights, Momondo, or airline websites)
5. Best times to book
6. Any seasonal factors affecting prices

Format your response as JSON with the following structure:
`)
	fmt.Fprintf(&builder, `{
    "source": "%s",
    "destination": "%s",
    "date_range": "%s to %s",
    "flight_options": [
        {
            "provider": "Airline name or booking site",
            "price": 450,
            "flight_type": "Direct" or "1 stop" or "2+ stops",
            "booking_link": "https://www.example.com/book?...",
            "details": "Brief description"
        }
    ],
    "estimated_price_range": {"min": 0, "max": 0},
    "best_booking_time": "",
    "tips": []
}`, q.Source, q.Destination, q.DateStart, q.DateEnd)
	return builder.String()
}

// extractJSON strips markdown code fences the model tends to wrap its JSON in.
func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error.Message != "" {
			return fmt.Errorf("gemini api error (%d): %s", status, apiErr.Error.Message)
		}
		if apiErr.Error.Status != "" {
			return fmt.Errorf("gemini api error (%d): %s", status, apiErr.Error.Status)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("gemini api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("gemini api error (%d)", status)
}

var _ PriceOracle = (*Gemini)(nil)
