// Package metno implements the widget.Fetcher against the MET Norway
// locationforecast API.
package metno

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/AndersM123/MagicMirror/internal/forecast"
	"github.com/AndersM123/MagicMirror/internal/widget"
)

// errBodyLimit caps how much of an error response body ends up in a message.
const errBodyLimit = 200

// Client fetches locationforecast compact documents. A circuit breaker sits
// in front of the HTTP call so a flapping provider fails fast instead of
// holding every cycle for the full timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a Client. baseURL is the provider origin, normally
// "https://api.met.no".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "metno",
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		breaker:    breaker,
		logger:     logger,
	}
}

// Fetch retrieves one forecast document, echoing the request's correlation
// token on the result. All failures come back wrapped as widget.ErrTransport
// or widget.ErrMalformed; the document itself is never partially usable.
func (c *Client) Fetch(ctx context.Context, req widget.FetchRequest) widget.FetchResult {
	doc, err := c.breaker.Execute(func() (any, error) {
		return c.fetchDocument(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			err = fmt.Errorf("%w: %v", widget.ErrTransport, err)
		}
		return widget.FetchResult{Token: req.Token, Err: err}
	}
	return widget.FetchResult{Token: req.Token, Doc: doc.(forecast.Document)}
}

func (c *Client) fetchDocument(ctx context.Context, req widget.FetchRequest) (forecast.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(req), nil)
	if err != nil {
		return forecast.Document{}, fmt.Errorf("%w: create request: %v", widget.ErrTransport, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	// The provider requires a descriptive client-identifying User-Agent.
	httpReq.Header.Set("User-Agent", req.UserAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return forecast.Document{}, fmt.Errorf("%w: %v", widget.ErrTransport, err)
	}
	defer resp.Body.Close()

	// Not modified yields an empty time-slot sequence, not a failure.
	if resp.StatusCode == http.StatusNotModified {
		return forecast.Document{}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return forecast.Document{}, fmt.Errorf("%w: HTTP %d: %s", widget.ErrTransport, resp.StatusCode, body)
	}

	var doc forecast.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return forecast.Document{}, fmt.Errorf("%w: %v", widget.ErrMalformed, err)
	}
	return doc, nil
}

// requestURL builds the compact endpoint URL. Coordinates are truncated to
// four decimals, the precision the provider asks clients to stick to.
func (c *Client) requestURL(req widget.FetchRequest) string {
	params := url.Values{
		"lat": {strconv.FormatFloat(req.Lat, 'f', 4, 64)},
		"lon": {strconv.FormatFloat(req.Lon, 'f', 4, 64)},
	}
	if req.Altitude != nil {
		params.Set("altitude", strconv.FormatFloat(*req.Altitude, 'f', 0, 64))
	}
	return fmt.Sprintf("%s/weatherapi/locationforecast/%s/compact?%s", c.baseURL, req.APIVersion, params.Encode())
}
