// Package transit backs the departures board widget: it fetches upcoming
// departures for one stop, filters them to the configured lines, and formats
// a compact display time per entry.
package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// minuteDisplayCutoff is the horizon inside which a departure shows as
// "N min" instead of a clock time.
const minuteDisplayCutoff = 15 * time.Minute

// departureTimeLayout is the API's local-time timestamp, with no zone suffix.
const departureTimeLayout = "2006-01-02T15:04:05"

// Departure is one upcoming departure as reported by the API.
type Departure struct {
	Line        string
	Destination string
	Scheduled   time.Time
	Realtime    bool
}

// BoardEntry is a departure prepared for display.
type BoardEntry struct {
	Line        string    `json:"line"`
	Destination string    `json:"destination"`
	Scheduled   time.Time `json:"scheduled"`
	Realtime    bool      `json:"realtime"`
	DisplayTime string    `json:"display_time"`
}

// Board is the rendered departure list for one stop.
type Board struct {
	StopID    string       `json:"stop_id"`
	Entries   []BoardEntry `json:"entries"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Client fetches departures from the AtB departures API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a departures client against the given API origin.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// apiResponse mirrors the departures endpoint payload.
type apiResponse struct {
	Departures []struct {
		Line               string `json:"line"`
		Destination        string `json:"destination"`
		ScheduledDeparture string `json:"scheduledDepartureTime"`
		IsRealtime         bool   `json:"isRealtimeData"`
	} `json:"departures"`
}

// Departures fetches the inbound departure list for a stop. Entries whose
// timestamp does not parse are dropped rather than failing the whole list.
func (c *Client) Departures(ctx context.Context, stopID string) ([]Departure, error) {
	u := fmt.Sprintf("%s/departures/%s?direction=inbound", c.baseURL, stopID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("departures request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("departures API error: HTTP %d: %s", resp.StatusCode, body)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode departures: %w", err)
	}

	out := make([]Departure, 0, len(payload.Departures))
	for _, d := range payload.Departures {
		// Timestamps are published in the stop's local time.
		ts, err := time.ParseInLocation(departureTimeLayout, trimMillis(d.ScheduledDeparture), time.Local)
		if err != nil {
			c.logger.Debug("skipping departure with unparseable time", "value", d.ScheduledDeparture)
			continue
		}
		out = append(out, Departure{
			Line:        d.Line,
			Destination: d.Destination,
			Scheduled:   ts,
			Realtime:    d.IsRealtime,
		})
	}
	return out, nil
}

func trimMillis(s string) string {
	if len(s) > len(departureTimeLayout) {
		return s[:len(departureTimeLayout)]
	}
	return s
}

// BuildBoard filters departures to the requested lines (all lines when the
// filter is empty), sorts them by departure time, caps the list at max, and
// attaches display times relative to now.
func BuildBoard(departures []Departure, lines []string, max int, now time.Time) []BoardEntry {
	filtered := make([]Departure, 0, len(departures))
	for _, d := range departures {
		if len(lines) > 0 && !slices.Contains(lines, d.Line) {
			continue
		}
		filtered = append(filtered, d)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Scheduled.Before(filtered[j].Scheduled)
	})
	if max >= 0 && len(filtered) > max {
		filtered = filtered[:max]
	}

	out := make([]BoardEntry, 0, len(filtered))
	for _, d := range filtered {
		out = append(out, BoardEntry{
			Line:        d.Line,
			Destination: d.Destination,
			Scheduled:   d.Scheduled,
			Realtime:    d.Realtime,
			DisplayTime: displayTime(d.Scheduled, now),
		})
	}
	return out
}

// displayTime renders an imminent departure as minutes from now and anything
// further out as a clock time. Departures already past clamp to "0 min".
func displayTime(scheduled, now time.Time) string {
	until := scheduled.Sub(now)
	if until < 0 {
		until = 0
	}
	if until <= minuteDisplayCutoff {
		return fmt.Sprintf("%d min", int(until.Round(time.Minute)/time.Minute))
	}
	return scheduled.Format("15:04")
}

// Service periodically refreshes a departure board and keeps the latest copy
// for the HTTP layer.
type Service struct {
	client *Client
	stopID string
	lines  []string
	max    int
	clock  clockwork.Clock
	logger *slog.Logger

	mu    sync.RWMutex
	board *Board
}

// NewService creates a Service for one stop.
func NewService(client *Client, stopID string, lines []string, max int, clock clockwork.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		client: client,
		stopID: stopID,
		lines:  lines,
		max:    max,
		clock:  clock,
		logger: logger,
	}
}

// Refresh fetches and rebuilds the board. The previous board stays available
// when a refresh fails.
func (s *Service) Refresh(ctx context.Context) error {
	departures, err := s.client.Departures(ctx, s.stopID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	board := &Board{
		StopID:    s.stopID,
		Entries:   BuildBoard(departures, s.lines, s.max, now),
		FetchedAt: now,
	}

	s.mu.Lock()
	s.board = board
	s.mu.Unlock()
	return nil
}

// Board returns the latest board, reporting false before the first refresh.
func (s *Service) Board() (Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.board == nil {
		return Board{}, false
	}
	return *s.board, true
}
