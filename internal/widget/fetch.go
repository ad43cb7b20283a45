package widget

import (
	"context"
	"errors"

	"github.com/AndersM123/MagicMirror/internal/forecast"
)

// Error kinds the fetch layer can produce. Transport adapters wrap these so
// the manager can label metrics without knowing the provider.
var (
	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = errors.New("transport failure")
	// ErrMalformed means the body did not decode as a forecast document.
	ErrMalformed = errors.New("malformed forecast response")
)

// FetchRequest asks the transport for one forecast document. Token is the
// instance-correlation token; it is carried end-to-end and checked against
// the issuing instance before any state mutation.
type FetchRequest struct {
	Token      string
	Lat        float64
	Lon        float64
	Altitude   *float64
	Hours      int
	APIVersion string
	UserAgent  string
}

// FetchResult is the transport's answer, echoing the request token.
type FetchResult struct {
	Token string
	Doc   forecast.Document
	Err   error
}

// Fetcher retrieves a forecast document for a request.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) FetchResult
}

// Notifier receives the reconciled outcome of each fetch cycle. Implemented
// by the rendering-facing adapters (HTTP push, Kafka announcer).
type Notifier interface {
	DataReady(ctx context.Context, instanceID string, series []forecast.Point) error
	FetchFailed(ctx context.Context, instanceID, reason string) error
}
