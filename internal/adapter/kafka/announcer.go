// Package kafka publishes reconciled widget outcomes to a topic so displays
// other than the primary mirror can consume the same series.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/AndersM123/MagicMirror/internal/config"
	"github.com/AndersM123/MagicMirror/internal/forecast"
)

const (
	eventData  = "data_ready"
	eventError = "fetch_failed"
)

// Announcer implements widget.Notifier on top of a Kafka topic. Messages are
// keyed by instance id so one instance's updates stay in order on a partition.
type Announcer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAnnouncer creates a producer for the configured topic.
func NewAnnouncer(cfg *config.Config, logger *slog.Logger) *Announcer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Announcer{writer: w, logger: logger}
}

// DataReady publishes a data-ready message carrying the displayed series.
func (a *Announcer) DataReady(ctx context.Context, instanceID string, series []forecast.Point) error {
	msg, err := serializeData(instanceID, series, time.Now())
	if err != nil {
		return err
	}
	return a.writer.WriteMessages(ctx, msg)
}

// FetchFailed publishes an error message for the instance.
func (a *Announcer) FetchFailed(ctx context.Context, instanceID, reason string) error {
	msg, err := serializeError(instanceID, reason, time.Now())
	if err != nil {
		return err
	}
	return a.writer.WriteMessages(ctx, msg)
}

func (a *Announcer) Close() error {
	return a.writer.Close()
}

// dataPayload is the wire form of a data-ready message.
type dataPayload struct {
	InstanceID string           `json:"instance_id"`
	Series     []forecast.Point `json:"series"`
}

// errorPayload is the wire form of a fetch-failed message.
type errorPayload struct {
	InstanceID string `json:"instance_id"`
	Error      string `json:"error"`
}

func serializeData(instanceID string, series []forecast.Point, at time.Time) (kafkago.Message, error) {
	value, err := json.Marshal(dataPayload{InstanceID: instanceID, Series: series})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize series: %w", err)
	}
	return message(instanceID, eventData, value, at), nil
}

func serializeError(instanceID, reason string, at time.Time) (kafkago.Message, error) {
	value, err := json.Marshal(errorPayload{InstanceID: instanceID, Error: reason})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize error: %w", err)
	}
	return message(instanceID, eventError, value, at), nil
}

func message(instanceID, event string, value []byte, at time.Time) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(instanceID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(event)},
			{Key: "emitted_at", Value: []byte(at.Format(time.RFC3339))},
		},
	}
}
