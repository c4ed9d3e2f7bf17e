// Package kafka publishes decoded weather observations to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/tallgrasslabs/weathermate-ingest/internal/config"
	"github.com/tallgrasslabs/weathermate-ingest/internal/domain"
)

// Writer produces observation records to the sink topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one observation record and writes it to the sink topic.
// Records are keyed by station id so a station's observations stay ordered
// within a partition.
func (w *Writer) Publish(ctx context.Context, rec domain.Record) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Station),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte(rec.Station)},
			{Key: "observed_at", Value: []byte(rec.ObservedAt.Format(time.RFC3339))},
		},
	}, nil
}
