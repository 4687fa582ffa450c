package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-impact-etl/internal/config"
	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// UnresolvedKey is the message key of impacts with no storm id.
const UnresolvedKey = "unresolved"

// Writer produces resolved impacts to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes resolved impacts in a single
// WriteMessages call. Messages are keyed by sid so one storm's impacts land
// on one partition.
func (w *Writer) LoadBatch(ctx context.Context, batch []domain.ResolvedImpact) error {
	if len(batch) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(batch))
	for i := range batch {
		msg, err := serializeToMessage(batch[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write resolved impacts: %w", err)
	}
	w.logger.Debug("published resolved impacts", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(ri domain.ResolvedImpact) (kafkago.Message, error) {
	data, err := json.Marshal(ri)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize resolved impact: %w", err)
	}
	key := ri.SID
	if key == "" {
		key = UnresolvedKey
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "match_outcome", Value: []byte(ri.Outcome)},
			{Key: "run_id", Value: []byte(ri.RunID)},
			{Key: "resolved_at", Value: []byte(ri.ResolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
