package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes enrichment events to a Kafka topic, keyed by entity
// id so outcomes for one record stay in order.
type KafkaPublisher struct {
	writer  *kgo.Writer
	logger  *slog.Logger
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.LeastBytes{},
		RequiredAcks: kgo.RequireOne,
	}
	return &KafkaPublisher{
		writer:  w,
		logger:  logger,
		// small timeout so the worker never hangs on a dead broker
		timeout: 3 * time.Second,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(cctx, kgo.Message{
		Key:   []byte(ev.EntityID.String()),
		Value: b,
		Time:  ev.FinishedAt,
	})
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	p.logger.Debug("events.publish.ok",
		"job_id", ev.JobID, "kind", ev.EntityKind, "status", ev.Status)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
