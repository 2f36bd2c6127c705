// Package events feeds finalized decision reports to the decision-memory
// loop. Publishing is best effort: a broker outage never fails an
// evaluation, the report is simply not fed back.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/veridoc/veridoc/internal/model"
)

// Publisher hands finalized reports to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, report *model.DecisionReport) error
	Close() error
}

// KafkaPublisher writes reports as JSON messages, keyed by application
// id so re-evaluations of the same application land in one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the configured brokers/topic
func NewKafkaPublisher(cfg model.EventsConfig) (*KafkaPublisher, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("events: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("events: no topic configured")
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(cfg.Brokers, ",")...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}, nil
}

// Publish writes one report
func (p *KafkaPublisher) Publish(ctx context.Context, report *model.DecisionReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.ApplicationID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write report event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when the decision-memory feed is disabled
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *model.DecisionReport) error { return nil }
func (NopPublisher) Close() error                                         { return nil }

// NewPublisher returns a Kafka publisher when enabled, otherwise a no-op
func NewPublisher(cfg model.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		return NopPublisher{}, nil
	}
	return NewKafkaPublisher(cfg)
}
