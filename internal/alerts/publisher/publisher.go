// Package publisher forwards triggered alerts to Kafka for external
// collaborators (notification fan-out, alert history). Emission is
// fire-and-forget: a broker outage degrades to a warning, never a failed
// evaluation.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"enrolytics/internal/alerts"
)

// Kafka publishes alerts to a single topic keyed by metric, so consumers see
// per-metric ordering.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers and ensures the alert topic exists.
func New(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// Publish emits one alert. The produce is asynchronous; delivery failures are
// logged by the callback rather than returned.
func (k *Kafka) Publish(ctx context.Context, alert alerts.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", alert.ID, err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(alert.Metric),
		Value: payload,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.Warn("alert delivery failed",
				"topic", k.topic,
				"rule_id", alert.RuleID,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes outstanding produces and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}

// Nop discards alerts. Used when no brokers are configured.
type Nop struct{}

// Publish implements alerts.Publisher as a no-op.
func (Nop) Publish(context.Context, alerts.Alert) error {
	return nil
}
