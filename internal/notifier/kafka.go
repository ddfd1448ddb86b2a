package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes lifecycle events to a Kafka topic. Downstream
// consumers (email, in-app notifications, audit) are outside this service.
type KafkaNotifier struct {
	w *kafka.Writer
}

// NewKafkaNotifier creates a producer for the given brokers and topic.
// Events for the same request hash to the same partition so per-request
// ordering is preserved.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Notify publishes one event, keyed by request ID.
func (n *KafkaNotifier) Notify(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RequestID),
		Value: b,
	})
}

// Close releases the writer resources.
func (n *KafkaNotifier) Close() error { return n.w.Close() }

// Ensure KafkaNotifier implements Notifier
var _ Notifier = (*KafkaNotifier)(nil)
