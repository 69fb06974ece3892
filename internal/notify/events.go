package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-threshing-market/internal/kafka"
	"github.com/ariefcatur/go-threshing-market/internal/logger"
)

const (
	EventNotificationCreated = "NotificationCreated"
	TopicNotificationCreated = "notification.created"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // recipient name
	Payload       json.RawMessage `json:"payload"`
}

// PartitionKey keeps every event for one recipient on the same partition, in order.
func PartitionKey(recipient string) []byte { return []byte(recipient) }

// KafkaPublisher announces stored notifications on TopicNotificationCreated.
type KafkaPublisher struct {
	Producer    *kafkax.Producer
	ServiceName string
}

func (k *KafkaPublisher) Publish(_ context.Context, n Notification) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventNotificationCreated,
		EventVersion:  1,
		OccurredAt:    n.CreatedAt().UTC(),
		Producer:      k.ServiceName,
		CorrelationID: n.Recipient,
		Payload:       kafkax.MustMarshal(n),
	}
	k.Producer.Publish(PartitionKey(n.Recipient), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventNotificationCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// WakeOnEvent returns a consumer handler that kicks p whenever an event addressed to
// recipient arrives. Events for other recipients and other types are acknowledged and
// ignored.
func WakeOnEvent(recipient string, p *Poller, log *logger.Logger) kafkax.Handler {
	return func(ctx context.Context, m kafkago.Message) error {
		var env Envelope
		if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
			log.Warn("drop malformed event", "offset", m.Offset, "error", err)
			return nil
		}
		if env.EventType != EventNotificationCreated || env.CorrelationID != recipient {
			return nil
		}
		n, err := kafkax.UnwrapPayload[Notification](env.Payload)
		if err != nil {
			log.Warn("drop malformed payload", "event_id", env.EventID, "error", err)
			return nil
		}
		log.Debug("notification event", "id", n.ID, "sender", n.Sender)
		p.Kick()
		return nil
	}
}
