package notifier

import (
	"context"
	"fmt"
	"log"
	"time"
)

// EventType names an exchange request lifecycle event.
type EventType string

// Lifecycle event types, one per transition (plus creation).
const (
	EventCreated      EventType = "created"
	EventViewed       EventType = "viewed"
	EventAccepted     EventType = "accepted"
	EventRejected     EventType = "rejected"
	EventCounterOffer EventType = "counter_offer"
	EventWithdrawn    EventType = "withdrawn"
	EventExpired      EventType = "expired"
)

// Event is emitted on every exchange request transition. Delivery is
// fire-and-forget: the negotiation core never waits on or fails with the
// sink.
type Event struct {
	RequestID     string    `json:"request_id"`
	RequestNumber string    `json:"request_number"`
	Type          EventType `json:"type"`
	ActorID       string    `json:"actor_id,omitempty"`
	InitiatorID   string    `json:"initiator_id"`
	ResponderID   string    `json:"responder_id"`
	TargetItemID  string    `json:"target_item_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Validate does minimal field checks before an event leaves the service.
func (e Event) Validate() error {
	if e.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	if e.Type == "" {
		return fmt.Errorf("type is required")
	}
	return nil
}

// Notifier delivers lifecycle events to whatever handles user notification.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
	Close() error
}

// LogNotifier writes events to the process log. Default when no broker is
// configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the event.
func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	log.Printf("[Notifier] %s request=%s actor=%s", event.Type, event.RequestID, event.ActorID)
	return nil
}

// Close is a no-op.
func (n *LogNotifier) Close() error { return nil }

// Ensure LogNotifier implements Notifier
var _ Notifier = (*LogNotifier)(nil)
