// internal/events/publisher.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventLinkCreated        = "payment_link.created"
	EventLinkStatusChanged  = "payment_link.status_changed"
	EventReassignRequested  = "payment_link.reassign_requested"
	EventKycUpdated         = "checkout.kyc_updated"
	EventWalletUpdated      = "checkout.wallet_updated"
	EventTransactionUpdated = "checkout.transaction_updated"
)

// Event is the envelope every publisher writes.
type Event struct {
	ID            string                 `json:"event_id"`
	Type          string                 `json:"event_type"`
	PaymentLinkID string                 `json:"payment_link_id"`
	Data          map[string]interface{} `json:"data,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
	Timestamp     int64                  `json:"timestamp"`
}

func NewEvent(eventType, linkID string, data map[string]interface{}) *Event {
	now := time.Now().UTC()
	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		PaymentLinkID: linkID,
		Data:          data,
		OccurredAt:    now,
		Timestamp:     now.Unix(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// LogPublisher only logs events. It is the default when no broker is
// configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *Event) error {
	p.logger.Info("event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("payment_link_id", event.PaymentLinkID),
		zap.Any("data", event.Data))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
