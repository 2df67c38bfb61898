// internal/events/redis_publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher publishes to a shared channel and to a per-link channel
// "<channel>:<payment link id>".
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(rdb redis.UniversalClient, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

func (p *RedisPublisher) LinkChannel(linkID string) string {
	return p.channel + ":" + linkID
}

func (p *RedisPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event",
			zap.String("event_type", event.Type),
			zap.Error(err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_type", event.Type),
			zap.String("payment_link_id", event.PaymentLinkID),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.LinkChannel(event.PaymentLinkID), payload).Err(); err != nil {
		p.logger.Warn("failed to publish to link channel",
			zap.String("payment_link_id", event.PaymentLinkID),
			zap.Error(err))
	}

	p.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("payment_link_id", event.PaymentLinkID))
	return nil
}

// Close leaves the shared client open; main owns it.
func (p *RedisPublisher) Close() error { return nil }
