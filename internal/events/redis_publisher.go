package events

import (
	"context"
	"fmt"

	"github.com/ikkim/ridehail-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher PUBLISHes events on a channel for downstream consumers
// (driver app cards, eligibility checks).
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event VerificationStatusChanged) error {
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal verification event: %w", err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish verification event: %w", err)
	}

	logger.Debug("Verification event published", map[string]interface{}{
		"channel":         p.channel,
		"verification_id": event.VerificationID,
		"status":          event.Status,
		"receivers":       receivers,
	})
	return nil
}
