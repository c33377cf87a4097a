package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix prefixes the per-group Pub/Sub channel.
const ChannelPrefix = "tabsettle:group:"

// Channel returns the Pub/Sub channel for a group's events.
func Channel(groupID string) string {
	return ChannelPrefix + groupID
}

// RedisPublisher publishes events as JSON on a per-group Redis channel.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher on an existing client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish marshals the event and publishes it on the group's channel.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(event.GroupID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe listens on a group's channel and decodes events until ctx is
// cancelled. Undecodable messages are skipped.
func (p *RedisPublisher) Subscribe(ctx context.Context, groupID string, handle func(Event)) error {
	sub := p.client.Subscribe(ctx, Channel(groupID))
	defer sub.Close()

	// Wait for the subscription to be confirmed before returning control.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			handle(event)
		}
	}
}
