package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

const DefaultChannelPrefix = "room:"

// Publisher fans room events out over redis pub/sub, one channel per room.
type Publisher struct {
	client *redis.Client
	prefix string
}

func NewPublisher(client *redis.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}

	return &Publisher{
		client: client,
		prefix: prefix,
	}
}

func (that *Publisher) Channel(roomID string) string {
	return that.prefix + roomID
}

// Publish - sends the event to the room's channel.
func (that *Publisher) Publish(ctx context.Context, event entity.RoomEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal room event: %w", err)
	}

	if err = that.client.Publish(ctx, that.Channel(event.RoomID), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish room event: %w", err)
	}

	return nil
}
