package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// Channel returns the pub/sub channel a user's live notifications go to.
func Channel(userID utils.SixID) string {
	return "notifications:" + userID.String()
}

// RedisSink publishes notifications for clients holding a live subscription.
// Subscribers may see duplicates or miss events; the inbox is the record.
type RedisSink struct {
	client redis.UniversalClient
}

// NewRedisSink creates a RedisSink.
func NewRedisSink(client redis.UniversalClient) *RedisSink {
	return &RedisSink{client: client}
}

// Deliver publishes the notification as JSON to the recipient's channel.
func (s *RedisSink) Deliver(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	channel := Channel(n.UserID)
	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification to '%s': %w", channel, err)
	}
	return nil
}
