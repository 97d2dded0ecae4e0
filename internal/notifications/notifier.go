// Package notifications fans activity feed events out to live websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Channel names.
const (
	userChannelPrefix = "activities:user:"
	BroadcastChannel  = "activities:broadcast"
)

// Event is the websocket frame sent to live feed clients.
type Event struct {
	Type    string           `json:"type"`
	Payload *models.Activity `json:"payload"`
}

// Notifier provides helpers to publish activities into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishActivity sends the activity to its author's channel and to the broadcast channel.
func (n *Notifier) PublishActivity(ctx context.Context, activity *models.Activity) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(Event{Type: "activity", Payload: activity})
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	pipe := n.rdb.Pipeline()
	pipe.Publish(ctx, UserChannel(activity.UserID), payload)
	pipe.Publish(ctx, BroadcastChannel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	observability.ActivitiesPublished.WithLabelValues(activity.ActivityType).Inc()
	return nil
}

// StartActivitySubscriber subscribes to every user channel and the broadcast
// channel and calls onMessage for each incoming message. It returns once the
// subscription is confirmed.
func (n *Notifier) StartActivitySubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	patterns := []string{userChannelPrefix + "*", BroadcastChannel}
	sub := n.rdb.PSubscribe(ctx, patterns...)
	for range patterns {
		if _, err := sub.Receive(ctx); err != nil {
			_ = sub.Close()
			return fmt.Errorf("subscribe activities: %w", err)
		}
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in activity subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user's activities.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// ParseUserChannel extracts the user id from a user channel name.
func ParseUserChannel(channel string) (string, bool) {
	id, ok := strings.CutPrefix(channel, userChannelPrefix)
	return id, ok && id != ""
}
