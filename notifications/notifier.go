// Package notifications publishes mutation events to Redis channels and
// fans them out to connected websocket clients. The core only emits;
// caching and rendering of the event stream are the consumer's concern.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types emitted by the core services.
const (
	EventPostCreated        = "post.created"
	EventPostBumped         = "post.bumped"
	EventPostTransitioned   = "post.transitioned"
	EventApplicationCreated = "application.created"
	EventApplicationUpdated = "application.updated"
	EventChatStarted        = "chat.started"
	EventChatCharged        = "chat.charged"
	EventMatchRecorded      = "match.recorded"
)

// Event is the JSON envelope published for every mutation.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Notifier publishes mutation events into per-user Redis channels.
// A nil Notifier or a Notifier without Redis silently drops events, so
// services can publish unconditionally.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends an event to the user's channel. Best-effort: failures are
// logged, never surfaced, because the mutation has already committed.
func (n *Notifier) Publish(ctx context.Context, userID uint, eventType string, payload any) {
	if n == nil || n.rdb == nil {
		return
	}
	body, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	if err != nil {
		slog.Warn("event marshal failed", "type", eventType, "error", err)
		return
	}
	if err := n.rdb.Publish(ctx, UserChannel(userID), body).Err(); err != nil {
		slog.Warn("event publish failed", "type", eventType, "user_id", userID, "error", err)
	}
}

// StartPatternSubscriber subscribes to pattern `events:user:*` and calls
// onMessage for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "events:user:*")
	ch := sub.Channel()

	go func() {
		for msg := range ch {
			// Example channel: events:user:123
			onMessage(msg.Channel, msg.Payload)
		}
	}()

	return nil
}

// UserChannel derives the per-user channel name.
func UserChannel(userID uint) string {
	return "events:user:" + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user ID from a channel name.
func ParseUserChannel(channel string) (uint, error) {
	var userID uint
	if _, err := fmt.Sscanf(channel, "events:user:%d", &userID); err != nil {
		return 0, err
	}
	return userID, nil
}
