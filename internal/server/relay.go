package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannel = "territorio:events"

type relayMessage struct {
	Origin string          `json:"origin"`
	GameID string          `json:"gameId"`
	Event  json.RawMessage `json:"event"`
}

// RedisRelay fans broker events out to every instance subscribed to the same
// Redis channel. Messages from this instance are skipped on receipt.
type RedisRelay struct {
	rdb    *redis.Client
	origin string
	outbox chan relayMessage
	logger *slog.Logger
}

func NewRedisRelay(rdb *redis.Client, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{
		rdb:    rdb,
		origin: uuid.NewString(),
		outbox: make(chan relayMessage, 256),
		logger: logger,
	}
}

func (r *RedisRelay) enqueue(gameID string, data []byte) {
	select {
	case r.outbox <- relayMessage{Origin: r.origin, GameID: gameID, Event: data}:
	default:
		r.logger.Warn("relay outbox full, dropping event", "game_id", gameID)
	}
}

// Run publishes queued events and delivers remote ones to b until ctx is
// done.
func (r *RedisRelay) Run(ctx context.Context, b *Broker) error {
	sub := r.rdb.Subscribe(ctx, relayChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", relayChannel, err)
	}
	incoming := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.outbox:
			data, _ := json.Marshal(msg)
			if err := r.rdb.Publish(ctx, relayChannel, data).Err(); err != nil {
				r.logger.Warn("relay publish failed", "game_id", msg.GameID, "error", err)
			}
		case m, ok := <-incoming:
			if !ok {
				return nil
			}
			var msg relayMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				r.logger.Warn("relay message malformed", "error", err)
				continue
			}
			if msg.Origin == r.origin {
				continue
			}
			b.deliver(msg.GameID, msg.Event)
		}
	}
}
