// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Record is one room action pushed onto the journal queue for the external
// historian to consume.
type Record struct {
	RoomID    string                 `json:"room_id"`
	Action    string                 `json:"action"`
	ActorID   uuid.UUID              `json:"actor_id"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// Publisher pushes room action records onto a Redis list. A nil *Publisher is
// a valid no-op, so callers never need to branch on whether journaling is
// configured.
type Publisher struct {
	rdb    *redis.Client
	queue  string
	logger *logrus.Logger
}

// Connect dials Redis and verifies the connection.
func Connect(addr string, db int, queue string, logger *logrus.Logger) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &Publisher{rdb: rdb, queue: queue, logger: logger}, nil
}

// Publish serializes the record and pushes it asynchronously. Journal failures
// are logged and never surface to gameplay.
func (p *Publisher) Publish(roomID, action string, actorID uuid.UUID, payload map[string]interface{}) {
	if p == nil {
		return
	}
	rec := Record{
		RoomID:    roomID,
		Action:    action,
		ActorID:   actorID,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		p.logger.Warnf("journal: marshal record for room %s: %v", roomID, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
			p.logger.Warnf("journal: rpush to %s: %v", p.queue, err)
		}
	}()
}

// Close releases the Redis client.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}
