package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SentMarkerKeyPrefix is the Redis key prefix for dispatched reminder slots
	SentMarkerKeyPrefix = "reminder_sent:"
	// SentMarkerTTL only needs to outlive the minute it guards; a day keeps the keys inspectable
	SentMarkerTTL = 24 * time.Hour
)

// RedisSentMarker implements SentMarker with SET NX, so concurrent ticks
// (in-process timer and an external check-reminders caller) agree on one sender.
type RedisSentMarker struct {
	client *redis.Client
}

func NewRedisSentMarker(client *redis.Client) *RedisSentMarker {
	return &RedisSentMarker{client: client}
}

func (m *RedisSentMarker) MarkSent(ctx context.Context, reminderID, slot string) (bool, error) {
	return m.client.SetNX(ctx, SentMarkerKeyPrefix+reminderID+":"+slot, "1", SentMarkerTTL).Result()
}
