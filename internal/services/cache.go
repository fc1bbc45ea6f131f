package services

import (
	"context"
	"time"
)

// Cache is the JSON cache the services read through. It is implemented
// by database.RedisClient.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Publisher fans events out to subscribers
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}
