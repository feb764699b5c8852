package repository

import (
	"context"
	"time"
)

// CacheRepository - JSON-кеш с TTL
type CacheRepository interface {
	Delete(ctx context.Context, key string) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
}
