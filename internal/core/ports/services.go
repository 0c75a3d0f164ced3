package ports

import (
	"context"
	"time"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishUsage(ctx context.Context, ev *domain.UsageEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// AuthServer exchanges refresh tokens for a new token pair.
type AuthServer interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

// RollupScheduler starts the daily usage rollup for a given day and
// returns the workflow ID.
type RollupScheduler interface {
	ScheduleRollup(ctx context.Context, day time.Time) (string, error)
}
