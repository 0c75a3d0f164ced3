package ports

import (
	"context"
	"time"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// UsageRepository persists widget usage events and their daily rollups.
type UsageRepository interface {
	Insert(ctx context.Context, ev *domain.UsageEvent) error
	List(ctx context.Context, filter domain.UsageFilter) ([]domain.UsageEvent, int, error)
	Daily(ctx context.Context, from, to time.Time) ([]domain.DailyUsage, error)
	// AggregateDay recomputes the rollup rows for the UTC day containing day.
	AggregateDay(ctx context.Context, day time.Time) (int64, error)
	// PurgeBefore deletes raw events created before cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
