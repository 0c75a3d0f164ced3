package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/gisportal/internal/core/ports"
)

// RollupActivities holds the activity implementations for the usage rollup workflow.
type RollupActivities struct {
	Usage ports.UsageRepository
}

// AggregateDay rebuilds the usage_daily rows for day and returns how many were written.
func (a *RollupActivities) AggregateDay(ctx context.Context, day time.Time) (int64, error) {
	n, err := a.Usage.AggregateDay(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("aggregate %s: %w", day.Format(time.DateOnly), err)
	}
	activity.GetLogger(ctx).Info("Aggregated usage", "day", day.Format(time.DateOnly), "rows", n)
	return n, nil
}

// PurgeBefore deletes raw usage events created before cutoff.
func (a *RollupActivities) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := a.Usage.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge before %s: %w", cutoff.Format(time.DateOnly), err)
	}
	activity.GetLogger(ctx).Info("Purged usage events", "cutoff", cutoff.Format(time.DateOnly), "deleted", n)
	return n, nil
}
