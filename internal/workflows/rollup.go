package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RollupInput is the input for the usage rollup workflow.
type RollupInput struct {
	Day           time.Time
	RetentionDays int
}

// RollupResult reports what the rollup changed.
type RollupResult struct {
	Rows   int64
	Purged int64
}

// UsageRollupWorkflow aggregates one day of raw usage events into
// usage_daily, then purges raw events older than the retention window.
func UsageRollupWorkflow(ctx workflow.Context, input RollupInput) (RollupResult, error) {
	logger := workflow.GetLogger(ctx)
	day := input.Day.UTC().Truncate(24 * time.Hour)
	logger.Info("Starting usage rollup", "day", day.Format(time.DateOnly))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var res RollupResult
	if err := workflow.ExecuteActivity(ctx, "AggregateDay", day).Get(ctx, &res.Rows); err != nil {
		return res, err
	}

	if input.RetentionDays > 0 {
		cutoff := day.AddDate(0, 0, -input.RetentionDays)
		if err := workflow.ExecuteActivity(ctx, "PurgeBefore", cutoff).Get(ctx, &res.Purged); err != nil {
			return res, err
		}
	}

	logger.Info("Usage rollup finished", "rows", res.Rows, "purged", res.Purged)
	return res, nil
}
