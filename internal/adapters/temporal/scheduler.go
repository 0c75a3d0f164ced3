package temporaladapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/samirrijal/gisportal/internal/workflows"
)

// Dial connects to the Temporal frontend.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal dial %s: %w", hostPort, err)
	}
	return c, nil
}

// Scheduler implements ports.RollupScheduler by starting UsageRollupWorkflow.
type Scheduler struct {
	client        client.Client
	taskQueue     string
	retentionDays int
}

// NewScheduler creates a scheduler on taskQueue.
func NewScheduler(c client.Client, taskQueue string, retentionDays int) *Scheduler {
	return &Scheduler{client: c, taskQueue: taskQueue, retentionDays: retentionDays}
}

// WorkflowID returns the deterministic rollup workflow ID for day.
func WorkflowID(day time.Time) string {
	return "usage-rollup-" + day.UTC().Format(time.DateOnly)
}

// ScheduleRollup starts the rollup for day and returns its workflow ID.
func (s *Scheduler) ScheduleRollup(ctx context.Context, day time.Time) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(day),
		TaskQueue: s.taskQueue,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, workflows.UsageRollupWorkflow, workflows.RollupInput{
		Day:           day.UTC(),
		RetentionDays: s.retentionDays,
	})
	if err != nil {
		return "", fmt.Errorf("start rollup workflow: %w", err)
	}
	return run.GetID(), nil
}

// Close closes the underlying client.
func (s *Scheduler) Close() {
	s.client.Close()
}
