package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/gisportal/internal/adapters/postgres"
	temporaladapter "github.com/samirrijal/gisportal/internal/adapters/temporal"
	"github.com/samirrijal/gisportal/internal/pkg/config"
	"github.com/samirrijal/gisportal/internal/pkg/logging"
	"github.com/samirrijal/gisportal/internal/workflows"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("gisportal-aggregator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	c, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.UsageRollupWorkflow)
	w.RegisterActivity(&workflows.RollupActivities{
		Usage: postgres.NewUsageRepo(db),
	})

	slog.Info("aggregator worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
