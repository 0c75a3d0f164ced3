//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/gisportal/internal/adapters/postgres"
	"github.com/samirrijal/gisportal/internal/core/domain"
	"github.com/samirrijal/gisportal/internal/pkg/config"
)

// setupTestDB connects to the database named by the GISPORTAL_* environment.
// Migrations are expected to have been applied with cmd/migrate.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("gisportal-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestUsageRepo_InsertListAggregate(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewUsageRepo(db)
	ctx := context.Background()

	day := time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC)
	widget := "it_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(ctx, `DELETE FROM usage_events WHERE widget = $1`, widget)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM usage_daily WHERE widget = $1`, widget)
	})

	for i, user := range []string{"amal", "amal", "omar"} {
		ev := &domain.UsageEvent{
			ID:        uuid.New(),
			Username:  user,
			Widget:    widget,
			Action:    "open",
			Metadata:  map[string]any{"n": float64(i)},
			CreatedAt: day.Add(time.Duration(i+1) * time.Hour),
		}
		if err := repo.Insert(ctx, ev); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	events, total, err := repo.List(ctx, domain.UsageFilter{
		From: day, To: day.AddDate(0, 0, 1), Widget: widget, Limit: 2,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(events) != 2 {
		t.Fatalf("expected 2 of 3 events, got %d of %d", len(events), total)
	}
	if !events[0].CreatedAt.After(events[1].CreatedAt) {
		t.Error("expected newest first")
	}

	if _, err := repo.AggregateDay(ctx, day.Add(13*time.Hour)); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	rows, err := repo.Daily(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	var found bool
	for _, r := range rows {
		if r.Widget == widget {
			found = true
			if r.Events != 3 || r.Users != 2 {
				t.Errorf("expected 3 events by 2 users, got %+v", r)
			}
		}
	}
	if !found {
		t.Fatal("rollup row missing")
	}

	next, err := repo.Daily(ctx, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	for _, r := range next {
		if r.Widget == widget {
			t.Errorf("day outside [from, to) returned: %+v", r)
		}
	}

	purged, err := repo.PurgeBefore(ctx, day.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged < 1 {
		t.Errorf("expected at least one purged event, got %d", purged)
	}
}
