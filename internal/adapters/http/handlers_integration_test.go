//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/samirrijal/gisportal/internal/adapters/postgres"
	handler "github.com/samirrijal/gisportal/internal/adapters/http"
	"github.com/samirrijal/gisportal/internal/core/domain"
	"github.com/samirrijal/gisportal/internal/core/usecases"
	"github.com/samirrijal/gisportal/internal/pkg/config"
)

// setupTestDB connects to the test database configured through GISPORTAL_* variables.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
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

// setupTestDeps wires the real usage repository behind the HTTP layer.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	repo := postgres.NewUsageRepo(db)
	return makeDeps(nil, func(d *handler.Dependencies) {
		d.Usage = usecases.NewUsageService(repo, nil, nil)
		d.DB = db
	})
}

// TestUsage_Integration_RecordThenList records an event and reads it back as admin.
func TestUsage_Integration_RecordThenList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	widget := "ItWidget" + time.Now().Format("150405")
	resp := do(t, app, "POST", "/v1/stats", `{"widget":"`+widget+`","action":"open"}`,
		accessCookie(t, "integration", domain.RoleOrgUser))
	if resp.StatusCode != 201 {
		t.Fatalf("record: expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var recorded domain.UsageEvent
	_ = json.Unmarshal(readBody(t, resp.Body), &recorded)

	resp = do(t, app, "GET", "/v1/stats?widget="+widget, "", accessCookie(t, "root", domain.RoleOrgAdmin))
	if resp.StatusCode != 200 {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.UsageEvent `json:"data"`
		Pagination struct{ Total int } `json:"pagination"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Pagination.Total != 1 || len(result.Data) != 1 {
		t.Fatalf("expected exactly one event, got %d", result.Pagination.Total)
	}
	if result.Data[0].ID != recorded.ID || result.Data[0].Username != "integration" {
		t.Errorf("unexpected event %+v", result.Data[0])
	}
}

// TestReady_Integration checks readiness against a live database.
func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	resp := do(t, app, "GET", "/v1/ready", "")
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
}
