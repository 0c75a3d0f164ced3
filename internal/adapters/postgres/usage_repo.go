package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// UsageRepo implements ports.UsageRepository.
type UsageRepo struct {
	db *DB
}

func NewUsageRepo(db *DB) *UsageRepo {
	return &UsageRepo{db: db}
}

func (r *UsageRepo) Insert(ctx context.Context, ev *domain.UsageEvent) error {
	metadata := ev.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO usage_events (id, username, widget, action, metadata, client_ip, user_agent, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
	`, ev.ID.String(), ev.Username, ev.Widget, ev.Action, metadata, ev.ClientIP, ev.UserAgent, ev.CreatedAt)
	return err
}

func (r *UsageRepo) List(ctx context.Context, f domain.UsageFilter) ([]domain.UsageEvent, int, error) {
	where, args := usageWhere(f)

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM usage_events `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count usage events: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.db.Pool.Query(ctx, fmt.Sprintf(`
		SELECT id::text, username, widget, action, metadata,
		       COALESCE(client_ip, ''), COALESCE(user_agent, ''), created_at
		FROM usage_events %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list usage events: %w", err)
	}
	defer rows.Close()

	var events []domain.UsageEvent
	for rows.Next() {
		var (
			ev domain.UsageEvent
			id string
		)
		if err := rows.Scan(&id, &ev.Username, &ev.Widget, &ev.Action, &ev.Metadata,
			&ev.ClientIP, &ev.UserAgent, &ev.CreatedAt); err != nil {
			return nil, 0, err
		}
		if ev.ID, err = uuid.Parse(id); err != nil {
			return nil, 0, fmt.Errorf("usage event id %q: %w", id, err)
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

func usageWhere(f domain.UsageFilter) (string, []any) {
	conds := []string{"created_at >= $1", "created_at < $2"}
	args := []any{f.From, f.To}
	if f.Widget != "" {
		args = append(args, f.Widget)
		conds = append(conds, fmt.Sprintf("widget = $%d", len(args)))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// Daily returns rollup rows for the UTC days overlapping [from, to). The
// bounds are sent as dates so the session TimeZone plays no part.
func (r *UsageRepo) Daily(ctx context.Context, from, to time.Time) ([]domain.DailyUsage, error) {
	first, end := domain.DaySpan(from, to)
	rows, err := r.db.Pool.Query(ctx, `
		SELECT day, widget, action, events, users
		FROM usage_daily
		WHERE day >= $1 AND day < $2
		ORDER BY day, widget, action
	`, first.Format(time.DateOnly), end.Format(time.DateOnly))
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DailyUsage, error) {
		var d domain.DailyUsage
		err := row.Scan(&d.Day, &d.Widget, &d.Action, &d.Events, &d.Users)
		return d, err
	})
}

// AggregateDay replaces the rollup rows of the UTC day containing day.
func (r *UsageRepo) AggregateDay(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var affected int64
	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM usage_daily WHERE day = $1`, start.Format(time.DateOnly)); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO usage_daily (day, widget, action, events, users)
			SELECT $1::date, widget, action, count(*), count(DISTINCT username)
			FROM usage_events
			WHERE created_at >= $2 AND created_at < $3
			GROUP BY widget, action
		`, start.Format(time.DateOnly), start, end)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("aggregate %s: %w", start.Format(time.DateOnly), err)
	}
	return affected, nil
}

func (r *UsageRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM usage_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge usage events: %w", err)
	}
	return tag.RowsAffected(), nil
}
