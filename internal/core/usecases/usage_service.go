package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/gisportal/internal/core/domain"
	"github.com/samirrijal/gisportal/internal/core/ports"
	"github.com/samirrijal/gisportal/internal/pkg/metrics"
	"github.com/samirrijal/gisportal/internal/pkg/telemetry"
)

const (
	defaultUsageWindow = 7 * 24 * time.Hour
	maxUsageWindow     = 366 * 24 * time.Hour
	defaultUsageLimit  = 100
	maxUsageLimit      = 500
)

// MaxExportRows bounds a spreadsheet export; wider ranges are refused.
const MaxExportRows = 100_000

// UsageService records and reports dashboard widget usage.
type UsageService struct {
	repo      ports.UsageRepository
	publisher ports.EventPublisher
	scheduler ports.RollupScheduler
	now       func() time.Time
}

// NewUsageService creates a new UsageService. publisher and scheduler may be nil.
func NewUsageService(repo ports.UsageRepository, publisher ports.EventPublisher, scheduler ports.RollupScheduler) *UsageService {
	return &UsageService{repo: repo, publisher: publisher, scheduler: scheduler, now: time.Now}
}

// Record validates and persists ev, then publishes it for live dashboards.
// ID and CreatedAt are assigned here.
func (s *UsageService) Record(ctx context.Context, ev *domain.UsageEvent) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanUsageRecord)
	defer span.End()

	if !domain.ValidWidget(ev.Widget) {
		return fmt.Errorf("%w: widget must match [A-Za-z0-9_-]{1,64}", domain.ErrInvalidUsageEvent)
	}
	if !domain.ValidAction(ev.Action) {
		return fmt.Errorf("%w: action must be 1-64 characters", domain.ErrInvalidUsageEvent)
	}
	if ev.Username == "" {
		return fmt.Errorf("%w: username is required", domain.ErrInvalidUsageEvent)
	}

	ev.ID = uuid.New()
	ev.CreatedAt = s.now().UTC()

	if err := s.repo.Insert(ctx, ev); err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert usage event: %w", err)
	}
	metrics.UsageEventsRecorded.WithLabelValues(ev.Widget).Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishUsage(ctx, ev); err != nil {
			metrics.UsagePublishErrors.Inc()
			slog.WarnContext(ctx, "publish usage event", "id", ev.ID, "error", err)
		}
	}
	return nil
}

// List returns a page of raw events and the total matching count.
func (s *UsageService) List(ctx context.Context, filter domain.UsageFilter) ([]domain.UsageEvent, int, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanUsageList)
	defer span.End()

	from, to, err := s.resolveRange(filter.From, filter.To)
	if err != nil {
		return nil, 0, err
	}
	filter.From, filter.To = from, to

	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit <= 0 || filter.Limit > maxUsageLimit {
		filter.Limit = defaultUsageLimit
	}
	if filter.Widget != "" && !domain.ValidWidget(filter.Widget) {
		return nil, 0, fmt.Errorf("%w: widget filter", domain.ErrInvalidUsageEvent)
	}

	return s.repo.List(ctx, filter)
}

// Export returns every event in the range, for spreadsheet download. Ranges
// holding more than MaxExportRows events fail with ErrInvalidRange.
func (s *UsageService) Export(ctx context.Context, from, to time.Time) ([]domain.UsageEvent, error) {
	from, to, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}

	var all []domain.UsageEvent
	filter := domain.UsageFilter{From: from, To: to, Limit: maxUsageLimit}
	for {
		page, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		if total > MaxExportRows {
			return nil, fmt.Errorf("%w: %d events exceed the export limit of %d, narrow the range",
				domain.ErrInvalidRange, total, MaxExportRows)
		}
		if all == nil {
			all = make([]domain.UsageEvent, 0, total)
		}
		all = append(all, page...)
		filter.Offset += len(page)
		if len(page) == 0 || filter.Offset >= total || len(all) >= MaxExportRows {
			return all, nil
		}
	}
}

// Daily returns the rollup rows for the range.
func (s *UsageService) Daily(ctx context.Context, from, to time.Time) ([]domain.DailyUsage, error) {
	from, to, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.Daily(ctx, from, to)
}

// ScheduleRollup asks the workflow engine to aggregate day.
func (s *UsageService) ScheduleRollup(ctx context.Context, day time.Time) (string, error) {
	if s.scheduler == nil {
		return "", domain.ErrRollupUnavailable
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRollupSchedule)
	defer span.End()

	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(s.now().UTC()) {
		return "", fmt.Errorf("%w: rollup day is in the future", domain.ErrInvalidRange)
	}
	return s.scheduler.ScheduleRollup(ctx, day)
}

// resolveRange fills in the default window and enforces its bounds.
func (s *UsageService) resolveRange(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultUsageWindow)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from is after to", domain.ErrInvalidRange)
	}
	if to.Sub(from) > maxUsageWindow {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds 366 days", domain.ErrInvalidRange)
	}
	return from, to, nil
}
