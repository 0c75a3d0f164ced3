package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/gisportal/internal/adapters/export"
	"github.com/samirrijal/gisportal/internal/core/domain"
)

const (
	maxMetadataBytes = 4096
	maxUserAgent     = 256
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type recordUsageRequest struct {
	Widget   string         `json:"widget"`
	Action   string         `json:"action"`
	Metadata map[string]any `json:"metadata"`
}

// RecordUsageHandler stores a widget interaction for the caller.
func RecordUsageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req recordUsageRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Metadata != nil {
			raw, err := json.Marshal(req.Metadata)
			if err != nil || len(raw) > maxMetadataBytes {
				return errBadRequest(c, fmt.Sprintf("metadata must encode to at most %d bytes", maxMetadataBytes))
			}
		}

		ua := c.Get(fiber.HeaderUserAgent)
		if len(ua) > maxUserAgent {
			ua = ua[:maxUserAgent]
		}

		ev := &domain.UsageEvent{
			Username:  SessionFrom(c).Username,
			Widget:    req.Widget,
			Action:    req.Action,
			Metadata:  req.Metadata,
			ClientIP:  c.IP(),
			UserAgent: ua,
		}
		if err := deps.Usage.Record(c.UserContext(), ev); err != nil {
			return usageError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ev)
	}
}

// ListUsageHandler returns raw usage events, newest first.
func ListUsageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := queryRange(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		events, total, err := deps.Usage.List(c.UserContext(), domain.UsageFilter{
			From:   from,
			To:     to,
			Widget: c.Query("widget"),
			Offset: offset,
			Limit:  limit,
		})
		if err != nil {
			return usageError(c, err)
		}
		if events == nil {
			events = []domain.UsageEvent{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: events, Pagination: pg})
	}
}

// DailyUsageHandler returns the per-day rollup rows.
func DailyUsageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := queryRange(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		rows, err := deps.Usage.Daily(c.UserContext(), from, to)
		if err != nil {
			return usageError(c, err)
		}
		if rows == nil {
			rows = []domain.DailyUsage{}
		}
		return c.JSON(rows)
	}
}

// ExportUsageHandler streams the usage events of a range as an xlsx workbook.
func ExportUsageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := queryRange(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		events, err := deps.Usage.Export(c.UserContext(), from, to)
		if err != nil {
			return usageError(c, err)
		}

		var buf bytes.Buffer
		if err := export.WriteUsageXLSX(&buf, events); err != nil {
			return errInternal(c, err)
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="usage-%s.xlsx"`, time.Now().UTC().Format("20060102")))
		c.Set(fiber.HeaderCacheControl, "private, no-store")
		return c.Send(buf.Bytes())
	}
}

type rollupRequest struct {
	Day string `json:"day"`
}

// ScheduleRollupHandler starts the rollup workflow for a day.
func ScheduleRollupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req rollupRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		day, err := time.Parse(time.DateOnly, req.Day)
		if err != nil {
			return errBadRequest(c, "day must be YYYY-MM-DD")
		}

		id, err := deps.Usage.ScheduleRollup(c.UserContext(), day)
		if err != nil {
			return usageError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"workflow_id": id,
			"day":         req.Day,
		})
	}
}

func usageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidUsageEvent), errors.Is(err, domain.ErrInvalidRange):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrRollupUnavailable):
		return errServiceUnavailable(c, "rollup scheduling is not configured")
	default:
		return errInternal(c, err)
	}
}

// queryRange reads from/to as RFC 3339 timestamps or YYYY-MM-DD dates.
// Absent values are left zero for the service to default.
func queryRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := parseQueryTime(c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}
	to, err := parseQueryTime(c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}
	return from, to, nil
}

func parseQueryTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errors.New("expected RFC 3339 timestamp or YYYY-MM-DD")
	}
	return t, nil
}
