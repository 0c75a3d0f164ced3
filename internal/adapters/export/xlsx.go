package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// UsageSheet is the worksheet name of the usage export.
const UsageSheet = "Usage"

var usageHeaders = []interface{}{
	"ID", "Created At (UTC)", "Username", "Widget", "Action",
	"Client IP", "User Agent", "Metadata",
}

// WriteUsageXLSX writes events as a single-sheet workbook to w.
func WriteUsageXLSX(w io.Writer, events []domain.UsageEvent) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(UsageSheet)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(UsageSheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 38); err != nil {
		return err
	}
	if err := sw.SetColWidth(2, 2, 22); err != nil {
		return err
	}

	if err := sw.SetRow("A1", usageHeaders); err != nil {
		return err
	}

	for i, ev := range events {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		meta := ""
		if len(ev.Metadata) > 0 {
			b, err := json.Marshal(ev.Metadata)
			if err != nil {
				return err
			}
			meta = string(b)
		}
		row := []interface{}{
			ev.ID.String(), ev.CreatedAt.UTC().Format(time.DateTime), ev.Username,
			ev.Widget, ev.Action, ev.ClientIP, ev.UserAgent, meta,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
