// Package export writes console listings to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gravitrone/mirrorctl/internal/api"
	"github.com/xuri/excelize/v2"
)

// UsersSheet is the worksheet name of a users export.
const UsersSheet = "Users"

// UserRow is one exported user with the permissions granted to them.
type UserRow struct {
	User        api.User
	Permissions []string
}

var userHeaders = []string{"ID", "Username", "Status", "Last seen", "Permissions"}

var userColumnWidths = []float64{38, 28, 24, 22, 60}

// UsersXLSX writes rows as an xlsx workbook to w. now decides the status
// column.
func UsersXLSX(w io.Writer, rows []UserRow, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(UsersSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(UsersSheet); err == nil {
		f.SetActiveSheet(index)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, header := range userHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(UsersSheet, cell, header); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(UsersSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("convert column number: %w", err)
		}
		if err := f.SetColWidth(UsersSheet, name, name, userColumnWidths[col]); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i, row := range rows {
		lastSeen := ""
		if row.User.LastSeen != nil && !row.User.LastSeen.IsZero() {
			lastSeen = row.User.LastSeen.UTC().Format("2006-01-02 15:04:05")
		}
		values := []any{
			row.User.ID,
			row.User.Username,
			statusLabel(row.User, now),
			lastSeen,
			strings.Join(row.Permissions, ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(UsersSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(UsersSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func statusLabel(u api.User, now time.Time) string {
	switch u.Presence(now) {
	case api.PresenceOnline:
		return "online"
	case api.PresenceAway:
		return "offline"
	default:
		return "awaiting first login"
	}
}
