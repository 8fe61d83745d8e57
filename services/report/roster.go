// Package reportsvc renders program rosters as spreadsheets.
package reportsvc

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
)

var rosterHeader = []string{
	"#",
	"First Name",
	"Last Name",
	"Email",
	"Phone",
	"Status",
	"Shift",
	"Grade",
	"Siblings",
	"Registered",
	"Profile ID",
}

var rosterColumnWidths = []float64{6, 18, 18, 30, 16, 12, 12, 10, 10, 14, 38}

// WriteRoster writes the program roster as an XLSX workbook to w.
func WriteRoster(w io.Writer, program profile.Program, rows []profile.RosterRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := program.Label()
	index, err := f.NewSheet(sheet)
	if err != nil {
		return errors.Wrap(err, "creating sheet")
	}
	if err = f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "deleting default sheet")
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	header := make([]interface{}, 0, len(rosterHeader))
	for _, h := range rosterHeader {
		header = append(header, h)
	}
	if err = f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	lastCol, _ := excelize.ColumnNumberToName(len(rosterHeader))
	if err = f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return errors.Wrap(err, "styling header")
	}
	for i, width := range rosterColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err = f.SetColWidth(sheet, col, col, width); err != nil {
			return errors.Wrap(err, "setting column width")
		}
	}

	for i, r := range rows {
		values := []interface{}{
			i + 1,
			r.FirstName,
			r.LastName,
			r.Email,
			r.Phone,
			r.Status.Label(),
			r.Shift,
			r.GradeLevel,
			r.SiblingCount,
			core.FormatDate(r.RegisteredAt),
			r.ProfileID,
		}
		if err = f.SetSheetRow(sheet, "A"+strconv.Itoa(i+2), &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if err = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return errors.Wrap(err, "freezing header")
	}
	if _, err = f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

// RosterFilename is the download name of a program roster.
func RosterFilename(program profile.Program, date string) string {
	return "roster-" + string(program) + "-" + date + ".xlsx"
}
