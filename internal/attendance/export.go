package attendance

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"Name", "Present", "Status", "Check-in Time"}

// ExportFilename is the download name for an occurrence export with the given
// extension ("csv", "xlsx").
func ExportFilename(occ Occurrence, ext string) string {
	return fmt.Sprintf("attendance-%s-%s.%s", occ.Name, occ.Date.Format("2006-01-02"), ext)
}

func exportRows(rows []RosterRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		present := "No"
		if row.IsPresent {
			present = "Yes"
		}
		status := row.Status
		if status == "" {
			status = StatusNotMarked
		}
		checkIn := "-"
		if row.CheckInTime != nil {
			checkIn = row.CheckInTime.Format(timeOfDayLayout)
		}
		out = append(out, []string{row.ParticipantName, present, string(status), checkIn})
	}
	return out
}

// WriteCSV writes the roster as CSV with a header row. Fields containing
// commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, rows []RosterRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(exportRows(rows)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX renders the roster as a single-sheet workbook.
func WriteXLSX(occ Occurrence, rows []RosterRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetCellValue(sheet, "A1", occ.Name); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, "B1", occ.Date.Format("2006-01-02")); err != nil {
		return nil, err
	}

	all := append([][]string{exportHeader}, exportRows(rows)...)
	for i, line := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(line))
		for j, v := range line {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf, nil
}

// WriteCalendar encodes events and weekly classes as an iCalendar feed.
func WriteCalendar(w io.Writer, events []Event, classes []WeeklyClass, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//attendboard//EN")

	for _, e := range events {
		cal.Children = append(cal.Children, vevent(e.ID, e.Name, e.Description, e.StartDate, e.EndDate, stamp))
	}
	for _, c := range classes {
		start, ok := onDate(c.Date, c.StartTime)
		if !ok {
			start = c.Date
		}
		end, ok := onDate(c.Date, c.EndTime)
		if !ok {
			end = start
		}
		desc := c.Topic
		if c.Description != "" {
			desc += "\n" + c.Description
		}
		cal.Children = append(cal.Children, vevent(c.ID, c.Name, desc, start, end, stamp))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func vevent(id, summary, description string, start, end, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, id+"@attendboard")
	ve.Props.SetText(ical.PropSummary, summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	if description != "" {
		ve.Props.SetText(ical.PropDescription, description)
	}
	return ve
}
