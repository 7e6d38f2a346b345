// Package export renders an audit report as an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"calaudit/internal/audit"
	"calaudit/internal/model"
)

const timestampLayout = "2006-01-02 15:04"

// sheet is one tab of the workbook: a header row followed by data rows.
type sheet struct {
	name   string
	header []string
	rows   [][]any
	widths []float64
}

// Workbook builds the workbook for rep. Every table of the report gets its
// own sheet; the KPI sheet is active on open.
func Workbook(rep audit.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets(rep) {
		idx, err := f.NewSheet(s.name)
		if err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", s.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return nil, fmt.Errorf("write sheet %q: %w", s.name, err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// Filename suggests a download name derived from the uploaded file name.
func Filename(base string) string {
	base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "calendar"
	}
	return base + "-audit.xlsx"
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	header := make([]any, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	last := colName(len(s.header) - 1)
	if err := f.SetCellStyle(s.name, "A1", cell(last, 1), headerStyle); err != nil {
		return err
	}

	for i, row := range s.rows {
		if err := f.SetSheetRow(s.name, cell("A", i+2), &row); err != nil {
			return err
		}
	}

	for i, w := range s.widths {
		col := colName(i)
		if err := f.SetColWidth(s.name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func sheets(rep audit.Report) []sheet {
	k := rep.KPIs
	p := rep.Patterns

	out := []sheet{
		{
			name:   "KPIs",
			header: []string{"Metric", "Value"},
			rows: [][]any{
				{"Source", string(rep.Source)},
				{"Total events", rep.TotalEvents},
				{"Filtered events", rep.FilteredEvents},
				{"Total hours", k.TotalHours},
				{"Total meetings", k.TotalMeetings},
				{"Average duration (min)", k.AvgDuration},
				{"Recurring time (%)", k.RecurringPct},
			},
			widths: []float64{26, 16},
		},
		{
			name:   "Patterns",
			header: []string{"Pattern", "Value"},
			rows: [][]any{
				{"Busiest day", p.BusiestDay},
				{"Busiest day hours", p.BusiestDayHours},
				{"Short meetings (<=30 min)", p.ShortMeetings},
				{"Medium meetings (31-60 min)", p.MediumMeetings},
				{"Long meetings (>60 min)", p.LongMeetings},
				{"Hours in long meetings", p.LongMeetingHours},
				{"Average meetings per day", p.AvgMeetingsPerDay},
				{"Average hours per day", p.AvgHoursPerDay},
				{"Most meetings in a day", p.MaxMeetingsDay},
				{"Most common duration (min)", p.MostCommonDuration},
				{"Meetings before 9:00", p.EarlyMeetings},
				{"Meetings from 17:00", p.LateMeetings},
			},
			widths: []float64{30, 16},
		},
	}

	top := sheet{name: "Top Meetings", header: []string{"Subject", "Occurrences", "Total Hours", "Avg Duration"}, widths: []float64{40, 12, 12, 14}}
	for _, r := range rep.TopMeetings {
		top.rows = append(top.rows, []any{r.Subject, r.Occurrences, r.TotalHours, r.AvgDuration})
	}

	orgs := sheet{name: "Top Organizers", header: []string{"Organizer", "Meetings", "Total Hours"}, widths: []float64{36, 12, 12}}
	for _, r := range rep.TopOrganizers {
		orgs.rows = append(orgs.rows, []any{r.Organizer, r.Meetings, r.TotalHours})
	}

	long := sheet{name: "Long Meetings", header: []string{"Subject", "Duration (min)", "Date", "Organizer"}, widths: []float64{40, 14, 12, 30}}
	for _, r := range rep.LongMeetings {
		long.rows = append(long.rows, []any{r.Subject, r.DurationMinutes, r.Date, r.Organizer})
	}

	weekdays := sheet{name: "Weekdays", header: []string{"Weekday", "Total Hours", "Meetings"}, widths: []float64{14, 12, 12}}
	for _, r := range rep.WeekdayDistribution {
		weekdays.rows = append(weekdays.rows, []any{r.Weekday, r.TotalHours, r.MeetingCount})
	}

	daily := sheet{name: "Daily Load", header: []string{"Date", "Total Hours", "Meetings"}, widths: []float64{12, 12, 12}}
	for _, r := range rep.DailyLoad {
		daily.rows = append(daily.rows, []any{r.Date, r.TotalHours, r.MeetingCount})
	}

	recurrence := sheet{name: "Recurrence", header: []string{"Frequency", "Meetings", "Total Hours"}, widths: []float64{14, 12, 12}}
	for _, r := range rep.RecurrenceBreakdown {
		recurrence.rows = append(recurrence.rows, []any{r.Recurrence, r.Meetings, r.TotalHours})
	}

	events := sheet{
		name:   "Events",
		header: []string{"Subject", "Start", "End", "All Day", "Duration (min)", "Weekday", "Organizer", "Attendees", "Location", "Recurrence"},
		widths: []float64{40, 18, 18, 9, 14, 12, 30, 40, 20, 12},
	}
	for _, ev := range rep.Events {
		events.rows = append(events.rows, eventRow(ev))
	}

	return append(out, top, orgs, long, weekdays, daily, recurrence, events)
}

func eventRow(ev model.Event) []any {
	return []any{
		ev.Subject,
		ev.Start.Format(timestampLayout),
		ev.End.Format(timestampLayout),
		ev.AllDay,
		ev.DurationMinutes,
		ev.Weekday,
		ev.Organizer,
		ev.Attendees,
		ev.Location,
		ev.Recurrence,
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
