package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"calaudit/internal/audit"
)

const exportCSV = `Subject,Start Date,Start Time,End Date,End Time,Organizer,Required Attendees
Weekly Sync,01/15/2024,09:00 AM,01/15/2024,10:00 AM,Alice,Bob
Workshop,01/16/2024,01:00 PM,01/16/2024,04:00 PM,Carol,
`

func TestWorkbook(t *testing.T) {
	rep := audit.Run([]byte(exportCSV), "outlook.csv", audit.DefaultOptions())

	buf, err := Workbook(rep)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"KPIs", "Patterns", "Top Meetings", "Top Organizers", "Long Meetings",
		"Weekdays", "Daily Load", "Recurrence", "Events",
	}, f.GetSheetList())
	assert.Equal(t, 0, f.GetActiveSheetIndex())

	kpis, err := f.GetRows("KPIs")
	require.NoError(t, err)
	assert.Equal(t, []string{"Metric", "Value"}, kpis[0])
	assert.Equal(t, []string{"Source", "outlook"}, kpis[1])
	assert.Equal(t, []string{"Total hours", "4"}, kpis[4])

	long, err := f.GetRows("Long Meetings")
	require.NoError(t, err)
	require.Len(t, long, 2)
	assert.Equal(t, []string{"Workshop", "180", "2024-01-16", "Carol"}, long[1])

	events, err := f.GetRows("Events")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "2024-01-15 09:00", events[1][1])
}

func TestWorkbookEmptyReport(t *testing.T) {
	buf, err := Workbook(audit.Run(nil, "", audit.DefaultOptions()))
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Top Meetings")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "outlook-audit.xlsx", Filename("outlook.csv"))
	assert.Equal(t, "team-audit.xlsx", Filename("/tmp/uploads/team.ics"))
	assert.Equal(t, "calendar-audit.xlsx", Filename(""))
}
