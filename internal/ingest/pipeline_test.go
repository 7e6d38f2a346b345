package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calaudit/internal/metrics"
	"calaudit/internal/model"
)

const outlookCSV = `Subject,Start Date,Start Time,End Date,End Time,All day event,Organizer,Required Attendees,Optional Attendees,Location
Weekly Sync,1/15/2024,10:00:00 AM,1/15/2024,11:00:00 AM,False,Alice,bob@example.com,carol@example.com,Room 1
Offsite,1/16/2024,,1/17/2024,,True,Alice,,,
Broken,,,1/17/2024,10:00 AM,False,Bob,,,
Backwards,1/18/2024,11:00 AM,1/18/2024,10:00 AM,False,Bob,dave@example.com,,
`

const googleCSV = `Subject,Start Date,Start Time,End Date,End Time,All Day Event,Description,Location,Private
Planning,2024-01-15,14:00,2024-01-15,14:45,False,Quarterly,HQ,True
,2024-01-16,09:00,2024-01-16,09:30,False,,,False
`

func TestParseCalendarFileOutlook(t *testing.T) {
	res := ParseCalendarFile([]byte(outlookCSV), "calendar.csv", model.SourceAuto)

	assert.Equal(t, model.SourceOutlook, res.Source)
	assert.Equal(t, []string{
		"Dropped 1 rows with invalid dates",
		"Dropped 1 rows with invalid duration",
	}, res.Warnings)
	require.Len(t, res.Events, 2)

	sync := res.Events[0]
	assert.Equal(t, "Weekly Sync", sync.Subject)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), sync.Start)
	assert.Equal(t, 60.0, sync.DurationMinutes)
	assert.Equal(t, "Monday", sync.Weekday)
	assert.Equal(t, "2024-01-15", sync.Date)
	assert.Equal(t, "Alice", sync.Organizer)
	assert.Equal(t, "bob@example.com; carol@example.com", sync.Attendees)
	assert.Equal(t, "Room 1", sync.Location)
	assert.False(t, sync.AllDay)
	assert.True(t, metrics.IsRecurringSubject(sync.Subject))

	offsite := res.Events[1]
	assert.True(t, offsite.AllDay)
	assert.Equal(t, 1440.0, offsite.DurationMinutes)
	assert.Empty(t, offsite.Attendees)
}

func TestParseCalendarFileGoogle(t *testing.T) {
	res := ParseCalendarFile([]byte(googleCSV), "", model.SourceAuto)

	assert.Equal(t, model.SourceGoogle, res.Source)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Events, 2)
	assert.Equal(t, 45.0, res.Events[0].DurationMinutes)
	assert.Empty(t, res.Events[0].Organizer)
	assert.Empty(t, res.Events[0].Attendees)
	assert.Equal(t, "HQ", res.Events[0].Location)
	assert.Equal(t, model.NoSubject, res.Events[1].Subject)
}

func TestParseCalendarFileOverride(t *testing.T) {
	res := ParseCalendarFile([]byte(outlookCSV), "calendar.csv", model.SourceGoogle)

	assert.Equal(t, model.SourceGoogle, res.Source)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, "Using manual override: google (auto-detected: outlook)", res.Warnings[0])
	for _, ev := range res.Events {
		assert.Empty(t, ev.Organizer)
	}

	same := ParseCalendarFile([]byte(outlookCSV), "calendar.csv", model.SourceOutlook)
	assert.NotContains(t, strings.Join(same.Warnings, "\n"), "manual override")
}

func TestParseCalendarFileUnknownSource(t *testing.T) {
	content := "Title,Begin\nRetro,2024-01-15\n"
	res := ParseCalendarFile([]byte(content), "x.csv", model.SourceAuto)

	assert.Equal(t, model.SourceGoogle, res.Source)
	assert.Equal(t, []string{
		"Could not detect calendar source. Attempting Google format.",
		"Dropped 1 rows with invalid dates",
	}, res.Warnings)
	assert.Empty(t, res.Events)
	assert.NotNil(t, res.Events)
}

func TestParseCalendarFileEmptyCSV(t *testing.T) {
	for _, content := range []string{"", "Subject,Start Date,Start Time\n"} {
		res := ParseCalendarCSV([]byte(content), model.SourceAuto)
		assert.Equal(t, model.SourceUnknown, res.Source)
		assert.Equal(t, []string{"CSV file is empty"}, res.Warnings)
		assert.Empty(t, res.Events)
	}
}

func TestParseCalendarFileLatin1(t *testing.T) {
	content := []byte("Subject,Start Date,Start Time,End Date,End Time\nCaf\xe9 chat,1/15/2024,10:00,1/15/2024,10:30\n")
	res := ParseCalendarFile(content, "", model.SourceAuto)

	require.Len(t, res.Events, 1)
	assert.Equal(t, "Café chat", res.Events[0].Subject)
}

func TestParseCalendarFileBOM(t *testing.T) {
	content := append([]byte("\xef\xbb\xbf"), []byte(googleCSV)...)
	res := ParseCalendarFile(content, "", model.SourceAuto)

	assert.Equal(t, model.SourceGoogle, res.Source)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "Planning", res.Events[0].Subject)
}

func TestParseCalendarFileICS(t *testing.T) {
	content := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//calaudit//test//EN",
		"BEGIN:VEVENT",
		"UID:1",
		"SUMMARY:Standup",
		"DTSTART:20240115T090000Z",
		"DTEND:20240115T091500Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2",
		"SUMMARY:Backwards",
		"DTSTART:20240115T100000",
		"DTEND:20240115T090000",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	res := ParseCalendarFile([]byte(content), "work.ics", model.SourceOutlook)
	assert.Equal(t, model.SourceICS, res.Source)
	assert.Equal(t, []string{"Dropped 1 rows with invalid duration"}, res.Warnings)
	require.Len(t, res.Events, 1)
	assert.Equal(t, 15.0, res.Events[0].DurationMinutes)
	assert.Equal(t, "Monday", res.Events[0].Weekday)
}

func TestParseCalendarFileICSProblems(t *testing.T) {
	empty := ParseCalendarFile([]byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"), "", model.SourceAuto)
	assert.Equal(t, model.SourceICS, empty.Source)
	assert.Equal(t, []string{"No events found in ICS file"}, empty.Warnings)
	assert.Empty(t, empty.Events)

	bad := ParseCalendarFile([]byte("this is not a calendar"), "broken.ics", model.SourceAuto)
	assert.Equal(t, model.SourceICS, bad.Source)
	require.Len(t, bad.Warnings, 1)
	assert.True(t, strings.HasPrefix(bad.Warnings[0], "Error parsing ICS file: "), bad.Warnings[0])
}

func TestParseCalendarFileICSMalformedEvent(t *testing.T) {
	content := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"UID:1",
		"SUMMARY:Standup",
		"DTSTART:20240115T090000",
		"DTEND:20240115T091500",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2",
		"SUMMARY:Broken",
		"THIS LINE HAS NO COLON",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	res := ParseCalendarFile([]byte(content), "work.ics", model.SourceAuto)
	assert.Equal(t, model.SourceICS, res.Source)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Standup", res.Events[0].Subject)
}
