package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calaudit/internal/filter"
	"calaudit/internal/model"
)

const exportCSV = `Subject,Start Date,Start Time,End Date,End Time,All day event,Organizer,Required Attendees,Location
Weekly Sync,01/15/2024,09:00 AM,01/15/2024,10:00 AM,False,Alice,Bob,Room 1
Status Update,01/16/2024,09:00 AM,01/16/2024,09:30 AM,False,Bob,,
Status Update,01/17/2024,09:00 AM,01/17/2024,09:45 AM,False,Bob,,
Holiday,01/18/2024,,01/19/2024,,True,,,
Lunch,01/18/2024,12:00 PM,01/18/2024,01:00 PM,False,,,
`

func TestRunDefaults(t *testing.T) {
	rep := Run([]byte(exportCSV), "outlook.csv", DefaultOptions())

	assert.Equal(t, model.SourceOutlook, rep.Source)
	assert.Empty(t, rep.Warnings)
	assert.Equal(t, 5, rep.TotalEvents)
	assert.Equal(t, 4, rep.FilteredEvents)
	assert.False(t, rep.Empty())

	assert.Equal(t, 4, rep.KPIs.TotalMeetings)
	assert.Equal(t, 3.3, rep.KPIs.TotalHours)
	require.NotEmpty(t, rep.TopMeetings)
	assert.Equal(t, "Status Update", rep.TopMeetings[0].Subject)
	assert.Equal(t, 1.3, rep.TopMeetings[0].TotalHours)
	assert.Len(t, rep.TopOrganizers, 2)
	assert.Empty(t, rep.LongMeetings)
	assert.Len(t, rep.DurationDistribution, 4)
	assert.Empty(t, rep.RecurrenceBreakdown)
}

func TestRunFilters(t *testing.T) {
	opts := DefaultOptions()
	opts.Filters = filter.Options{ExcludeAllDay: false, MinDuration: 45, ExcludeKeywords: []string{"lunch"}}
	opts.LongThreshold = 60

	rep := Run([]byte(exportCSV), "outlook.csv", opts)
	assert.Equal(t, 3, rep.FilteredEvents)
	require.Len(t, rep.LongMeetings, 1)
	assert.Equal(t, "Holiday", rep.LongMeetings[0].Subject)
	assert.Equal(t, 1440, rep.LongMeetings[0].DurationMinutes)
}

func TestRunEmptyFile(t *testing.T) {
	rep := Run(nil, "empty.csv", DefaultOptions())
	assert.True(t, rep.Empty())
	assert.Equal(t, model.SourceUnknown, rep.Source)
	assert.Equal(t, []string{"CSV file is empty"}, rep.Warnings)
	assert.Equal(t, model.KPIs{}, rep.KPIs)
	assert.NotNil(t, rep.TopMeetings)
}

func TestParseSource(t *testing.T) {
	cases := map[string]model.Source{
		"":                model.SourceAuto,
		"Auto":            model.SourceAuto,
		"outlook":         model.SourceOutlook,
		"Google Calendar": model.SourceGoogle,
		" google ":        model.SourceGoogle,
	}
	for in, want := range cases {
		got, err := ParseSource(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSource("yahoo")
	assert.Error(t, err)
}
