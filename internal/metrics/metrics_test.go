package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calaudit/internal/model"
)

// meeting builds a derived event starting on day (January 2024) at hour.
func meeting(subject, organizer string, day, hour int, minutes float64) model.Event {
	start := time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(minutes * float64(time.Minute)))
	weekday := (int(start.Weekday()) + 6) % 7
	return model.Event{
		Subject:         subject,
		Organizer:       organizer,
		Start:           start,
		End:             end,
		DurationMinutes: minutes,
		Weekday:         start.Weekday().String(),
		WeekdayNum:      weekday,
		Date:            start.Format("2006-01-02"),
	}
}

func TestEmptyInput(t *testing.T) {
	assert.Equal(t, model.KPIs{}, CalculateKPIs(nil))
	assert.Equal(t, model.Patterns{}, DetectPatterns(nil))
	assert.Equal(t, 0.0, EstimateRecurringMinutes(nil))

	assert.NotNil(t, TopMeetingsByTime(nil, 10))
	assert.Empty(t, TopMeetingsByTime(nil, 10))
	assert.Empty(t, TopOrganizers(nil, 10))
	assert.Empty(t, LongMeetings(nil, 60))
	assert.Empty(t, WeekdayDistribution(nil))
	assert.Empty(t, DailyLoad(nil))
	assert.Empty(t, DurationDistribution(nil))
	assert.Empty(t, RecurrenceBreakdown(nil))
}

func TestTopMeetingsRounding(t *testing.T) {
	events := []model.Event{
		meeting("Status Update", "", 15, 10, 30),
		meeting("Status Update", "", 16, 10, 45),
	}

	rows := TopMeetingsByTime(events, 10)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MeetingRow{
		Subject:     "Status Update",
		Occurrences: 2,
		TotalHours:  1.3,
		AvgDuration: 38,
	}, rows[0])
}

func TestTopMeetingsOrderAndLimit(t *testing.T) {
	events := []model.Event{
		meeting("A", "", 15, 9, 30),
		meeting("B", "", 15, 10, 120),
		meeting("C", "", 15, 13, 30),
		meeting("B", "", 16, 10, 60),
	}

	rows := TopMeetingsByTime(events, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Subject)
	assert.Equal(t, 3.0, rows[0].TotalHours)
	// A and C tie; first seen wins.
	assert.Equal(t, "A", rows[1].Subject)
}

func TestCalculateKPIs(t *testing.T) {
	events := []model.Event{
		meeting("Weekly Sync", "", 15, 9, 60),
		meeting("Budget", "", 15, 11, 30),
		meeting("Vendor call", "", 16, 14, 45),
		meeting("vendor call ", "", 17, 14, 15),
	}

	k := CalculateKPIs(events)
	assert.Equal(t, 2.5, k.TotalHours)
	assert.Equal(t, 4, k.TotalMeetings)
	assert.Equal(t, 37.5, k.AvgDuration)
	// Sync by keyword, vendor call by repetition: 120 of 150 minutes.
	assert.Equal(t, 80.0, k.RecurringPct)
}

func TestCalculateKPIsZeroMinutes(t *testing.T) {
	k := CalculateKPIs([]model.Event{meeting("Ping", "", 15, 9, 0)})
	assert.Equal(t, 1, k.TotalMeetings)
	assert.Equal(t, 0.0, k.RecurringPct)
}

func TestIsRecurringSubject(t *testing.T) {
	for _, s := range []string{"Weekly Sync", "  Daily STANDUP", "1:1 with Sam", "Sprint Review", "Monday kickoff"} {
		assert.True(t, IsRecurringSubject(s), s)
	}
	for _, s := range []string{"Budget", "Lunch", "Saturday brunch"} {
		assert.False(t, IsRecurringSubject(s), s)
	}
}

func TestTopOrganizers(t *testing.T) {
	events := []model.Event{
		meeting("A", "alice@example.com", 15, 9, 60),
		meeting("B", "  ", 15, 10, 600),
		meeting("C", "bob@example.com", 15, 11, 90),
		meeting("D", "alice@example.com", 16, 11, 60),
	}

	rows := TopOrganizers(events, 10)
	assert.Equal(t, []model.OrganizerRow{
		{Organizer: "alice@example.com", Meetings: 2, TotalHours: 2},
		{Organizer: "bob@example.com", Meetings: 1, TotalHours: 1.5},
	}, rows)

	assert.Empty(t, TopOrganizers([]model.Event{meeting("X", "", 15, 9, 30)}, 10))
}

func TestLongMeetings(t *testing.T) {
	events := []model.Event{
		meeting("Exactly an hour", "", 15, 9, 60),
		meeting("Workshop", "carol", 15, 10, 180.9),
		meeting("Planning", "", 16, 10, 90),
	}

	rows := LongMeetings(events, 60)
	assert.Equal(t, []model.LongMeetingRow{
		{Subject: "Workshop", DurationMinutes: 180, Date: "2024-01-15", Organizer: "carol"},
		{Subject: "Planning", DurationMinutes: 90, Date: "2024-01-16"},
	}, rows)

	many := make([]model.Event, 0, 30)
	for i := 0; i < 30; i++ {
		many = append(many, meeting("Long", "", 15, 8, float64(61+i)))
	}
	capped := LongMeetings(many, 60)
	require.Len(t, capped, 20)
	assert.Equal(t, 90, capped[0].DurationMinutes)
}

func TestWeekdayAndDailyDistribution(t *testing.T) {
	events := []model.Event{
		meeting("Fri", "", 19, 9, 30),
		meeting("Mon", "", 15, 9, 60),
		meeting("Mon again", "", 15, 13, 30),
		meeting("Wed", "", 17, 9, 45),
		{Subject: "No start", Weekday: model.UnknownWeekday, WeekdayNum: model.UnknownWeekdayNum},
	}

	weekdays := WeekdayDistribution(events)
	names := make([]string, 0, len(weekdays))
	for _, w := range weekdays {
		names = append(names, w.Weekday)
	}
	assert.Equal(t, []string{"Monday", "Wednesday", "Friday", "Unknown"}, names)
	assert.Equal(t, 1.5, weekdays[0].TotalHours)
	assert.Equal(t, 2, weekdays[0].MeetingCount)

	daily := DailyLoad(events)
	assert.Equal(t, []model.DailyRow{
		{Date: "2024-01-15", TotalHours: 1.5, MeetingCount: 2},
		{Date: "2024-01-17", TotalHours: 0.8, MeetingCount: 1},
		{Date: "2024-01-19", TotalHours: 0.5, MeetingCount: 1},
	}, daily)
}

func TestDetectPatterns(t *testing.T) {
	events := []model.Event{
		meeting("Early", "", 15, 8, 30),
		meeting("Mid", "", 15, 10, 45),
		meeting("Long", "", 15, 13, 90),
		meeting("Late", "", 16, 17, 30),
		meeting("Late too", "", 16, 18, 30),
	}

	p := DetectPatterns(events)
	assert.Equal(t, "Monday", p.BusiestDay)
	assert.Equal(t, 2.8, p.BusiestDayHours)
	assert.Equal(t, 3, p.ShortMeetings)
	assert.Equal(t, 1, p.MediumMeetings)
	assert.Equal(t, 1, p.LongMeetings)
	assert.Equal(t, 1.5, p.LongMeetingHours)
	assert.Equal(t, 2.5, p.AvgMeetingsPerDay)
	// Per-day hours 2.8 and 1.0.
	assert.Equal(t, 1.9, p.AvgHoursPerDay)
	assert.Equal(t, 3, p.MaxMeetingsDay)
	assert.Equal(t, 30, p.MostCommonDuration)
	assert.Equal(t, 1, p.EarlyMeetings)
	assert.Equal(t, 2, p.LateMeetings)
}

func TestMostCommonDurationTieTakesShortest(t *testing.T) {
	events := []model.Event{
		meeting("A", "", 15, 9, 60),
		meeting("B", "", 15, 10, 30),
		meeting("C", "", 15, 11, 58),
		meeting("D", "", 15, 12, 31),
	}
	assert.Equal(t, 30, DetectPatterns(events).MostCommonDuration)
}

func TestRecurrenceBreakdown(t *testing.T) {
	weekly := meeting("Standup", "", 15, 9, 15)
	weekly.Recurrence = "WEEKLY"
	monthly := meeting("Review", "", 15, 10, 60)
	monthly.Recurrence = "MONTHLY"
	weekly2 := meeting("1:1", "", 16, 9, 30)
	weekly2.Recurrence = "WEEKLY"

	rows := RecurrenceBreakdown([]model.Event{weekly, monthly, weekly2, meeting("One-off", "", 17, 9, 300)})
	assert.Equal(t, []model.RecurrenceRow{
		{Recurrence: "MONTHLY", Meetings: 1, TotalHours: 1},
		{Recurrence: "WEEKLY", Meetings: 2, TotalHours: 0.8},
	}, rows)
}

func TestDurationDistribution(t *testing.T) {
	events := []model.Event{meeting("A", "", 15, 9, 30), meeting("B", "", 15, 10, 45)}
	assert.Equal(t, []float64{30, 45}, DurationDistribution(events))
}

func TestGroupedHoursAddUpToTotal(t *testing.T) {
	events := []model.Event{
		meeting("Weekly Sync", "Alice", 15, 9, 60),
		meeting("Weekly Sync", "Alice", 22, 9, 45),
		meeting("1:1", "Bob", 16, 10, 30),
		meeting("Review", "Carol", 17, 14, 95),
		meeting("Review", "Bob", 19, 16, 20),
		meeting("Planning", "Alice", 20, 11, 125),
	}
	var totalMinutes float64
	for _, ev := range events {
		totalMinutes += ev.DurationMinutes
	}
	want := totalMinutes / 60

	var byMeeting, byOrganizer, byWeekday float64
	meetings := TopMeetingsByTime(events, 100)
	for _, r := range meetings {
		byMeeting += r.TotalHours
	}
	organizers := TopOrganizers(events, 100)
	for _, r := range organizers {
		byOrganizer += r.TotalHours
	}
	weekdays := WeekdayDistribution(events)
	for _, r := range weekdays {
		byWeekday += r.TotalHours
	}

	// Each group rounds to 0.1 h, so the sums may drift by 0.05 h per group.
	assert.InDelta(t, want, byMeeting, 0.1*float64(len(meetings)))
	assert.InDelta(t, want, byOrganizer, 0.1*float64(len(organizers)))
	assert.InDelta(t, want, byWeekday, 0.1*float64(len(weekdays)))
	assert.InDelta(t, want, CalculateKPIs(events).TotalHours, 0.05)
}

func TestMostCommonDurationBucketsHalvesToEven(t *testing.T) {
	assert.Equal(t, 30, DetectPatterns([]model.Event{meeting("A", "", 15, 9, 37.5)}).MostCommonDuration)
	assert.Equal(t, 60, DetectPatterns([]model.Event{meeting("A", "", 15, 9, 52.5)}).MostCommonDuration)
	assert.Equal(t, 45, DetectPatterns([]model.Event{meeting("A", "", 15, 9, 38)}).MostCommonDuration)
}
