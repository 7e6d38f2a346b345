package metrics

import (
	"math"
	"sort"
	"strings"

	"calaudit/internal/model"
)

// Defaults used when callers pass a non-positive limit.
const (
	DefaultTopN          = 10
	DefaultLongThreshold = 60
	maxLongMeetings      = 20
)

// group accumulates one bucket of a group-by, remembering first-seen order.
type group struct {
	key     string
	num     int
	count   int
	minutes float64
}

// groupBy buckets events by key, skipping events for which key reports false.
// Buckets come back in first-seen order.
func groupBy(events []model.Event, key func(model.Event) (string, bool)) []*group {
	index := make(map[string]*group)
	out := make([]*group, 0)
	for _, ev := range events {
		k, ok := key(ev)
		if !ok {
			continue
		}
		g, seen := index[k]
		if !seen {
			g = &group{key: k, num: ev.WeekdayNum}
			index[k] = g
			out = append(out, g)
		}
		g.count++
		g.minutes += ev.DurationMinutes
	}
	return out
}

// rankByHours sorts groups by rounded hours, descending, keeping the order of
// ties, and truncates to n.
func rankByHours(groups []*group, n int) []*group {
	sort.SliceStable(groups, func(i, j int) bool {
		return hours(groups[i].minutes) > hours(groups[j].minutes)
	})
	if n <= 0 {
		n = DefaultTopN
	}
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// TopMeetingsByTime aggregates by exact subject and returns the n subjects
// with the most total time.
func TopMeetingsByTime(events []model.Event, n int) []model.MeetingRow {
	groups := groupBy(events, func(ev model.Event) (string, bool) { return ev.Subject, true })
	groups = rankByHours(groups, n)

	out := make([]model.MeetingRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.MeetingRow{
			Subject:     g.key,
			Occurrences: g.count,
			TotalHours:  hours(g.minutes),
			AvgDuration: int(math.Round(g.minutes / float64(g.count))),
		})
	}
	return out
}

// TopOrganizers aggregates by organizer, ignoring blank organizers.
func TopOrganizers(events []model.Event, n int) []model.OrganizerRow {
	groups := groupBy(events, func(ev model.Event) (string, bool) {
		return ev.Organizer, strings.TrimSpace(ev.Organizer) != ""
	})
	groups = rankByHours(groups, n)

	out := make([]model.OrganizerRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.OrganizerRow{
			Organizer:  g.key,
			Meetings:   g.count,
			TotalHours: hours(g.minutes),
		})
	}
	return out
}

// LongMeetings lists events longer than thresholdMinutes, longest first,
// capped at 20 rows.
func LongMeetings(events []model.Event, thresholdMinutes int) []model.LongMeetingRow {
	long := make([]model.Event, 0)
	for _, ev := range events {
		if ev.DurationMinutes > float64(thresholdMinutes) {
			long = append(long, ev)
		}
	}
	sort.SliceStable(long, func(i, j int) bool {
		return long[i].DurationMinutes > long[j].DurationMinutes
	})
	if len(long) > maxLongMeetings {
		long = long[:maxLongMeetings]
	}

	out := make([]model.LongMeetingRow, 0, len(long))
	for _, ev := range long {
		out = append(out, model.LongMeetingRow{
			Subject:         ev.Subject,
			DurationMinutes: int(ev.DurationMinutes),
			Date:            ev.Date,
			Organizer:       ev.Organizer,
		})
	}
	return out
}

// WeekdayDistribution totals time per weekday, Monday first; events without a
// start sort last under "Unknown".
func WeekdayDistribution(events []model.Event) []model.WeekdayRow {
	groups := groupBy(events, func(ev model.Event) (string, bool) { return ev.Weekday, true })
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].num < groups[j].num })

	out := make([]model.WeekdayRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.WeekdayRow{
			Weekday:      g.key,
			WeekdayNum:   g.num,
			TotalHours:   hours(g.minutes),
			MeetingCount: g.count,
		})
	}
	return out
}

// DailyLoad totals time per calendar date in ascending date order.
func DailyLoad(events []model.Event) []model.DailyRow {
	groups := groupBy(events, func(ev model.Event) (string, bool) { return ev.Date, ev.Date != "" })
	// ISO dates sort lexically.
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].key < groups[j].key })

	out := make([]model.DailyRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.DailyRow{
			Date:         g.key,
			TotalHours:   hours(g.minutes),
			MeetingCount: g.count,
		})
	}
	return out
}

// DurationDistribution returns the duration column for histogram rendering.
func DurationDistribution(events []model.Event) []float64 {
	out := make([]float64, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.DurationMinutes)
	}
	return out
}

// RecurrenceBreakdown totals time per RRULE frequency for events that carry
// one. Only ICS exports provide recurrence data.
func RecurrenceBreakdown(events []model.Event) []model.RecurrenceRow {
	groups := groupBy(events, func(ev model.Event) (string, bool) { return ev.Recurrence, ev.Recurrence != "" })
	groups = rankByHours(groups, len(groups))

	out := make([]model.RecurrenceRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.RecurrenceRow{
			Recurrence: g.key,
			Meetings:   g.count,
			TotalHours: hours(g.minutes),
		})
	}
	return out
}
