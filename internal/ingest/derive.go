package ingest

import (
	"calaudit/internal/model"
)

const dateLayout = "2006-01-02"

// Derive returns a copy of events with duration, weekday and date filled in.
// Subject and timestamps are never changed.
func Derive(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	for i, ev := range events {
		out[i] = deriveOne(ev)
	}
	return out
}

func deriveOne(ev model.Event) model.Event {
	ev.DurationMinutes = 0
	if ev.HasTimes() {
		ev.DurationMinutes = ev.End.Sub(ev.Start).Minutes()
	}

	if ev.Start.IsZero() {
		ev.Weekday = model.UnknownWeekday
		ev.WeekdayNum = model.UnknownWeekdayNum
		ev.Date = ""
		return ev
	}
	ev.Weekday = ev.Start.Weekday().String()
	// time.Weekday counts from Sunday; the table counts from Monday.
	ev.WeekdayNum = (int(ev.Start.Weekday()) + 6) % 7
	ev.Date = ev.Start.Format(dateLayout)
	return ev
}
