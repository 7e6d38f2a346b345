package metrics

import (
	"strings"

	"calaudit/internal/model"
)

// recurringKeywords flag a subject as part of a series even when it occurs
// only once in the export.
var recurringKeywords = []string{
	"weekly", "daily", "standup", "stand-up", "stand up",
	"sync", "1:1", "1-1", "one on one", "recurring",
	"monday", "tuesday", "wednesday", "thursday", "friday",
	"team meeting", "staff meeting", "check-in", "check in",
	"retro", "sprint", "scrum", "planning", "review",
}

// CalculateKPIs returns the headline numbers for an event table.
func CalculateKPIs(events []model.Event) model.KPIs {
	if len(events) == 0 {
		return model.KPIs{}
	}

	total := sumMinutes(events)

	var recurringPct float64
	if total > 0 {
		recurringPct = EstimateRecurringMinutes(events) / total * 100
	}
	return model.KPIs{
		TotalHours:    hours(total),
		TotalMeetings: len(events),
		AvgDuration:   round1(total / float64(len(events))),
		RecurringPct:  round1(recurringPct),
	}
}

// EstimateRecurringMinutes sums the duration of events that look recurring:
// their normalized subject occurs at least twice, or it contains one of the
// recurring keywords. The estimate deliberately over-counts.
func EstimateRecurringMinutes(events []model.Event) float64 {
	counts := make(map[string]int, len(events))
	for _, ev := range events {
		counts[normalizeSubject(ev.Subject)]++
	}

	var sum float64
	for _, ev := range events {
		s := normalizeSubject(ev.Subject)
		if counts[s] >= 2 || IsRecurringSubject(s) {
			sum += ev.DurationMinutes
		}
	}
	return sum
}

// IsRecurringSubject reports whether subject contains a recurring keyword.
func IsRecurringSubject(subject string) bool {
	s := normalizeSubject(subject)
	for _, k := range recurringKeywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func normalizeSubject(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
