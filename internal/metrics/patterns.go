package metrics

import (
	"math"
	"sort"

	"calaudit/internal/model"
)

// Pattern breakpoints, in minutes and hours of day.
const (
	shortMaxMinutes  = 30
	mediumMaxMinutes = 60
	durationBucket   = 15
	earlyBeforeHour  = 9
	lateFromHour     = 17
	absentStartHour  = 12
)

// DetectPatterns derives the heuristic observations shown next to the KPIs.
func DetectPatterns(events []model.Event) model.Patterns {
	var p model.Patterns
	if len(events) == 0 {
		return p
	}

	weekdays := WeekdayDistribution(events)
	for i, w := range weekdays {
		if i == 0 || w.TotalHours > p.BusiestDayHours {
			p.BusiestDay = w.Weekday
			p.BusiestDayHours = w.TotalHours
		}
	}

	var longMinutes float64
	for _, ev := range events {
		switch d := ev.DurationMinutes; {
		case d <= shortMaxMinutes:
			p.ShortMeetings++
		case d <= mediumMaxMinutes:
			p.MediumMeetings++
		default:
			p.LongMeetings++
			longMinutes += d
		}

		hour := absentStartHour
		if !ev.Start.IsZero() {
			hour = ev.Start.Hour()
		}
		if hour < earlyBeforeHour {
			p.EarlyMeetings++
		}
		if hour >= lateFromHour {
			p.LateMeetings++
		}
	}
	p.LongMeetingHours = hours(longMinutes)

	if daily := DailyLoad(events); len(daily) > 0 {
		var meetings, dayHours float64
		for _, d := range daily {
			meetings += float64(d.MeetingCount)
			dayHours += d.TotalHours
			if d.MeetingCount > p.MaxMeetingsDay {
				p.MaxMeetingsDay = d.MeetingCount
			}
		}
		p.AvgMeetingsPerDay = round1(meetings / float64(len(daily)))
		p.AvgHoursPerDay = round1(dayHours / float64(len(daily)))
	}

	p.MostCommonDuration = mostCommonDuration(events)
	return p
}

// mostCommonDuration is the mode of durations rounded to the nearest
// 15-minute bucket, halves to even (37.5 -> 30, 52.5 -> 60). Ties go to the
// shortest bucket.
func mostCommonDuration(events []model.Event) int {
	counts := make(map[int]int)
	for _, ev := range events {
		counts[int(math.RoundToEven(ev.DurationMinutes/durationBucket))*durationBucket]++
	}

	buckets := make([]int, 0, len(counts))
	for b := range counts {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	best, bestCount := 0, 0
	for _, b := range buckets {
		if counts[b] > bestCount {
			best, bestCount = b, counts[b]
		}
	}
	return best
}
