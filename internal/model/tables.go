package model

// Aggregate rows produced by the metrics engine. They are read-only projections
// of an event table and the JSON names are what the presentation layer binds to.

type KPIs struct {
	TotalHours    float64 `json:"total_hours"`
	TotalMeetings int     `json:"total_meetings"`
	AvgDuration   float64 `json:"avg_duration"`
	RecurringPct  float64 `json:"recurring_pct"`
}

type MeetingRow struct {
	Subject     string  `json:"subject"`
	Occurrences int     `json:"occurrences"`
	TotalHours  float64 `json:"total_hours"`
	AvgDuration int     `json:"avg_duration"`
}

type OrganizerRow struct {
	Organizer  string  `json:"organizer"`
	Meetings   int     `json:"meetings"`
	TotalHours float64 `json:"total_hours"`
}

type LongMeetingRow struct {
	Subject         string `json:"subject"`
	DurationMinutes int    `json:"duration_minutes"`
	Date            string `json:"date"`
	Organizer       string `json:"organizer"`
}

type WeekdayRow struct {
	Weekday      string  `json:"weekday"`
	WeekdayNum   int     `json:"-"`
	TotalHours   float64 `json:"total_hours"`
	MeetingCount int     `json:"meeting_count"`
}

type DailyRow struct {
	Date         string  `json:"date"`
	TotalHours   float64 `json:"total_hours"`
	MeetingCount int     `json:"meeting_count"`
}

type RecurrenceRow struct {
	Recurrence string  `json:"recurrence"`
	Meetings   int     `json:"meetings"`
	TotalHours float64 `json:"total_hours"`
}

// Patterns holds the heuristic observations. The zero value is what an empty
// table yields.
type Patterns struct {
	BusiestDay         string  `json:"busiest_day"`
	BusiestDayHours    float64 `json:"busiest_day_hours"`
	ShortMeetings      int     `json:"short_meetings"`
	MediumMeetings     int     `json:"medium_meetings"`
	LongMeetings       int     `json:"long_meetings"`
	LongMeetingHours   float64 `json:"long_meeting_hours"`
	AvgMeetingsPerDay  float64 `json:"avg_meetings_per_day"`
	AvgHoursPerDay     float64 `json:"avg_hours_per_day"`
	MaxMeetingsDay     int     `json:"max_meetings_day"`
	MostCommonDuration int     `json:"most_common_duration"`
	EarlyMeetings      int     `json:"early_meetings"`
	LateMeetings       int     `json:"late_meetings"`
}
