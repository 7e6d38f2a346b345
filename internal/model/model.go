package model

import "time"

// Source tags the export format an event table was read from.
type Source string

const (
	SourceOutlook Source = "outlook"
	SourceGoogle  Source = "google"
	SourceICS     Source = "ics"
	SourceUnknown Source = "unknown"
	// SourceAuto means "no override": detect from the file.
	SourceAuto Source = ""
)

// NoSubject is used when an export row carries no usable subject.
const NoSubject = "(No Subject)"

// Sentinels for events whose start is absent.
const (
	UnknownWeekday    = "Unknown"
	UnknownWeekdayNum = 7
)

// Event is one row of the canonical event table.
//
// Start and End are naive wall-clock timestamps (stored in time.UTC); the zero
// time means the source value was missing or unparseable. Rows that survive
// normalization always have both set and End >= Start.
type Event struct {
	Subject   string    `json:"subject"`
	Start     time.Time `json:"start_datetime"`
	End       time.Time `json:"end_datetime"`
	AllDay    bool      `json:"is_all_day"`
	Organizer string    `json:"organizer"`
	Attendees string    `json:"attendees"`
	Location  string    `json:"location"`

	// Recurrence is the RRULE frequency (e.g. "WEEKLY") for ICS events that
	// carry one. CSV exports never set it.
	Recurrence string `json:"recurrence,omitempty"`

	// Derived fields, filled by ingest.Derive.
	DurationMinutes float64 `json:"duration_minutes"`
	Weekday         string  `json:"weekday"`
	WeekdayNum      int     `json:"weekday_num"`
	Date            string  `json:"date"`
}

// HasTimes reports whether both endpoints are present.
func (e Event) HasTimes() bool {
	return !e.Start.IsZero() && !e.End.IsZero()
}
