// Package audit runs an export through ingestion, filtering and the metrics
// engine and gathers the results into one report.
package audit

import (
	"fmt"
	"strings"

	"calaudit/internal/filter"
	"calaudit/internal/ingest"
	appLog "calaudit/internal/log"
	"calaudit/internal/metrics"
	"calaudit/internal/model"
)

// Options controls one audit run.
type Options struct {
	Source        model.Source
	Filters       filter.Options
	TopN          int
	LongThreshold int
}

// DefaultOptions mirrors the upload form defaults.
func DefaultOptions() Options {
	return Options{
		Filters:       filter.Options{ExcludeAllDay: true},
		TopN:          metrics.DefaultTopN,
		LongThreshold: metrics.DefaultLongThreshold,
	}
}

// Report is everything the presentation layer needs for one export.
type Report struct {
	Source         model.Source `json:"source"`
	Warnings       []string     `json:"warnings"`
	TotalEvents    int          `json:"total_events"`
	FilteredEvents int          `json:"filtered_events"`

	KPIs     model.KPIs     `json:"kpis"`
	Patterns model.Patterns `json:"patterns"`

	TopMeetings          []model.MeetingRow     `json:"top_meetings"`
	TopOrganizers        []model.OrganizerRow   `json:"top_organizers"`
	LongMeetings         []model.LongMeetingRow `json:"long_meetings"`
	WeekdayDistribution  []model.WeekdayRow     `json:"weekday_distribution"`
	DailyLoad            []model.DailyRow       `json:"daily_load"`
	DurationDistribution []float64              `json:"duration_distribution"`
	RecurrenceBreakdown  []model.RecurrenceRow  `json:"recurrence_breakdown"`

	Events []model.Event `json:"events"`
}

// Empty reports whether the export yielded no usable events.
func (r Report) Empty() bool {
	return r.TotalEvents == 0
}

// Run audits content. It never fails: problems surface as warnings and an
// empty report.
func Run(content []byte, filename string, opts Options) Report {
	if opts.TopN <= 0 {
		opts.TopN = metrics.DefaultTopN
	}
	if opts.LongThreshold <= 0 {
		opts.LongThreshold = metrics.DefaultLongThreshold
	}

	parsed := ingest.ParseCalendarFile(content, filename, opts.Source)
	events := filter.Apply(parsed.Events, opts.Filters)

	rep := Report{
		Source:         parsed.Source,
		Warnings:       parsed.Warnings,
		TotalEvents:    len(parsed.Events),
		FilteredEvents: len(events),

		KPIs:     metrics.CalculateKPIs(events),
		Patterns: metrics.DetectPatterns(events),

		TopMeetings:          metrics.TopMeetingsByTime(events, opts.TopN),
		TopOrganizers:        metrics.TopOrganizers(events, opts.TopN),
		LongMeetings:         metrics.LongMeetings(events, opts.LongThreshold),
		WeekdayDistribution:  metrics.WeekdayDistribution(events),
		DailyLoad:            metrics.DailyLoad(events),
		DurationDistribution: metrics.DurationDistribution(events),
		RecurrenceBreakdown:  metrics.RecurrenceBreakdown(events),

		Events: events,
	}

	appLog.Info("audit completed",
		"file", filename,
		"source", string(rep.Source),
		"total_events", rep.TotalEvents,
		"filtered_events", rep.FilteredEvents,
		"total_hours", rep.KPIs.TotalHours,
	)
	return rep
}

// ParseSource maps user input to a source override. Blank and "auto" mean
// detect from the file.
func ParseSource(s string) (model.Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "auto-detect":
		return model.SourceAuto, nil
	case "outlook":
		return model.SourceOutlook, nil
	case "google", "google calendar":
		return model.SourceGoogle, nil
	default:
		return model.SourceAuto, fmt.Errorf("unknown calendar source %q", s)
	}
}
