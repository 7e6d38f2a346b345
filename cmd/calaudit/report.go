package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"calaudit/internal/audit"
)

// writeReport renders rep as plain text tables.
func writeReport(out io.Writer, filename string, rep audit.Report) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "Calendar audit: %s (source: %s)\n", filename, rep.Source)
	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if rep.Empty() {
		fmt.Fprintln(w, "\nNo events found.")
		return w.Flush()
	}
	fmt.Fprintf(w, "Events: %d parsed, %d after filters\n", rep.TotalEvents, rep.FilteredEvents)

	k := rep.KPIs
	fmt.Fprintln(w, "\nSUMMARY")
	fmt.Fprintf(w, "Total hours\t%.1f\n", k.TotalHours)
	fmt.Fprintf(w, "Meetings\t%d\n", k.TotalMeetings)
	fmt.Fprintf(w, "Average duration (min)\t%.1f\n", k.AvgDuration)
	fmt.Fprintf(w, "Recurring share (%%)\t%.1f\n", k.RecurringPct)

	p := rep.Patterns
	fmt.Fprintln(w, "\nPATTERNS")
	if p.BusiestDay != "" {
		fmt.Fprintf(w, "Busiest day\t%s (%.1f h)\n", p.BusiestDay, p.BusiestDayHours)
	}
	fmt.Fprintf(w, "Short / medium / long\t%d / %d / %d\n", p.ShortMeetings, p.MediumMeetings, p.LongMeetings)
	fmt.Fprintf(w, "Hours in long meetings\t%.1f\n", p.LongMeetingHours)
	fmt.Fprintf(w, "Meetings per day (avg / max)\t%.1f / %d\n", p.AvgMeetingsPerDay, p.MaxMeetingsDay)
	fmt.Fprintf(w, "Hours per day (avg)\t%.1f\n", p.AvgHoursPerDay)
	fmt.Fprintf(w, "Most common duration (min)\t%d\n", p.MostCommonDuration)
	fmt.Fprintf(w, "Before 9:00 / from 17:00\t%d / %d\n", p.EarlyMeetings, p.LateMeetings)

	if len(rep.TopMeetings) > 0 {
		fmt.Fprintln(w, "\nTOP MEETINGS BY TIME")
		fmt.Fprintln(w, "Subject\tCount\tHours\tAvg min")
		for _, m := range rep.TopMeetings {
			fmt.Fprintf(w, "%s\t%d\t%.1f\t%d\n", m.Subject, m.Occurrences, m.TotalHours, m.AvgDuration)
		}
	}

	if len(rep.TopOrganizers) > 0 {
		fmt.Fprintln(w, "\nTOP ORGANIZERS")
		fmt.Fprintln(w, "Organizer\tMeetings\tHours")
		for _, o := range rep.TopOrganizers {
			fmt.Fprintf(w, "%s\t%d\t%.1f\n", o.Organizer, o.Meetings, o.TotalHours)
		}
	}

	if len(rep.LongMeetings) > 0 {
		fmt.Fprintln(w, "\nLONG MEETINGS")
		fmt.Fprintln(w, "Subject\tMinutes\tDate\tOrganizer")
		for _, l := range rep.LongMeetings {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", l.Subject, l.DurationMinutes, l.Date, l.Organizer)
		}
	}

	fmt.Fprintln(w, "\nBY WEEKDAY")
	fmt.Fprintln(w, "Weekday\tMeetings\tHours")
	for _, d := range rep.WeekdayDistribution {
		fmt.Fprintf(w, "%s\t%d\t%.1f\n", d.Weekday, d.MeetingCount, d.TotalHours)
	}

	if len(rep.RecurrenceBreakdown) > 0 {
		fmt.Fprintln(w, "\nRECURRENCE")
		fmt.Fprintln(w, "Rule\tMeetings\tHours")
		for _, r := range rep.RecurrenceBreakdown {
			fmt.Fprintf(w, "%s\t%d\t%.1f\n", r.Recurrence, r.Meetings, r.TotalHours)
		}
	}

	return w.Flush()
}
