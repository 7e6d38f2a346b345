package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "calaudit/internal/log"
	"calaudit/internal/model"
)

// Result is the set of events extracted from one ICS payload. Skipped counts
// VEVENTs that could not be turned into an event.
type Result struct {
	Events  []model.Event
	Skipped int
}

var errMissingStart = errors.New("missing DTSTART")

// Parse extracts every VEVENT from an iCalendar document.
//
//   - Zone information (UTC suffix, TZID) is discarded; the wall-clock value
//     as written in the file is kept.
//   - DTSTART with VALUE=DATE, or without a time part, marks the event all-day.
//   - A VEVENT that fails extraction is skipped; the rest are still returned.
//   - RRULE is inspected for its frequency only and never expanded.
//
// A malformed content line inside one VEVENT costs only that event: when the
// calendar does not parse as a whole, each VEVENT block is parsed on its own.
// An error is returned only when the document itself cannot be parsed.
func Parse(text string) (Result, error) {
	cal, err := parseCalendar(text)
	if err != nil {
		blocks := veventBlocks(text)
		if len(blocks) == 0 || !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(text)), "BEGIN:VCALENDAR") {
			appLog.Error("ics parse failed", err)
			return Result{}, err
		}
		appLog.Debug("ics parse failed, parsing events one by one", "err", err.Error(), "blocks", len(blocks))
		return parseBlocks(blocks), nil
	}

	res := Result{Events: make([]model.Event, 0)}
	for _, comp := range cal.Events() {
		res.add(comp)
	}

	appLog.Debug("ics parse completed", "event_count", len(res.Events), "skipped", res.Skipped)
	return res, nil
}

func parseCalendar(text string) (*ical.Calendar, error) {
	return ical.ParseCalendarWithOptions(strings.NewReader(text),
		ical.WithUnknownPropertyHandler(ical.AcceptUnknownPropertyHandler))
}

func (r *Result) add(ve *ical.VEvent) {
	ev, err := parseVEvent(ve)
	if err != nil {
		appLog.Debug("ics vevent skipped", "err", err.Error())
		r.Skipped++
		return
	}
	r.Events = append(r.Events, ev)
}

// parseBlocks parses each VEVENT block inside a minimal calendar of its own.
func parseBlocks(blocks []string) Result {
	res := Result{Events: make([]model.Event, 0)}
	for _, block := range blocks {
		cal, err := parseCalendar("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//calaudit//EN\r\n" + block + "END:VCALENDAR\r\n")
		if err != nil || len(cal.Events()) != 1 {
			if err != nil {
				appLog.Debug("ics vevent skipped", "err", err.Error())
			}
			res.Skipped++
			continue
		}
		res.add(cal.Events()[0])
	}
	appLog.Debug("ics parse completed", "event_count", len(res.Events), "skipped", res.Skipped)
	return res
}

// veventBlocks cuts text into BEGIN:VEVENT..END:VEVENT blocks, CRLF-terminated.
// An unterminated trailing block is dropped.
func veventBlocks(text string) []string {
	var (
		blocks []string
		cur    strings.Builder
		inside bool
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		marker := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case !inside && marker == "BEGIN:VEVENT":
			inside = true
			cur.Reset()
			cur.WriteString(line + "\r\n")
		case inside && marker == "END:VEVENT":
			cur.WriteString(line + "\r\n")
			blocks = append(blocks, cur.String())
			inside = false
		case inside:
			cur.WriteString(line + "\r\n")
		}
	}
	return blocks
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	out.Subject = model.NoSubject
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && strings.TrimSpace(p.Value) != "" {
		out.Subject = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return out, errMissingStart
	}
	start, err := parseICSTime(dtStart.Value)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	out.AllDay = isDateOnly(dtStart)

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, err := parseICSTime(ve.GetProperty(ical.ComponentPropertyDtEnd).Value)
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	case ve.GetProperty(ical.ComponentPropertyDuration) != nil:
		d, err := ParseDuration(ve.GetProperty(ical.ComponentPropertyDuration).Value)
		if err != nil {
			return out, fmt.Errorf("DURATION: %w", err)
		}
		out.End = start.Add(d)
	default:
		out.End = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		out.Organizer = stripMailto(p.Value)
	}

	attendees := ve.GetProperties(ical.ComponentPropertyAttendee)
	if len(attendees) > 0 {
		names := make([]string, 0, len(attendees))
		for _, a := range attendees {
			names = append(names, stripMailto(a.Value))
		}
		out.Attendees = strings.Join(names, "; ")
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.Recurrence = Frequency(p.Value)
	}

	return out, nil
}

// isDateOnly reports whether a DTSTART property carries a date without time.
func isDateOnly(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSTime parses DATE and DATE-TIME values into a naive timestamp.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.Parse("20060102T150405", v)
	default:
		return time.Parse("20060102", v)
	}
}

func stripMailto(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= len("mailto:") && strings.EqualFold(v[:len("mailto:")], "mailto:") {
		return v[len("mailto:"):]
	}
	return v
}
