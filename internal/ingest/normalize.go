package ingest

import (
	"strings"

	"calaudit/internal/model"
)

// TableNormalizer maps a source-specific CSV table onto canonical events.
// Start and End are left zero where the source values could not be parsed.
type TableNormalizer interface {
	Normalize(t *Table) []model.Event
}

var normalizers = map[model.Source]TableNormalizer{
	model.SourceOutlook: outlookNormalizer{},
	model.SourceGoogle:  googleNormalizer{},
}

// NormalizerFor returns the normalizer registered for src.
func NormalizerFor(src model.Source) (TableNormalizer, bool) {
	n, ok := normalizers[src]
	return n, ok
}

type outlookNormalizer struct{}

func (outlookNormalizer) Normalize(t *Table) []model.Event {
	c := outlookColumns.resolve(t)
	out := make([]model.Event, 0, len(t.Rows))
	for _, row := range t.Rows {
		ev := baseEvent(row, c)
		ev.Organizer = cell(row, c.organizer)

		switch {
		case c.attendees >= 0 && c.optional >= 0:
			ev.Attendees = strings.Trim(cell(row, c.attendees)+"; "+cell(row, c.optional), "; ")
		case c.attendees >= 0:
			ev.Attendees = cell(row, c.attendees)
		}
		out = append(out, ev)
	}
	return out
}

type googleNormalizer struct{}

// Google exports carry neither organizer nor attendee columns.
func (googleNormalizer) Normalize(t *Table) []model.Event {
	c := googleColumns.resolve(t)
	out := make([]model.Event, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, baseEvent(row, c))
	}
	return out
}

// baseEvent fills the fields both CSV exporters share.
func baseEvent(row []string, c resolved) model.Event {
	subject := cell(row, c.subject)
	if strings.TrimSpace(subject) == "" {
		subject = model.NoSubject
	}

	ev := model.Event{
		Subject:  subject,
		AllDay:   ParseBool(cell(row, c.allDay)),
		Location: cell(row, c.location),
	}
	if t, ok := ParseDateTime(cell(row, c.startDate), cell(row, c.startTime)); ok {
		ev.Start = t
	}
	if t, ok := ParseDateTime(cell(row, c.endDate), cell(row, c.endTime)); ok {
		ev.End = t
	}
	return ev
}
