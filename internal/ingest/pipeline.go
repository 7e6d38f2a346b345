package ingest

import (
	"fmt"
	"strings"

	"calaudit/internal/ics"
	appLog "calaudit/internal/log"
	"calaudit/internal/model"
)

// Result is the outcome of ingesting one export. Problems are reported as
// human-readable warnings; Events is never nil.
type Result struct {
	Events   []model.Event
	Source   model.Source
	Warnings []string
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ParseCalendarFile detects the file type, parses and normalizes content, then
// drops rows without valid timestamps and rows with negative duration.
// override forces a CSV source and is ignored for ICS.
func ParseCalendarFile(content []byte, filename string, override model.Source) Result {
	res := Result{Events: []model.Event{}, Warnings: []string{}}

	var events []model.Event
	var ok bool
	switch DetectFileType(content, filename) {
	case FileICS:
		events, ok = parseICS(content, &res)
	default:
		events, ok = parseCSV(content, override, &res)
	}
	if !ok {
		appLog.Info("calendar file yielded no events", "file", filename, "source", string(res.Source), "warnings", len(res.Warnings))
		return res
	}

	valid := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.HasTimes() {
			valid = append(valid, ev)
		}
	}
	if dropped := len(events) - len(valid); dropped > 0 {
		res.warn("Dropped %d rows with invalid dates", dropped)
	}

	derived := Derive(valid)
	kept := make([]model.Event, 0, len(derived))
	for _, ev := range derived {
		if ev.DurationMinutes >= 0 {
			kept = append(kept, ev)
		}
	}
	if dropped := len(derived) - len(kept); dropped > 0 {
		res.warn("Dropped %d rows with invalid duration", dropped)
	}

	res.Events = kept
	appLog.Info("calendar file parsed",
		"file", filename,
		"source", string(res.Source),
		"rows", len(events),
		"events", len(kept),
		"warnings", len(res.Warnings),
	)
	return res
}

// ParseCalendarCSV parses content without a filename hint.
func ParseCalendarCSV(content []byte, override model.Source) Result {
	return ParseCalendarFile(content, "", override)
}

func parseICS(content []byte, res *Result) ([]model.Event, bool) {
	res.Source = model.SourceICS

	text, enc, ok := decodeText(content)
	if !ok {
		res.warn("Could not decode ICS file")
		return nil, false
	}
	appLog.Debug("ics decoded", "encoding", enc, "bytes", len(content))

	parsed, err := ics.Parse(text)
	if err != nil {
		res.warn("Error parsing ICS file: %v", err)
		return nil, false
	}
	if len(parsed.Events) == 0 {
		res.warn("No events found in ICS file")
		return nil, false
	}
	return parsed.Events, true
}

func parseCSV(content []byte, override model.Source, res *Result) ([]model.Event, bool) {
	res.Source = model.SourceUnknown

	text, enc, ok := decodeText(content)
	if !ok {
		res.warn("Could not decode CSV file with any supported encoding")
		return nil, false
	}
	appLog.Debug("csv decoded", "encoding", enc, "bytes", len(content))

	table, err := ReadTable(strings.NewReader(text))
	if err != nil {
		res.warn("Error reading CSV: %v", err)
		return nil, false
	}
	if table.Empty() {
		res.warn("CSV file is empty")
		return nil, false
	}

	detected := DetectCSVSource(table.Header)
	src := detected
	if override != model.SourceAuto {
		src = override
		if src != detected {
			res.warn("Using manual override: %s (auto-detected: %s)", src, detected)
		}
	}

	n, found := NormalizerFor(src)
	if !found {
		res.warn("Could not detect calendar source. Attempting Google format.")
		n, src = normalizers[model.SourceGoogle], model.SourceGoogle
	}
	res.Source = src
	return n.Normalize(table), true
}
