package ingest

import (
	"strings"
	"unicode/utf8"

	"calaudit/internal/model"
)

// FileType is the container format of an uploaded export.
type FileType string

const (
	FileCSV FileType = "csv"
	FileICS FileType = "ics"
)

// sniffLen is how much of the payload is inspected when the filename does not
// decide the type.
const sniffLen = 500

// Signature columns whose presence points at a specific exporter.
var (
	outlookSignature = []string{"Organizer", "Required Attendees", "Meeting Organizer"}
	googleSignature  = []string{"Description", "Private"}
)

// DetectFileType classifies content as CSV or ICS. The filename extension wins
// when present; otherwise the payload is sniffed for BEGIN:VCALENDAR. Anything
// undecidable is treated as CSV.
func DetectFileType(content []byte, filename string) FileType {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".ics") {
		return FileICS
	}
	if strings.HasSuffix(lower, ".csv") {
		return FileCSV
	}

	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if strings.HasPrefix(strings.TrimSpace(permissiveUTF8(head)), "BEGIN:VCALENDAR") {
		return FileICS
	}
	return FileCSV
}

// permissiveUTF8 decodes b as UTF-8, dropping invalid sequences.
func permissiveUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r != utf8.RuneError || size > 1 {
			sb.WriteRune(r)
		}
		b = b[size:]
	}
	return sb.String()
}

// DetectCSVSource guesses the exporter from header names. Names are trimmed and
// then compared exactly.
func DetectCSVSource(header []string) model.Source {
	columns := make(map[string]struct{}, len(header))
	for _, h := range header {
		columns[strings.TrimSpace(h)] = struct{}{}
	}
	has := func(name string) bool {
		_, ok := columns[name]
		return ok
	}

	outlook, google := 0, 0
	for _, c := range outlookSignature {
		if has(c) {
			outlook++
		}
	}
	for _, c := range googleSignature {
		if has(c) {
			google++
		}
	}

	switch {
	case outlook > google:
		return model.SourceOutlook
	case google > outlook:
		return model.SourceGoogle
	case has("Subject") && has("Start Date"):
		// Heuristic tie-break kept for compatibility with older exports.
		return model.SourceGoogle
	default:
		return model.SourceUnknown
	}
}
