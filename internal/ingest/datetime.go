package ingest

import (
	"strings"
	"time"
)

// Date layouts in trial order. Month-first comes before day-first, so a date
// such as 03/04/2024 always reads as March 4th.
var dateLayouts = []string{
	"1/2/2006", // MM/DD/YYYY
	"2006-1-2", // YYYY-MM-DD
	"2/1/2006", // DD/MM/YYYY
	"1-2-2006", // MM-DD-YYYY
	"1/2/06",   // MM/DD/YY
	"2/1/06",   // DD/MM/YY
	"2006/1/2", // YYYY/MM/DD
}

// Time layouts in trial order; the date-only attempt follows them.
var timeLayouts = []string{
	"3:4:5 PM", // 12-hour with seconds
	"3:4 PM",   // 12-hour
	"15:4:5",   // 24-hour with seconds
	"15:4",     // 24-hour
}

// ParseDateTime combines a date string and an optional time string into a naive
// timestamp. Every date layout is tried with every time layout and then on its
// own; the first full match wins. ok is false when date is blank or nothing
// matched.
//
// A time string that fits none of the time layouts does not fail the parse:
// the date-only attempt still succeeds and yields midnight.
func ParseDateTime(date, clock string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	// Layout "PM" only matches upper case.
	clock = strings.ToUpper(strings.TrimSpace(clock))

	for _, dl := range dateLayouts {
		if clock != "" {
			for _, tl := range timeLayouts {
				if t, err := time.Parse(dl+" "+tl, date+" "+clock); err == nil {
					return t, true
				}
			}
		}
		if t, err := time.Parse(dl, date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBool accepts the usual spreadsheet spellings of true; everything else,
// including blank, is false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "1", "on":
		return true
	default:
		return false
	}
}
