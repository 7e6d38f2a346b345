package ics

import (
	"strings"

	"github.com/teambition/rrule-go"
)

// Frequency returns the FREQ of an RRULE value (e.g. "WEEKLY"), or "" when the
// rule does not parse. The rule is never expanded.
func Frequency(rule string) string {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return ""
	}
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return ""
	}
	return opt.Freq.String()
}
