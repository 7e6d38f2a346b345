// Package filter narrows a normalized event table down to the meetings an
// audit should count.
package filter

import (
	"regexp"
	"strings"

	"calaudit/internal/model"
)

// Options selects which events are excluded. The zero value keeps everything.
type Options struct {
	ExcludeAllDay   bool     `json:"exclude_all_day" yaml:"exclude_all_day"`
	MinDuration     int      `json:"min_duration" yaml:"min_duration"`
	ExcludeKeywords []string `json:"exclude_keywords" yaml:"exclude_keywords"`
}

// Apply returns the events that survive opts, in their original order. Steps
// run in order: all-day exclusion, minimum duration, subject keywords. The
// input slice is not modified.
func Apply(events []model.Event, opts Options) []model.Event {
	keywords := keywordPattern(opts.ExcludeKeywords)

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if opts.ExcludeAllDay && ev.AllDay {
			continue
		}
		if opts.MinDuration > 0 && ev.DurationMinutes < float64(opts.MinDuration) {
			continue
		}
		if keywords != nil && keywords.MatchString(strings.ToLower(ev.Subject)) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// keywordPattern builds one alternation from the non-blank keywords, matched
// literally against lower-cased subjects. It returns nil when there is nothing
// to match.
func keywordPattern(keywords []string) *regexp.Regexp {
	parts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(k))
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(parts, "|"))
}

// ParseKeywords splits a comma-separated keyword list, dropping blanks.
func ParseKeywords(s string) []string {
	out := make([]string, 0)
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
