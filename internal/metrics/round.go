// Package metrics computes KPIs, ranked tables, distributions and heuristic
// patterns from a filtered event table. Every function is a pure projection
// and returns a zero result for an empty table.
package metrics

import (
	"math"

	"calaudit/internal/model"
)

// round1 rounds half away from zero to one decimal.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func hours(minutes float64) float64 {
	return round1(minutes / 60)
}

func sumMinutes(events []model.Event) float64 {
	var sum float64
	for _, ev := range events {
		sum += ev.DurationMinutes
	}
	return sum
}
