package ics

import (
	"sort"
	"time"

	"daygrid/internal/model"
)

// SelectDay returns the occurrences intersecting the calendar day of date,
// in date's location, sorted ascending by start time. The sorted order is
// what the layout packer requires. Events crossing midnight into or out of
// the day are included; the time axis projects their out-of-day portion
// beyond the drawn window rather than clipping them.
func SelectDay(occs []model.Occurrence, date time.Time) []model.Occurrence {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	out := make([]model.Occurrence, 0)
	for _, o := range occs {
		if o.Overlaps(dayStart, dayEnd) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
