package layout

import "fmt"

// PackPolicy selects how events are clustered into overlap groups.
type PackPolicy int

const (
	// PackStack clusters events only when their intervals truly touch.
	PackStack PackPolicy = iota
	// PackCascade clusters events whose start times fall into the same
	// SplitMinutes bucket, even without a real interval overlap.
	PackCascade
)

// ParsePolicy maps a config string to a PackPolicy. Unknown values fall
// back to stack, the default.
func ParsePolicy(s string) PackPolicy {
	if s == "cascade" {
		return PackCascade
	}
	return PackStack
}

func (p PackPolicy) String() string {
	if p == PackCascade {
		return "cascade"
	}
	return "stack"
}

// Style holds the pixel metrics for one layout pass. It is installed by the
// caller before the pass and must not change while the pass runs.
type Style struct {
	HourHeight    float64 // pixels per hour
	VerticalInset float64 // padding above the first and below the last hour
	LeadingInset  float64
	TrailingInset float64
	LabelWidth    float64 // horizontal space reserved for hour labels
	EventGap      float64 // pixels trimmed from each box for separation
	SplitMinutes  int     // cascade bucket size in minutes
	Policy        PackPolicy
}

// DefaultStyle returns the metrics used when the config file leaves the
// style section empty.
func DefaultStyle() Style {
	return Style{
		HourHeight:    60,
		VerticalInset: 10,
		LeadingInset:  0,
		TrailingInset: 8,
		LabelWidth:    53,
		EventGap:      1,
		SplitMinutes:  15,
		Policy:        PackStack,
	}
}

// Validate rejects metrics the geometry divides by. Catching these once at
// configuration time is cheaper than chasing NaN rectangles later.
func (s Style) Validate() error {
	if s.HourHeight <= 0 {
		return fmt.Errorf("layout: hour height must be positive, got %v", s.HourHeight)
	}
	if s.SplitMinutes <= 0 {
		return fmt.Errorf("layout: split minute interval must be positive, got %d", s.SplitMinutes)
	}
	if s.EventGap < 0 {
		return fmt.Errorf("layout: event gap must not be negative, got %v", s.EventGap)
	}
	return nil
}

// Validate rejects windows outside the 0-23 / 1-24 bounds.
func (w DayWindow) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 {
		return fmt.Errorf("layout: start hour must be in [0,23], got %d", w.StartHour)
	}
	if w.TotalHours < 1 || w.TotalHours > 24 {
		return fmt.Errorf("layout: total hours must be in [1,24], got %d", w.TotalHours)
	}
	return nil
}
