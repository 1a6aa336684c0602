package model

import "time"

// Event is a logical calendar event before recurrence expansion.
type Event struct {
	SourceID string // calendar source ID (config ICS ID)
	UID      string // iCalendar UID

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Original start/end in the event's own timezone.
	Start time.Time
	End   time.Time
}

// Occurrence is one concrete instance of an event after recurrence
// expansion and timezone normalization. The layout core treats it as an
// immutable descriptor: it reads Start, End and AllDay and never writes.
type Occurrence struct {
	SourceID string
	UID      string

	// InstanceKey identifies a single occurrence of a recurring event,
	// derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End in the configured display timezone.
	Start time.Time
	End   time.Time
}

// Duration returns End - Start. Degenerate descriptors (End before Start)
// yield a negative duration; validating event data is the producer's job.
func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Overlaps reports whether the occurrence's interval intersects [start, end)
// with at least one instant in common. Exact adjacency does not count.
func (o Occurrence) Overlaps(start, end time.Time) bool {
	return o.Start.Before(end) && start.Before(o.End)
}
