package layout

import (
	"time"

	"daygrid/internal/model"
)

// Placement describes where one event sits inside its overlap group.
// Events sharing a Group draw side by side: Column indexes the slot in
// arrival order and Columns is the group size, so every member gets an
// equal share of the width. No attempt is made at a tighter interval-graph
// coloring; equal columns keep the result predictable and readable.
type Placement struct {
	Group   int
	Column  int
	Columns int
}

// Pack partitions a start-sorted list of timed occurrences into overlap
// groups and assigns each a column. The input must already be sorted
// ascending by start time and must not contain all-day events; Pack does
// not sort or filter, that is the caller's contract.
//
// The stack policy walks the list keeping one open cluster and compares
// each event against just two members: the one with the longest duration
// and the most recently added one. If either touches the new event, the
// event joins; otherwise the cluster is closed and a new one starts. The
// two-member heuristic keeps the walk linear instead of checking every
// open member pairwise.
//
// The cascade policy instead quantizes the cluster's first start time into
// SplitMinutes buckets and admits any event starting in the same bucket,
// grouping events that are merely close in time.
func Pack(events []model.Occurrence, style Style) []Placement {
	placements := make([]Placement, len(events))
	if len(events) == 0 {
		return placements
	}

	var (
		group   int
		first   = 0 // index of the open cluster's first member
		longest = 0 // member with the longest duration
		latest  = 0 // most recently added member
	)

	flush := func(end int) {
		n := end - first
		for i := first; i < end; i++ {
			placements[i] = Placement{Group: group, Column: i - first, Columns: n}
		}
		group++
	}

	for i := 1; i < len(events); i++ {
		ev := events[i]

		var join bool
		if style.Policy == PackCascade {
			join = sameBucket(events[first].Start, ev.Start, style.SplitMinutes)
		} else {
			join = touches(events[longest], ev, style.EventGap) ||
				touches(events[latest], ev, style.EventGap)
		}

		if join {
			if ev.Duration() > events[longest].Duration() {
				longest = i
			}
			latest = i
			continue
		}

		flush(i)
		first, longest, latest = i, i, i
	}
	flush(len(events))

	return placements
}

// touches reports whether two intervals should share columns. A true
// overlap always counts. Exact back-to-back adjacency counts only when no
// event gap is configured: with a gap the boundary pixel already separates
// the boxes, so forcing a column split would waste width.
func touches(a, b model.Occurrence, gap float64) bool {
	if a.Start.Before(b.End) && b.Start.Before(a.End) {
		return true
	}
	if gap > 0 {
		return false
	}
	return a.End.Equal(b.Start) || b.End.Equal(a.Start)
}

func sameBucket(anchor, t time.Time, minutes int) bool {
	bucket := time.Duration(minutes) * time.Minute
	return anchor.Truncate(bucket).Equal(t.Truncate(bucket))
}
