package layout

import (
	"sort"

	"daygrid/internal/model"
)

// hairline nudges each box just below its slot boundary so the slot's rule
// line stays visible above it.
const hairline = 0.5

// Rect is the pixel rectangle assigned to one event for one pass.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Hidden marks a rect that lies entirely above or below the drawn
	// window. The rect is still reported so indexes stay aligned; the
	// caller hides the widget instead of skipping it.
	Hidden bool `json:"hidden"`
}

// Result is the outcome of one layout pass. Rects is index-aligned with
// Timed: Rects[i] belongs to Timed[i], which preserves the original relative
// order of the input. AllDay passes through untouched; all-day events take
// no part in overlap packing or vertical placement.
type Result struct {
	Timed  []model.Occurrence
	Rects  []Rect
	AllDay []model.Occurrence
}

// Layout computes one rectangle per timed event for a single day. Everything
// is recomputed from scratch; the previous pass's rectangles are superseded
// entirely. Identical inputs produce identical output.
//
// Degenerate intervals (end not after start) are not rejected; they yield a
// zero or negative height rect. Repairing such data here would only mask the
// producer's bug, so validation is the caller's precondition.
func Layout(events []model.Occurrence, window DayWindow, style Style, availableWidth float64) Result {
	var res Result
	for _, ev := range events {
		if ev.AllDay {
			res.AllDay = append(res.AllDay, ev)
		} else {
			res.Timed = append(res.Timed, ev)
		}
	}

	// Pack wants the events sorted by start. Sort a view of indexes, pack
	// that, then write each rect back to the event's original position.
	order := make([]int, len(res.Timed))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return res.Timed[order[i]].Start.Before(res.Timed[order[j]].Start)
	})

	sorted := make([]model.Occurrence, len(order))
	for i, idx := range order {
		sorted[i] = res.Timed[idx]
	}
	placements := Pack(sorted, style)

	axis := NewTimeAxis(window, style)
	rowHeight := axis.RowHeight()

	res.Rects = make([]Rect, len(res.Timed))
	for i, idx := range order {
		ev := sorted[i]
		p := placements[i]

		y := axis.TimeToY(ev.Start) + hairline
		height := axis.TimeToY(ev.End) - y - style.EventGap
		x := style.LeadingInset + style.LabelWidth +
			float64(p.Column)/float64(p.Columns)*availableWidth
		width := (availableWidth - x - style.TrailingInset) / float64(p.Columns)

		r := Rect{X: x, Y: y, Width: width, Height: height}
		if y+height < 0 || y > rowHeight {
			r.Hidden = true
		}
		res.Rects[idx] = r
	}

	return res
}
