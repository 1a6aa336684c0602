// Package render draws a laid-out day as an SVG document: a ruled hour
// axis on the left and one box per timed event, with overlapping events
// packed side by side by the layout engine.
package render

import (
	"fmt"
	"html"
	"strings"

	"daygrid/internal/layout"
	"daygrid/internal/model"
)

const (
	allDayRowHeight = 24.0
	fontFamily      = "Helvetica, Arial, sans-serif"
)

// eventBox is the presentation widget for one timed event. Boxes are
// recycled across render passes through the widget pool; the renderer
// overwrites every field before use, as the pool contract requires.
type eventBox struct {
	rect  layout.Rect
	title string
	clock string
}

// Renderer turns occurrences into SVG day views. Not safe for concurrent
// use; one renderer belongs to one rendering goroutine.
type Renderer struct {
	style layout.Style
	width float64
	boxes *layout.Pool[*eventBox]
}

// New creates a renderer for the given style and canvas width in pixels.
func New(style layout.Style, width float64) *Renderer {
	return &Renderer{
		style: style,
		width: width,
		boxes: layout.NewPool(func() *eventBox { return &eventBox{} }),
	}
}

// RenderDay lays out the given occurrences for window and returns a full
// SVG document. All-day events are drawn as a banner above the hour grid;
// they take no part in the vertical placement below it.
func (r *Renderer) RenderDay(window layout.DayWindow, events []model.Occurrence) string {
	res := layout.Layout(events, window, r.style, r.width)

	axis := layout.NewTimeAxis(window, r.style)
	gridHeight := axis.RowHeight()
	bannerHeight := allDayRowHeight * float64(len(res.AllDay))
	totalHeight := gridHeight + bannerHeight

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, r.width, totalHeight, r.width, totalHeight)

	r.writeAllDayBanner(&b, res.AllDay)

	// The hour grid is shifted down by the banner height as one group.
	fmt.Fprintf(&b, "<g transform=\"translate(0,%.1f)\">\n", bannerHeight)
	r.writeHourRules(&b, axis)
	r.writeEventBoxes(&b, res)
	b.WriteString("</g>\n</svg>\n")

	return b.String()
}

func (r *Renderer) writeAllDayBanner(b *strings.Builder, allDay []model.Occurrence) {
	for i, occ := range allDay {
		y := float64(i) * allDayRowHeight
		fmt.Fprintf(b,
			`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="3" fill="#e8eefc" stroke="#9db5e8"/>`+"\n",
			r.style.LeadingInset+2, y+2,
			r.width-r.style.LeadingInset-r.style.TrailingInset-4, allDayRowHeight-4)
		fmt.Fprintf(b,
			`<text x="%.1f" y="%.1f" font-family="%s" font-size="12">%s</text>`+"\n",
			r.style.LeadingInset+8, y+allDayRowHeight-8, fontFamily, html.EscapeString(occ.Summary))
	}
}

func (r *Renderer) writeHourRules(b *strings.Builder, axis layout.TimeAxis) {
	lineStart := r.style.LeadingInset + r.style.LabelWidth
	lineEnd := r.width - r.style.TrailingInset

	for h := 0; h <= axis.Window.TotalHours; h++ {
		y := axis.VerticalInset + float64(h)*axis.HourHeight
		fmt.Fprintf(b,
			`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#dddddd" stroke-width="1"/>`+"\n",
			lineStart, y, lineEnd, y)
		fmt.Fprintf(b,
			`<text x="%.1f" y="%.1f" font-family="%s" font-size="10" fill="#888888">%02d:00</text>`+"\n",
			r.style.LeadingInset, y+3, fontFamily, (axis.Window.StartHour+h)%24)
	}
}

func (r *Renderer) writeEventBoxes(b *strings.Builder, res layout.Result) {
	// One widget per visible rect, recycled between passes.
	boxes := make([]*eventBox, 0, len(res.Rects))
	defer func() { r.boxes.Release(boxes...) }()

	for i, rect := range res.Rects {
		if rect.Hidden {
			continue
		}
		occ := res.Timed[i]

		box := r.boxes.Acquire()
		box.rect = rect
		box.title = occ.Summary
		box.clock = occ.Start.Format("15:04") + "–" + occ.End.Format("15:04")
		boxes = append(boxes, box)

		box.write(b)
	}
}

func (box *eventBox) write(b *strings.Builder) {
	r := box.rect
	fmt.Fprintf(b,
		`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="2" fill="#d7e6d5" stroke="#6b9362"/>`+"\n",
		r.X, r.Y, r.Width, r.Height)

	// Skip labels the box is too small to hold.
	if r.Height >= 14 {
		fmt.Fprintf(b,
			`<text x="%.1f" y="%.1f" font-family="%s" font-size="11">%s</text>`+"\n",
			r.X+4, r.Y+12, fontFamily, html.EscapeString(box.title))
	}
	if r.Height >= 28 {
		fmt.Fprintf(b,
			`<text x="%.1f" y="%.1f" font-family="%s" font-size="9" fill="#555555">%s</text>`+"\n",
			r.X+4, r.Y+24, fontFamily, box.clock)
	}
}
