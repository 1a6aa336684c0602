package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daygrid/internal/model"
)

func bareStyle() Style {
	return Style{
		HourHeight:   60,
		SplitMinutes: 15,
	}
}

func TestLayoutScenario(t *testing.T) {
	events := []model.Occurrence{
		timed(9, 0, 10, 0),
		timed(9, 30, 10, 30),
		timed(11, 0, 12, 0),
	}

	res := Layout(events, FullDay(testDay), bareStyle(), 200)
	require.Len(t, res.Rects, 3)
	require.Len(t, res.Timed, 3)
	assert.Empty(t, res.AllDay)

	a, b, c := res.Rects[0], res.Rects[1], res.Rects[2]

	assert.InDelta(t, 540, a.Y, 1)
	assert.InDelta(t, 60, a.Height, 1)
	assert.InDelta(t, 570, b.Y, 1)
	assert.InDelta(t, 60, b.Height, 1)
	assert.InDelta(t, 660, c.Y, 1)
	assert.InDelta(t, 60, c.Height, 1)

	// A and B split the width; C stands alone at full width.
	assert.Equal(t, 0.0, a.X)
	assert.Equal(t, 100.0, a.Width)
	assert.Equal(t, 100.0, b.X)
	assert.Equal(t, 0.0, c.X)
	assert.Equal(t, 200.0, c.Width)

	for _, r := range res.Rects {
		assert.False(t, r.Hidden)
	}
}

func TestLayoutEmpty(t *testing.T) {
	res := Layout(nil, FullDay(testDay), DefaultStyle(), 300)
	assert.Empty(t, res.Rects)
	assert.Empty(t, res.Timed)
	assert.Empty(t, res.AllDay)
}

func TestLayoutIdempotent(t *testing.T) {
	events := []model.Occurrence{
		timed(8, 0, 9, 30),
		timed(9, 0, 10, 0),
		timed(14, 15, 15, 45),
	}
	style := DefaultStyle()

	first := Layout(events, FullDay(testDay), style, 480)
	second := Layout(events, FullDay(testDay), style, 480)
	assert.Equal(t, first, second)
}

func TestLayoutAllDayPassThrough(t *testing.T) {
	allDay := model.Occurrence{
		UID:    "holiday",
		AllDay: true,
		Start:  testDay,
		End:    testDay.AddDate(0, 0, 1),
	}
	events := []model.Occurrence{allDay, timed(9, 0, 10, 0)}

	res := Layout(events, FullDay(testDay), DefaultStyle(), 300)

	require.Len(t, res.AllDay, 1)
	assert.Equal(t, "holiday", res.AllDay[0].UID)
	require.Len(t, res.Timed, 1)
	require.Len(t, res.Rects, 1)
}

func TestLayoutPreservesInputOrder(t *testing.T) {
	// Packing sorts by start internally, but rects must come back aligned
	// with the original relative order of the timed events.
	events := []model.Occurrence{
		timed(14, 0, 15, 0),
		timed(9, 0, 10, 0),
		timed(11, 0, 12, 0),
	}

	res := Layout(events, FullDay(testDay), bareStyle(), 200)
	require.Len(t, res.Rects, 3)

	axis := NewTimeAxis(FullDay(testDay), bareStyle())
	for i, ev := range res.Timed {
		assert.Equal(t, events[i].UID, ev.UID)
		assert.InDelta(t, axis.TimeToY(ev.Start), res.Rects[i].Y, 1)
	}
}

func TestLayoutHiddenOutsideWindow(t *testing.T) {
	window := DayWindow{Date: testDay, StartHour: 8, TotalHours: 12}
	events := []model.Occurrence{
		timed(5, 0, 6, 0),  // entirely above the 08:00 start
		timed(9, 0, 10, 0), // inside
		timed(21, 0, 22, 0),
	}

	res := Layout(events, window, bareStyle(), 200)
	require.Len(t, res.Rects, 3)

	assert.True(t, res.Rects[0].Hidden)
	assert.False(t, res.Rects[1].Hidden)
	assert.True(t, res.Rects[2].Hidden)
}

func TestLayoutDegenerateInterval(t *testing.T) {
	// End before start is a caller error; the result is a degenerate rect,
	// not a panic or a silent repair.
	events := []model.Occurrence{
		{UID: "broken", Start: at(10, 0), End: at(10, 0)},
	}

	style := bareStyle()
	style.EventGap = 1

	res := Layout(events, FullDay(testDay), style, 200)
	require.Len(t, res.Rects, 1)
	assert.LessOrEqual(t, res.Rects[0].Height, 0.0)
}

func TestLayoutEventGapTrimsHeight(t *testing.T) {
	style := bareStyle()
	style.EventGap = 4

	res := Layout([]model.Occurrence{timed(9, 0, 10, 0)}, FullDay(testDay), style, 200)
	require.Len(t, res.Rects, 1)
	assert.InDelta(t, 60-4, res.Rects[0].Height, 1)
}

func TestLayoutMidnightCrossingEvent(t *testing.T) {
	ev := model.Occurrence{
		UID:   "late",
		Start: at(23, 0),
		End:   time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC),
	}

	res := Layout([]model.Occurrence{ev}, FullDay(testDay), bareStyle(), 200)
	require.Len(t, res.Rects, 1)
	assert.InDelta(t, 120, res.Rects[0].Height, 2)
}
