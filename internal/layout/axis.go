package layout

import (
	"math"
	"time"
)

// DayWindow is the date and hour range one layout pass renders. Only the
// calendar date of Date matters; its clock time is ignored. StartHour lets a
// view begin somewhere other than midnight (e.g. an 08:00-20:00 work day).
type DayWindow struct {
	Date       time.Time
	StartHour  int // 0-23
	TotalHours int // 1-24
}

// FullDay returns the default window: the whole 24-hour day containing date.
func FullDay(date time.Time) DayWindow {
	return DayWindow{Date: date, StartHour: 0, TotalHours: 24}
}

// TimeAxis maps between clock time and vertical pixel position inside one
// DayWindow. Both directions are pure functions of the axis fields; TimeToY
// never fails and YToTime is its inverse for any y inside the drawn range.
type TimeAxis struct {
	Window        DayWindow
	HourHeight    float64
	VerticalInset float64
}

// NewTimeAxis builds an axis for window using the vertical metrics of style.
func NewTimeAxis(window DayWindow, style Style) TimeAxis {
	return TimeAxis{
		Window:        window,
		HourHeight:    style.HourHeight,
		VerticalInset: style.VerticalInset,
	}
}

// TimeToY converts t to a vertical offset. Times on the day before or after
// the window's date project above y=0 or below RowHeight instead of being
// clipped, so an event crossing midnight keeps a positive height.
func (a TimeAxis) TimeToY(t time.Time) float64 {
	hour := float64(t.Hour()-a.Window.StartHour) + float64(t.Minute())/60
	day := float64(a.dayOffset(t)) * float64(a.Window.TotalHours)
	return a.VerticalInset + (hour+day)*a.HourHeight
}

// YToTime converts a vertical offset back to a timestamp on the window's
// date, with seconds zeroed. Offsets beyond the ends of the day wrap into
// the neighboring day, mirroring TimeToY's day projection.
func (a TimeAxis) YToTime(y float64) time.Time {
	raw := (y-a.VerticalInset)/a.HourHeight + float64(a.Window.StartHour)
	hour := int(math.Floor(raw))
	minute := int(math.Round((raw - math.Floor(raw)) * 60))
	if minute < 0 {
		minute = 0
	}
	if minute > 59 {
		minute = 59
	}

	date := a.Window.Date
	if hour > 23 {
		hour -= 24
		date = date.AddDate(0, 0, 1)
	}
	if hour < 0 {
		hour += 24
		date = date.AddDate(0, 0, -1)
	}
	if hour > 23 {
		hour = 23
	}
	if hour < 0 {
		hour = 0
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// RowHeight is the full pixel height needed to draw the window. Callers size
// their drawing surface with it.
func (a TimeAxis) RowHeight() float64 {
	return a.VerticalInset*2 + a.HourHeight*float64(a.Window.TotalHours)
}

// dayOffset compares the calendar date of t against the window's date.
// The comparison is on the date component only, never the full timestamp.
func (a TimeAxis) dayOffset(t time.Time) int {
	ty, tm, td := t.Date()
	wy, wm, wd := a.Window.Date.Date()
	switch {
	case ty == wy && tm == wm && td == wd:
		return 0
	case ty < wy || (ty == wy && (tm < wm || (tm == wm && td < wd))):
		return -1
	default:
		return 1
	}
}
