package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	applog "daygrid/internal/log"
	"daygrid/internal/model"
)

const defaultMaxOccurrences = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the timezone all occurrences are converted to.
	// Nil means time.Local.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the expansion window, inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps the expansion of a single event so a runaway
	// RRULE cannot flood the layout. Zero means defaultMaxOccurrences.
	MaxOccurrences int
}

// ExpandResult carries the expanded occurrences plus the UIDs that hit the
// per-event cap.
type ExpandResult struct {
	Occurrences []model.Occurrence
	Truncated   []string
}

// Expand turns ParsedEvents into concrete occurrences within the window:
// plain events pass through, RRULE events are expanded with EXDATE removals
// and RECURRENCE-ID overrides applied, and everything is normalized into
// the display timezone.
func Expand(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("ics: expansion range end before start")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	bases := make(map[string][]ParsedEvent)
	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		} else {
			bases[ev.UID] = append(bases[ev.UID], ev)
		}
	}

	for uid, baseEvents := range bases {
		truncated := false
		for _, ev := range baseEvents {
			occ, hitCap := expandOne(ev, overrides[uid], cfg)
			truncated = truncated || hitCap
			result.Occurrences = append(result.Occurrences, occ...)
		}
		if truncated {
			result.Truncated = append(result.Truncated, uid)
			applog.Error("ics expansion truncated", errors.New("occurrence cap reached"),
				"uid", uid, "cap", cfg.MaxOccurrences)
		}
	}

	return result, nil
}

func expandOne(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	if ev.RawRRule == "" {
		return expandSingle(ev, overrides, cfg), false
	}
	return expandRecurring(ev, overrides, cfg)
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	if !rangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}

	start, end := ev.Start, ev.End
	if o, ok := overrideFor(overrides, start); ok {
		start, end, ev = o.Start, o.End, o
	}
	return []model.Occurrence{makeOccurrence(ev, start, end, cfg.DisplayLocation)}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		applog.Error("ics rrule parse failed", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())
	starts := set.Between(rangeStart, rangeEnd, true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrences {
		starts = starts[:cfg.MaxOccurrences]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	duration := ev.End.Sub(ev.Start)

	for _, occStart := range starts {
		var occEnd time.Time
		if ev.AllDay {
			// All-day occupies [date 00:00, next day 00:00) in the
			// event's own timezone.
			occStart = time.Date(occStart.Year(), occStart.Month(), occStart.Day(),
				0, 0, 0, 0, occStart.Location())
			occEnd = occStart.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(duration)
		}

		src := ev
		if o, ok := overrideFor(overrides, occStart); ok {
			occStart, occEnd, src = o.Start, o.End, o
		}
		out = append(out, makeOccurrence(src, occStart, occEnd, cfg.DisplayLocation))
	}

	return out, hitCap
}

// overrideFor finds the override whose RECURRENCE-ID equals the given
// instance start, comparing in the instance's timezone.
func overrideFor(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, o := range overrides {
		if o.Recurrence == nil {
			continue
		}
		if o.Recurrence.In(start.Location()).Equal(start) {
			return o, true
		}
	}
	return ParsedEvent{}, false
}

func makeOccurrence(ev ParsedEvent, start, end time.Time, loc *time.Location) model.Occurrence {
	startLocal := start.In(loc)
	return model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: startLocal.Format(time.RFC3339Nano),
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       startLocal,
		End:         end.In(loc),
	}
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
