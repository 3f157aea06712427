// Package timeline maps calendar dates onto a horizontal axis: it resolves
// the visible window for a set of items, produces axis markers, and converts
// between dates, percentage positions and pixel drags.
//
// All ranges are inclusive on both ends. Day arithmetic is done on calendar
// dates, so DST transitions never produce fractional days.
package timeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"planview/internal/layout"
)

// ErrEmptyRange is returned when a range ends before it starts.
var ErrEmptyRange = errors.New("timeline: range is empty")

// Granularity is the calendar unit for axis markers and drag snapping.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity accepts day/week/month. Empty means day.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case "", Day:
		return Day, nil
	case Week:
		return Week, nil
	case Month:
		return Month, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (want day, week or month)", s)
	}
}

// Range is an inclusive date window.
type Range struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the range holds at least one day.
func (r Range) Valid() bool {
	return !r.Start.IsZero() && !r.End.Before(r.Start)
}

// Days is the inclusive number of calendar days in the range.
func (r Range) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Contains reports whether t's calendar day lies inside the range.
func (r Range) Contains(t time.Time) bool {
	day := dateOf(t, r.Start.Location())
	return !day.Before(dateOf(r.Start, r.Start.Location())) && !day.After(dateOf(r.End, r.Start.Location()))
}

// Clamp moves t into the range.
func (r Range) Clamp(t time.Time) time.Time {
	if t.Before(r.Start) {
		return r.Start
	}
	if t.After(r.End) {
		return r.End
	}
	return t
}

func (r Range) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

// Align describes how a range is snapped outward.
type Align struct {
	week      bool
	weekStart time.Weekday
}

// AlignMonth snaps to whole months (Gantt).
var AlignMonth = Align{}

// AlignWeek snaps to whole weeks beginning on weekStart (calendar grids).
func AlignWeek(weekStart time.Weekday) Align {
	return Align{week: true, weekStart: weekStart}
}

// Apply snaps r outward.
func (a Align) Apply(r Range) Range {
	if a.week {
		return Range{Start: StartOfWeek(r.Start, a.weekStart), End: EndOfWeek(r.End, a.weekStart)}
	}
	return Range{Start: StartOfMonth(r.Start), End: EndOfMonth(r.End)}
}

// ResolveRange returns the window covering every item, snapped outward by
// align. Without items the window is the month containing now (snapped by
// align as well).
func ResolveRange(items []layout.Item, now time.Time, align Align) Range {
	start, end, ok := layout.Span(items)
	if !ok {
		return align.Apply(Range{Start: StartOfMonth(now), End: EndOfMonth(now)})
	}
	return align.Apply(Range{Start: start, End: end})
}

// StartOfMonth is midnight on the first of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth is midnight on the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}

// StartOfWeek is midnight on the most recent weekStart on or before t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := dateOf(t, t.Location())
	back := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -back)
}

// EndOfWeek is midnight on the last day of the week containing t.
func EndOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	return StartOfWeek(t, weekStart).AddDate(0, 0, 6)
}

// StartOfISOWeek is the Monday of t's ISO week.
func StartOfISOWeek(t time.Time) time.Time {
	return StartOfWeek(t, time.Monday)
}

// DaysBetween counts calendar days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
