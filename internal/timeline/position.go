package timeline

import (
	"math"
	"time"
)

// Position places a bar on the axis, both fields in percent of the range.
type Position struct {
	Offset float64
	Width  float64
}

// ToPosition maps the inclusive day range [start, end] onto r. The item is
// clamped into r first and is never narrower than one day.
//
// r must be valid; use CheckedToPosition when that is not already known.
func ToPosition(start, end time.Time, r Range) Position {
	total := float64(r.Days())

	start = r.Clamp(start)
	end = r.Clamp(end)
	if end.Before(start) {
		end = start
	}

	offset := float64(DaysBetween(r.Start, start))
	span := float64(DaysBetween(start, end) + 1)

	return Position{
		Offset: offset / total * 100,
		Width:  math.Max(span, 1) / total * 100,
	}
}

// CheckedToPosition is ToPosition with a range check.
func CheckedToPosition(start, end time.Time, r Range) (Position, error) {
	if !r.Valid() {
		return Position{}, ErrEmptyRange
	}
	return ToPosition(start, end, r), nil
}

// UnitsInRange counts the days, ISO weeks or months touched by r, inclusive.
func UnitsInRange(r Range, g Granularity) int {
	if !r.Valid() {
		return 0
	}
	switch g {
	case Week:
		return DaysBetween(StartOfISOWeek(r.Start), StartOfISOWeek(r.End))/7 + 1
	case Month:
		return (r.End.Year()-r.Start.Year())*12 + int(r.End.Month()) - int(r.Start.Month()) + 1
	default:
		return r.Days()
	}
}

// PixelsPerUnit divides a measured container width by the unit count.
func PixelsPerUnit(containerWidth float64, r Range, g Granularity) float64 {
	units := UnitsInRange(r, g)
	if units == 0 {
		return 0
	}
	return containerWidth / float64(units)
}

// DeltaToUnits rounds a pixel drag to whole units, half away from zero.
func DeltaToUnits(pixelDelta, pixelsPerUnit float64) int {
	if pixelsPerUnit <= 0 || math.IsNaN(pixelDelta) {
		return 0
	}
	return int(math.Round(pixelDelta / pixelsPerUnit))
}

// DeltaToDate shifts orig by the rounded number of units a drag covers.
func DeltaToDate(orig time.Time, pixelDelta, pixelsPerUnit float64, g Granularity) time.Time {
	return AddUnits(orig, DeltaToUnits(pixelDelta, pixelsPerUnit), g)
}

// AddUnits adds n days, weeks or months. Month steps clamp the day of month
// so Jan 31 + 1 month is the last day of February.
func AddUnits(t time.Time, n int, g Granularity) time.Time {
	switch g {
	case Week:
		return t.AddDate(0, 0, 7*n)
	case Month:
		return addMonths(t, n)
	default:
		return t.AddDate(0, 0, n)
	}
}

func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := EndOfMonth(first).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}
