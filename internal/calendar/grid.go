package calendar

import (
	"sort"
	"time"

	"planview/internal/timeline"
)

// WeekDays returns the 7 consecutive days starting at start's calendar day.
func WeekDays(start time.Time) []time.Time {
	first := truncate(start, start.Location())
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// MonthGrid returns the full weeks covering month, each as 7 days, starting
// on weekStart. Months span 4 to 6 rows.
func MonthGrid(month time.Time, weekStart time.Weekday) [][]time.Time {
	r := timeline.AlignWeek(weekStart).Apply(timeline.Range{
		Start: timeline.StartOfMonth(month),
		End:   timeline.EndOfMonth(month),
	})

	var weeks [][]time.Time
	for wk := r.Start; !wk.After(r.End); wk = wk.AddDate(0, 0, 7) {
		weeks = append(weeks, WeekDays(wk))
	}
	return weeks
}

// IsMultiDay reports whether ev belongs in the spanning bar area: all-day
// events and anything that crosses midnight.
func IsMultiDay(ev Event) bool {
	if ev.AllDay {
		return true
	}
	return timeline.DaysBetween(ev.Start, ev.End) >= 1
}

// Partition splits events into spanning bars and single-day timed entries.
func Partition(events []Event) (multi, single []Event) {
	for _, ev := range events {
		if IsMultiDay(ev) {
			multi = append(multi, ev)
		} else {
			single = append(single, ev)
		}
	}
	return multi, single
}

// SingleDay returns the timed single-day events on day, ordered by start
// time, then title.
func SingleDay(events []Event, day time.Time) []Event {
	target := truncate(day, day.Location())
	var out []Event
	for _, ev := range events {
		if IsMultiDay(ev) {
			continue
		}
		if truncate(ev.Start, day.Location()).Equal(target) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}
