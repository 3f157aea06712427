// Package calendar lays events out on a month grid of 7-day weeks: which
// multi-day bars cross each week, where they start, how many columns they
// cover, and which lane they stack into.
package calendar

import (
	"sort"
	"time"

	"planview/internal/timeline"
)

// Event is a calendar entry. End is the last day the event occupies (or its
// end instant for timed events), never the exclusive day after.
type Event struct {
	ID     string
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
	Ref    string
}

// SpannedEvent is an event's footprint within one week.
type SpannedEvent struct {
	Event    Event
	StartCol int
	EndCol   int
	ColSpan  int

	ContinuesBefore bool
	ContinuesAfter  bool

	// Lane is the stacking slot; bars in the same lane never share a column.
	Lane int
}

// SpansForWeek returns the events that touch weekDays, with their column
// footprint, ordered for stacking: longer visible span first, then earlier
// start, then earlier start column (title and id settle any remaining tie).
func SpansForWeek(events []Event, weekDays []time.Time) []SpannedEvent {
	n := len(weekDays)
	if n == 0 {
		return nil
	}
	loc := weekDays[0].Location()
	weekStart := truncate(weekDays[0], loc)
	weekEnd := truncate(weekDays[n-1], loc).AddDate(0, 0, 1)

	out := make([]SpannedEvent, 0)
	for _, ev := range events {
		start := truncate(ev.Start, loc)
		end := truncate(ev.End, loc)
		if end.Before(start) {
			end = start
		}
		// Half-open window [weekStart, weekEnd).
		if !start.Before(weekEnd) || end.Before(weekStart) {
			continue
		}

		sp := SpannedEvent{Event: ev, StartCol: 0, EndCol: n - 1}
		if start.Before(weekStart) {
			sp.ContinuesBefore = true
		} else {
			sp.StartCol = timeline.DaysBetween(weekStart, start)
		}
		if !end.Before(weekEnd) {
			sp.ContinuesAfter = true
		} else {
			sp.EndCol = timeline.DaysBetween(weekStart, end)
		}
		sp.ColSpan = sp.EndCol - sp.StartCol + 1
		out = append(out, sp)
	}

	sortSpans(out)
	assignLanes(out, n)
	return out
}

func sortSpans(spans []SpannedEvent) {
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.ColSpan != b.ColSpan {
			return a.ColSpan > b.ColSpan
		}
		if !a.Event.Start.Equal(b.Event.Start) {
			return a.Event.Start.Before(b.Event.Start)
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		return a.Event.ID < b.Event.ID
	})
}

// assignLanes gives each span, in order, the lowest lane free on all its columns.
func assignLanes(spans []SpannedEvent, cols int) {
	var lanes [][]bool
	for i := range spans {
		sp := &spans[i]
		lane := -1
		for l := range lanes {
			free := true
			for c := sp.StartCol; c <= sp.EndCol; c++ {
				if lanes[l][c] {
					free = false
					break
				}
			}
			if free {
				lane = l
				break
			}
		}
		if lane == -1 {
			lanes = append(lanes, make([]bool, cols))
			lane = len(lanes) - 1
		}
		for c := sp.StartCol; c <= sp.EndCol; c++ {
			lanes[lane][c] = true
		}
		sp.Lane = lane
	}
}

// LaneCount returns how many lanes spans occupy.
func LaneCount(spans []SpannedEvent) int {
	n := 0
	for _, sp := range spans {
		if sp.Lane+1 > n {
			n = sp.Lane + 1
		}
	}
	return n
}

func truncate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
