package view

import (
	"time"

	"planview/internal/calendar"
	"planview/internal/normalize"
	"planview/internal/record"
)

// allDayProperty marks feed occurrences that have no time of day.
const allDayProperty = "allDay"

type CalendarView struct {
	Name      string    `json:"name"`
	Month     string    `json:"month"`
	WeekStart string    `json:"week_start"`
	Weeks     []Week    `json:"weeks"`
	Skipped   []Skipped `json:"skipped,omitempty"`
}

type Week struct {
	Days  []Day  `json:"days"`
	Lanes int    `json:"lanes"`
	Spans []Span `json:"spans"`
}

type Day struct {
	Date    string  `json:"date"`
	InMonth bool    `json:"in_month"`
	Today   bool    `json:"today,omitempty"`
	Events  []Entry `json:"events,omitempty"`
}

// Entry is a timed single-day event inside a day cell.
type Entry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Ref      string `json:"ref,omitempty"`
	Time     string `json:"time"`
	ReadOnly bool   `json:"read_only,omitempty"`
}

// Span is a bar across one week row.
type Span struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Ref             string `json:"ref,omitempty"`
	Start           string `json:"start"`
	End             string `json:"end"`
	StartCol        int    `json:"start_col"`
	EndCol          int    `json:"end_col"`
	ColSpan         int    `json:"col_span"`
	Lane            int    `json:"lane"`
	ContinuesBefore bool   `json:"continues_before,omitempty"`
	ContinuesAfter  bool   `json:"continues_after,omitempty"`
	ReadOnly        bool   `json:"read_only,omitempty"`
}

// Calendar builds the month grid containing month. All-day and multi-day
// records become spanning bars; timed single-day records are listed in their
// day cell.
func Calendar(recs []record.Record, cfg Config, month time.Time, weekStart time.Weekday, n normalize.Normalizer, now time.Time) CalendarView {
	cfg = cfg.WithDefaults()
	loc := zone(n)
	month = month.In(loc)
	today := normalize.TruncateDay(now.In(loc))

	events, readOnly, skipped := calendarEvents(recs, cfg, n)
	multi, _ := calendar.Partition(events)

	v := CalendarView{
		Name:      cfg.Name,
		Month:     month.Format("2006-01"),
		WeekStart: weekStart.String(),
		Skipped:   skipped,
	}
	for _, days := range calendar.MonthGrid(month, weekStart) {
		spans := calendar.SpansForWeek(multi, days)
		wk := Week{Lanes: calendar.LaneCount(spans), Spans: make([]Span, 0, len(spans))}

		for _, d := range days {
			day := Day{
				Date:    normalize.FormatDate(d),
				InMonth: d.Month() == month.Month() && d.Year() == month.Year(),
				Today:   d.Equal(today),
			}
			for _, ev := range calendar.SingleDay(events, d) {
				day.Events = append(day.Events, Entry{
					ID:       ev.ID,
					Title:    ev.Title,
					Ref:      ev.Ref,
					Time:     ev.Start.Format("15:04"),
					ReadOnly: readOnly[ev.ID],
				})
			}
			wk.Days = append(wk.Days, day)
		}

		for _, sp := range spans {
			wk.Spans = append(wk.Spans, Span{
				ID:              sp.Event.ID,
				Title:           sp.Event.Title,
				Ref:             sp.Event.Ref,
				Start:           normalize.FormatDate(sp.Event.Start),
				End:             normalize.FormatDate(sp.Event.End),
				StartCol:        sp.StartCol,
				EndCol:          sp.EndCol,
				ColSpan:         sp.ColSpan,
				Lane:            sp.Lane,
				ContinuesBefore: sp.ContinuesBefore,
				ContinuesAfter:  sp.ContinuesAfter,
				ReadOnly:        readOnly[sp.Event.ID],
			})
		}
		v.Weeks = append(v.Weeks, wk)
	}
	return v
}

func calendarEvents(recs []record.Record, cfg Config, n normalize.Normalizer) ([]calendar.Event, map[string]bool, []Skipped) {
	var (
		events   []calendar.Event
		skipped  []Skipped
		readOnly = map[string]bool{}
	)
	for _, rec := range recs {
		if !cfg.acceptsSource(rec.Source) {
			continue
		}
		start, end, reason := dateRange(rec, cfg, n.Time)
		if reason != "" {
			skipped = append(skipped, skip(rec, reason))
			continue
		}
		allDay := !n.HasClock(rec.Properties.Get(cfg.StartProperty))
		if v := rec.Properties.Get(allDayProperty); v.Kind == normalize.KindBool {
			allDay = v.Bool
		}
		events = append(events, calendar.Event{
			ID:     rec.ID,
			Title:  rec.Title,
			Start:  start,
			End:    end,
			AllDay: allDay,
			Ref:    rec.Ref,
		})
		if rec.ReadOnly {
			readOnly[rec.ID] = true
		}
	}
	return events, readOnly, skipped
}
