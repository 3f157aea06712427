package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planview/internal/view"
)

func TestFit(t *testing.T) {
	tests := []struct {
		in   string
		w    int
		want string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abc…"},
		{"abc", 3, "abc"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
		{"ünï", 4, "ünï "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fit(tt.in, tt.w), "fit(%q, %d)", tt.in, tt.w)
	}
}

func TestCells(t *testing.T) {
	from, to := cells(0, 10, 20)
	assert.Equal(t, []int{0, 1}, []int{from, to})

	from, to = cells(90, 10, 20)
	assert.Equal(t, []int{18, 19}, []int{from, to})

	from, to = cells(50, 0.1, 20)
	assert.Equal(t, from, to, "narrow bars still take one cell")

	from, to = cells(100, 5, 20)
	assert.Equal(t, []int{19, 19}, []int{from, to})
}

func TestGantt_Plain(t *testing.T) {
	v := view.GanttView{
		Name:       "Roadmap",
		RangeStart: "2024-01-01",
		RangeEnd:   "2024-01-10",
		Rows:       3,
		Ticks:      []view.Tick{{Label: "Jan 1", Offset: 0}, {Label: "5", Offset: 40}},
		Bands:      []view.Band{{Name: "Ops", Row: 0, Rows: 3, Count: 2, Offset: 0, Width: 50}},
		Bars: []view.Bar{
			{ID: "a", Title: "Design", Row: 1, Offset: 0, Width: 20},
			{ID: "b", Title: "Build", Row: 2, Offset: 50, Width: 50, ReadOnly: true},
		},
	}
	r := &Renderer{Plain: true, Width: 20}

	out := r.Gantt(v)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 5, "title, axis, then one line per row")
	assert.Contains(t, lines[0], "Roadmap")
	assert.Contains(t, lines[0], "2024-01-01 → 2024-01-10")
	assert.True(t, strings.HasPrefix(lines[1], strings.Repeat(" ", labelWidth)+"Jan 1"))
	assert.Contains(t, lines[2], "▾ Ops (2)")
	assert.Contains(t, lines[2], strings.Repeat("─", 10))

	design := []rune(lines[3])
	assert.Equal(t, "Design", strings.TrimSpace(string(design[:labelWidth])))
	assert.Equal(t, "████", string(design[labelWidth:labelWidth+4]))
	assert.Equal(t, ' ', design[labelWidth+4])

	build := []rune(lines[4])
	assert.Equal(t, strings.Repeat(" ", 10)+strings.Repeat("█", 10), string(build[labelWidth:]))
}

func TestGantt_SharedRowAndSkipped(t *testing.T) {
	v := view.GanttView{
		Name: "Packed",
		Rows: 1,
		Bars: []view.Bar{
			{ID: "a", Title: "One", Row: 0, Offset: 0, Width: 10},
			{ID: "b", Title: "Two", Row: 0, Offset: 50, Width: 10},
		},
		Skipped: []view.Skipped{{RecordID: "x"}},
	}
	out := (&Renderer{Plain: true, Width: 20}).Gantt(v)

	assert.Contains(t, out, "One, Two")
	assert.Contains(t, out, "1 record(s) without usable dates not shown")
}

func TestGantt_CollapsedBand(t *testing.T) {
	v := view.GanttView{
		Rows:  1,
		Bands: []view.Band{{Name: "Done", Row: 0, Rows: 1, Count: 4, Collapsed: true, Offset: 0, Width: 100}},
	}
	out := (&Renderer{Plain: true, Width: 10}).Gantt(v)
	assert.Contains(t, out, "▸ Done (4)")
}

func calendarFixture() view.CalendarView {
	days := func(from int, inMonth bool) []view.Day {
		out := make([]view.Day, 7)
		for i := range out {
			out[i] = view.Day{Date: "2024-01-" + pad(from+i), InMonth: inMonth}
		}
		return out
	}
	wk := view.Week{
		Days:  days(1, true),
		Lanes: 2,
		Spans: []view.Span{
			{ID: "trip", Title: "Trip", StartCol: 2, EndCol: 6, ColSpan: 5, Lane: 0, ContinuesAfter: true},
			{ID: "demo", Title: "Demo", StartCol: 0, EndCol: 1, ColSpan: 2, Lane: 0},
			{ID: "fest", Title: "Fest", StartCol: 3, EndCol: 3, ColSpan: 1, Lane: 1},
		},
	}
	wk.Days[0].Today = true
	wk.Days[1].Events = []view.Entry{
		{ID: "1", Title: "Standup", Time: "09:00"},
		{ID: "2", Title: "Lunch", Time: "12:00"},
		{ID: "3", Title: "Review", Time: "15:00"},
		{ID: "4", Title: "Retro", Time: "16:00"},
	}
	return view.CalendarView{Name: "Team", Month: "2024-01", WeekStart: "Monday", Weeks: []view.Week{wk}}
}

func pad(d int) string {
	if d < 10 {
		return "0" + string(rune('0'+d))
	}
	return string(rune('0'+d/10)) + string(rune('0'+d%10))
}

func TestCalendar_Plain(t *testing.T) {
	out := (&Renderer{Plain: true}).Calendar(calendarFixture())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Contains(t, lines[0], "January 2024")
	assert.True(t, strings.HasPrefix(lines[1], "Mon"))
	assert.Contains(t, lines[1], "Sun")

	require.GreaterOrEqual(t, len(lines), 8)
	assert.True(t, strings.HasPrefix(lines[3], "[1]"), "today is bracketed")

	lane0 := []rune(lines[4])
	assert.Equal(t, "Demo", strings.TrimSpace(string(lane0[:2*dayWidth])))
	assert.Equal(t, "Trip", strings.TrimSpace(string(lane0[2*dayWidth:2*dayWidth+8])))
	assert.True(t, strings.HasSuffix(lines[4], "▶"), "trip continues into next week")

	lane1 := []rune(lines[5])
	assert.Equal(t, strings.Repeat(" ", 3*dayWidth), string(lane1[:3*dayWidth]))
	assert.Equal(t, "Fest", strings.TrimSpace(string(lane1[3*dayWidth:])))

	assert.Contains(t, lines[6], "09:00 Standup")
	assert.Contains(t, lines[7], "12:00 Lunch")
	assert.Contains(t, lines[8], "+2 more")
	assert.NotContains(t, out, "Review")
}

func TestSpansInLane_OrderedByColumn(t *testing.T) {
	got := spansInLane(calendarFixture().Weeks[0].Spans, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "demo", got[0].ID)
	assert.Equal(t, "trip", got[1].ID)
}

func TestBoard_Plain(t *testing.T) {
	v := view.BoardView{
		Name:     "Work",
		Property: "status",
		Columns: []view.Column{
			{Name: "todo", Count: 2, Cards: []view.Card{
				{ID: "a", Title: "Write docs", Start: "2024-01-02", End: "2024-01-04"},
				{ID: "b", Title: "Undated"},
			}},
			{Name: "done", Count: 7, Collapsed: true},
		},
	}
	out := (&Renderer{Plain: true}).Board(v)

	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "by status")
	assert.Contains(t, out, "▾ todo (2)")
	assert.Contains(t, out, "▸ done (7)")
	assert.Contains(t, out, "• Write docs")
	assert.Contains(t, out, "2024-01-02 → 2024-01-04")
	assert.Contains(t, out, "╭")

	first := strings.Split(out, "\n")[1]
	assert.Equal(t, 2, strings.Count(first, "╭"), "columns sit side by side")
}

func TestBoard_Empty(t *testing.T) {
	out := New(true).Board(view.BoardView{Name: "Empty", Property: "status"})
	assert.Contains(t, out, "no cards")
}
