package view

import (
	"time"

	"planview/internal/layout"
	"planview/internal/normalize"
	"planview/internal/record"
	"planview/internal/timeline"
)

// Bar is one visible item on the Gantt chart.
type Bar struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Ref       string  `json:"ref,omitempty"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Row       int     `json:"row"`
	Depth     int     `json:"depth,omitempty"`
	Group     string  `json:"group,omitempty"`
	ParentID  string  `json:"parent_id,omitempty"`
	Synthetic bool    `json:"synthetic,omitempty"`
	ReadOnly  bool    `json:"read_only,omitempty"`
	Offset    float64 `json:"offset"`
	Width     float64 `json:"width"`
}

// Band is a group header row.
type Band struct {
	Name      string  `json:"name"`
	Row       int     `json:"row"`
	Rows      int     `json:"rows"`
	Count     int     `json:"count"`
	Collapsed bool    `json:"collapsed"`
	Offset    float64 `json:"offset"`
	Width     float64 `json:"width"`
}

// Tick is an axis marker positioned on the chart.
type Tick struct {
	Date   string  `json:"date"`
	Label  string  `json:"label"`
	Major  bool    `json:"major"`
	Offset float64 `json:"offset"`
}

type GanttView struct {
	Name        string               `json:"name"`
	RangeStart  string               `json:"range_start"`
	RangeEnd    string               `json:"range_end"`
	Granularity timeline.Granularity `json:"granularity"`
	Units       int                  `json:"units"`
	Rows        int                  `json:"rows"`
	Ticks       []Tick               `json:"ticks"`
	Bars        []Bar                `json:"bars"`
	Bands       []Band               `json:"bands,omitempty"`
	Diagnostics []layout.Diagnostic  `json:"diagnostics,omitempty"`
	Skipped     []Skipped            `json:"skipped,omitempty"`

	// Range and Layout are kept for gesture handling.
	Range  timeline.Range `json:"-"`
	Layout layout.Result  `json:"-"`
}

// Gantt lays out recs on a month-aligned timeline. Grouping is on when the
// view has a group-by property; collapsed comes from the caller's state.
// now picks the month shown when nothing is dated.
func Gantt(recs []record.Record, cfg Config, collapsed layout.CollapseSet, n normalize.Normalizer, now time.Time) GanttView {
	cfg = cfg.WithDefaults()
	items, skipped := BuildItems(recs, cfg, n)

	res := layout.Run(items, layout.Options{
		Mode:      cfg.Mode,
		Grouped:   cfg.GroupBy != "",
		Collapsed: collapsed,
	})
	r := timeline.ResolveRange(items, now.In(zone(n)), timeline.AlignMonth)

	readOnly := map[string]bool{}
	for _, rec := range recs {
		if rec.ReadOnly {
			readOnly[rec.ID] = true
		}
	}

	v := GanttView{
		Name:        cfg.Name,
		RangeStart:  normalize.FormatDate(r.Start),
		RangeEnd:    normalize.FormatDate(r.End),
		Granularity: cfg.Granularity,
		Units:       timeline.UnitsInRange(r, cfg.Granularity),
		Rows:        res.Rows,
		Ticks:       ticks(r, cfg.Granularity),
		Bars:        make([]Bar, 0, len(res.Items)),
		Diagnostics: res.Diagnostics,
		Skipped:     skipped,
		Range:       r,
		Layout:      res,
	}

	for _, it := range res.Visible() {
		pos := timeline.ToPosition(it.Start, it.End, r)
		v.Bars = append(v.Bars, Bar{
			ID:        it.ID,
			Title:     it.Title,
			Ref:       it.Ref,
			Start:     normalize.FormatDate(it.Start),
			End:       normalize.FormatDate(it.End),
			Row:       it.Row,
			Depth:     it.Depth,
			Group:     it.Group,
			ParentID:  it.ParentID,
			Synthetic: it.Synthetic,
			ReadOnly:  readOnly[it.ID],
			Offset:    pos.Offset,
			Width:     pos.Width,
		})
	}

	for _, g := range res.Groups {
		b := Band{Name: g.Name, Row: g.StartRow, Rows: g.RowCount, Count: len(g.Items), Collapsed: g.Collapsed}
		if len(g.Items) > 0 {
			pos := timeline.ToPosition(g.Start, g.End, r)
			b.Offset, b.Width = pos.Offset, pos.Width
		}
		v.Bands = append(v.Bands, b)
	}
	return v
}

func ticks(r timeline.Range, g timeline.Granularity) []Tick {
	markers := timeline.GenerateMarkers(r, g)
	out := make([]Tick, 0, len(markers))
	for _, m := range markers {
		// Week markers may start before the range; clamp them to the edge.
		pos := timeline.ToPosition(m.Date, m.Date, r)
		out = append(out, Tick{
			Date:   normalize.FormatDate(m.Date),
			Label:  m.Label,
			Major:  m.Major,
			Offset: pos.Offset,
		})
	}
	return out
}

// PixelsPerUnit converts a measured chart width into the drag scale.
func (v GanttView) PixelsPerUnit(width float64) float64 {
	return timeline.PixelsPerUnit(width, v.Range, v.Granularity)
}
