package render

import (
	"fmt"
	"strings"
	"time"

	"planview/internal/view"
)

const (
	dayWidth  = 14
	maxEvents = 3
)

// Calendar draws the month as a 7-column grid. Each week shows day numbers,
// one line per span lane, then up to maxEvents timed entries per day.
func (r *Renderer) Calendar(v view.CalendarView) string {
	var b strings.Builder

	title := v.Month
	if t, err := time.Parse("2006-01", v.Month); err == nil {
		title = t.Format("January 2006")
	}
	fmt.Fprintf(&b, "%s  %s\n", r.header(title), r.dim(v.Name))

	if len(v.Weeks) > 0 {
		for _, d := range v.Weeks[0].Days {
			name := d.Date
			if t, err := time.Parse("2006-01-02", d.Date); err == nil {
				name = t.Format("Mon")
			}
			b.WriteString(r.dim(fit(name, dayWidth)))
		}
		b.WriteString("\n")
	}
	rule := strings.Repeat("─", dayWidth*7)

	for _, wk := range v.Weeks {
		b.WriteString(r.dim(rule) + "\n")
		for _, d := range wk.Days {
			b.WriteString(r.dayNumber(d))
		}
		b.WriteString("\n")

		for lane := 0; lane < wk.Lanes; lane++ {
			b.WriteString(r.laneLine(wk.Spans, lane, len(wk.Days)) + "\n")
		}

		for i := 0; i < maxEvents; i++ {
			var line strings.Builder
			filled := false
			for _, d := range wk.Days {
				switch {
				case i < len(d.Events) && (i < maxEvents-1 || len(d.Events) == maxEvents):
					e := d.Events[i]
					line.WriteString(r.bar(fit(e.Time+" "+e.Title, dayWidth-1), e.ReadOnly) + " ")
					filled = true
				case i == maxEvents-1 && len(d.Events) > maxEvents:
					line.WriteString(r.dim(fit(fmt.Sprintf("+%d more", len(d.Events)-i), dayWidth)))
					filled = true
				default:
					line.WriteString(strings.Repeat(" ", dayWidth))
				}
			}
			if !filled {
				break
			}
			b.WriteString(strings.TrimRight(line.String(), " ") + "\n")
		}
	}
	return b.String()
}

func (r *Renderer) dayNumber(d view.Day) string {
	num := d.Date
	if t, err := time.Parse("2006-01-02", d.Date); err == nil {
		num = fmt.Sprintf("%2d", t.Day())
	}
	if d.Today {
		num = "[" + strings.TrimSpace(num) + "]"
		return r.style(todayStyle).Render(fit(num, dayWidth))
	}
	if !d.InMonth {
		return r.dim(fit(num, dayWidth))
	}
	return fit(num, dayWidth)
}

// laneLine draws the spans in one lane. Arrows mark bars that continue into
// the previous or next week.
func (r *Renderer) laneLine(spans []view.Span, lane, days int) string {
	var b strings.Builder
	col := 0
	for _, sp := range spansInLane(spans, lane) {
		if sp.StartCol > col {
			b.WriteString(strings.Repeat(" ", (sp.StartCol-col)*dayWidth))
		}
		w := sp.ColSpan * dayWidth
		text := sp.Title
		if sp.ContinuesBefore {
			text = "◀ " + text
		}
		label := fit(text, w-1)
		if sp.ContinuesAfter {
			label = fit(text, w-3) + " ▶"
		}
		b.WriteString(r.bar(label, sp.ReadOnly) + " ")
		col = sp.EndCol + 1
	}
	if col < days {
		b.WriteString(strings.Repeat(" ", (days-col)*dayWidth))
	}
	return strings.TrimRight(b.String(), " ")
}

func spansInLane(spans []view.Span, lane int) []view.Span {
	var out []view.Span
	for _, sp := range spans {
		if sp.Lane == lane {
			out = append(out, sp)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartCol < out[j-1].StartCol; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
