package render

import (
	"fmt"
	"math"
	"strings"

	"planview/internal/view"
)

const labelWidth = 22

// Gantt draws one line per layout row: a label column, then the bars of that
// row scaled to r.Width cells. Group headers show their member span dimmed.
func (r *Renderer) Gantt(v view.GanttView) string {
	width := r.Width
	if width < 10 {
		width = 10
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", r.header(v.Name), r.dim(v.RangeStart+" → "+v.RangeEnd))
	b.WriteString(strings.Repeat(" ", labelWidth) + axis(v.Ticks, width) + "\n")

	type cell struct {
		text     rune
		readOnly bool
	}
	rows := make([][]cell, v.Rows)
	labels := make([]string, v.Rows)
	header := make([]bool, v.Rows)
	for i := range rows {
		rows[i] = make([]cell, width)
		for j := range rows[i] {
			rows[i][j] = cell{text: ' '}
		}
	}

	paint := func(row int, offset, w float64, ch rune, readOnly bool) {
		if row < 0 || row >= len(rows) {
			return
		}
		from, to := cells(offset, w, width)
		for c := from; c <= to; c++ {
			rows[row][c] = cell{text: ch, readOnly: readOnly}
		}
	}

	for _, band := range v.Bands {
		mark := "▾"
		if band.Collapsed {
			mark = "▸"
		}
		if band.Row < 0 || band.Row >= v.Rows {
			continue
		}
		labels[band.Row] = fmt.Sprintf("%s %s (%d)", mark, band.Name, band.Count)
		header[band.Row] = true
		if band.Count > 0 {
			paint(band.Row, band.Offset, band.Width, '─', false)
		}
	}
	for _, bar := range v.Bars {
		ch := '█'
		if bar.Synthetic {
			ch = '─'
		}
		paint(bar.Row, bar.Offset, bar.Width, ch, bar.ReadOnly)

		if bar.Row < 0 || bar.Row >= v.Rows || header[bar.Row] {
			continue
		}
		if labels[bar.Row] == "" {
			labels[bar.Row] = strings.Repeat("  ", bar.Depth) + bar.Title
		} else {
			labels[bar.Row] += ", " + bar.Title
		}
	}

	for i, row := range rows {
		b.WriteString(fit(labels[i], labelWidth-1) + " ")
		for _, c := range row {
			s := string(c.text)
			if c.text != ' ' {
				s = r.bar(s, c.readOnly)
			}
			b.WriteString(s)
		}
		b.WriteString("\n")
	}
	if len(v.Skipped) > 0 {
		b.WriteString(r.dim(fmt.Sprintf("%d record(s) without usable dates not shown\n", len(v.Skipped))))
	}
	return b.String()
}

// cells maps a percent offset/width onto [from, to] cell indexes; every bar
// gets at least one cell.
func cells(offset, w float64, width int) (int, int) {
	from := int(math.Floor(offset * float64(width) / 100))
	to := int(math.Ceil((offset+w)*float64(width)/100)) - 1
	if from < 0 {
		from = 0
	}
	if from > width-1 {
		from = width - 1
	}
	if to < from {
		to = from
	}
	if to > width-1 {
		to = width - 1
	}
	return from, to
}

// axis places tick labels at their offsets, skipping labels that would
// overlap the previous one.
func axis(ticks []view.Tick, width int) string {
	line := []rune(strings.Repeat(" ", width))
	next := 0
	for _, t := range ticks {
		col, _ := cells(t.Offset, 0, width)
		if col < next {
			continue
		}
		label := []rune(t.Label)
		if col+len(label) > width {
			continue
		}
		copy(line[col:], label)
		next = col + len(label) + 1
	}
	return string(line)
}
