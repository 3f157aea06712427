package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"planview/internal/view"
)

const columnWidth = 30

var columnBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorDim).
	Padding(0, 1).
	Width(columnWidth)

// Board draws the columns side by side. Collapsed columns only show their
// header and count.
func (r *Renderer) Board(v view.BoardView) string {
	boxes := make([]string, 0, len(v.Columns))
	for _, col := range v.Columns {
		var b strings.Builder
		mark := "▾"
		if col.Collapsed {
			mark = "▸"
		}
		b.WriteString(r.header(fmt.Sprintf("%s %s (%d)", mark, col.Name, col.Count)))
		for _, c := range col.Cards {
			b.WriteString("\n" + r.bar("• ", c.ReadOnly) + fit(c.Title, columnWidth-4))
			if c.Start != "" {
				when := c.Start
				if c.End != "" && c.End != c.Start {
					when += " → " + c.End
				}
				b.WriteString("\n  " + r.dim(when))
			}
		}

		box := columnBox
		if r.Plain {
			box = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(columnWidth)
		}
		boxes = append(boxes, box.Render(b.String()))
	}

	out := r.header(v.Name) + "  " + r.dim("by "+v.Property) + "\n"
	if len(boxes) == 0 {
		return out + r.dim("no cards") + "\n"
	}
	return out + lipgloss.JoinHorizontal(lipgloss.Top, boxes...) + "\n"
}
