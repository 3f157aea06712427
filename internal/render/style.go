// Package render draws views as text for the terminal.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBar      = lipgloss.Color("#83a598")
	colorReadOnly = lipgloss.Color("#d3869b")
	colorHeader   = lipgloss.Color("#fe8019")
	colorDim      = lipgloss.Color("#928374")
	colorToday    = lipgloss.Color("#fabd2f")
)

var todayStyle = lipgloss.NewStyle().Foreground(colorToday).Bold(true)

// Renderer holds the styles. Plain drops all styling, for pipes and files.
type Renderer struct {
	Plain bool

	// Width is the chart area in cells for the Gantt view.
	Width int
}

func New(plain bool) *Renderer {
	return &Renderer{Plain: plain, Width: 60}
}

func (r *Renderer) style(s lipgloss.Style) lipgloss.Style {
	if r.Plain {
		return lipgloss.NewStyle()
	}
	return s
}

func (r *Renderer) header(s string) string {
	return r.style(lipgloss.NewStyle().Foreground(colorHeader).Bold(true)).Render(s)
}

func (r *Renderer) dim(s string) string {
	return r.style(lipgloss.NewStyle().Foreground(colorDim)).Render(s)
}

func (r *Renderer) bar(s string, readOnly bool) string {
	c := colorBar
	if readOnly {
		c = colorReadOnly
	}
	return r.style(lipgloss.NewStyle().Foreground(c)).Render(s)
}

// fit pads or truncates s to exactly w runes.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) > w {
		if w == 1 {
			return "…"
		}
		return string(rs[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-len(rs))
}
