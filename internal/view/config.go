// Package view turns records into the three visualizations: a Gantt
// timeline, a month calendar and a status board. It is the glue between the
// record sources and the layout engine; every function is a pure pass over
// the records it is given.
package view

import (
	"errors"
	"fmt"
	"strings"

	"planview/internal/layout"
	"planview/internal/timeline"
)

// Kind selects the visualization.
type Kind string

const (
	KindGantt    Kind = "gantt"
	KindCalendar Kind = "calendar"
	KindBoard    Kind = "board"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGantt, KindCalendar, KindBoard:
		return k, nil
	case "timeline":
		return KindGantt, nil
	case "kanban":
		return KindBoard, nil
	default:
		return "", fmt.Errorf("unknown view kind %q", s)
	}
}

// Config is one configured view: which properties carry the dates and the
// grouping, and how rows are laid out.
type Config struct {
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`

	// Sources restricts the view to these record sources; empty means all.
	Sources []string `yaml:"sources,omitempty" json:"sources,omitempty"`

	StartProperty  string `yaml:"start" json:"start"`
	EndProperty    string `yaml:"end" json:"end"`
	GroupBy        string `yaml:"group_by,omitempty" json:"group_by,omitempty"`
	ParentProperty string `yaml:"parent,omitempty" json:"parent,omitempty"`

	// StatusProperty and Columns drive the board.
	StatusProperty string   `yaml:"status,omitempty" json:"status,omitempty"`
	Columns        []string `yaml:"columns,omitempty" json:"columns,omitempty"`

	Granularity timeline.Granularity `yaml:"granularity,omitempty" json:"granularity,omitempty"`
	Mode        layout.Mode          `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Kind == "" {
		c.Kind = KindGantt
	}
	if c.StartProperty == "" {
		c.StartProperty = "start"
	}
	if c.EndProperty == "" {
		c.EndProperty = "end"
	}
	if c.StatusProperty == "" {
		c.StatusProperty = "status"
	}
	if c.Granularity == "" {
		c.Granularity = timeline.Day
	}
	if c.Mode == "" {
		c.Mode = layout.ModePacked
	}
	return c
}

// Validate checks enumerations after defaults are applied. Spellings such as
// "tree" or "kanban" are canonicalized.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("view name is empty")
	}
	k, err := ParseKind(string(c.Kind))
	if err != nil {
		return fmt.Errorf("view %s: %w", c.Name, err)
	}
	c.Kind = k
	g, err := timeline.ParseGranularity(string(c.Granularity))
	if err != nil {
		return fmt.Errorf("view %s: %w", c.Name, err)
	}
	c.Granularity = g
	m, err := layout.ParseMode(string(c.Mode))
	if err != nil {
		return fmt.Errorf("view %s: %w", c.Name, err)
	}
	c.Mode = m
	if c.Mode == layout.ModeHierarchy && c.ParentProperty == "" {
		return fmt.Errorf("view %s: hierarchy mode needs a parent property", c.Name)
	}
	return nil
}

func (c Config) acceptsSource(src string) bool {
	if len(c.Sources) == 0 {
		return true
	}
	for _, s := range c.Sources {
		if s == src {
			return true
		}
	}
	return false
}
