package view

import (
	"sort"
	"strings"
	"time"

	"planview/internal/layout"
	"planview/internal/normalize"
	"planview/internal/record"
)

type BoardView struct {
	Name     string   `json:"name"`
	Property string   `json:"property"`
	Columns  []Column `json:"columns"`
}

type Column struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	Collapsed bool   `json:"collapsed"`
	Cards     []Card `json:"cards,omitempty"`
}

type Card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Ref      string `json:"ref,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	ReadOnly bool   `json:"read_only,omitempty"`

	start time.Time
}

// Board buckets recs by the status property. Configured columns come first in
// their configured order (even when empty), then any other values by name,
// then NoGroup. Cards are ordered by start (undated last), then title.
// Collapsed columns keep their count but list no cards.
func Board(recs []record.Record, cfg Config, collapsed layout.CollapseSet, n normalize.Normalizer) BoardView {
	cfg = cfg.WithDefaults()

	buckets := map[string][]Card{}
	for _, rec := range recs {
		if !cfg.acceptsSource(rec.Source) {
			continue
		}
		status := strings.TrimSpace(normalize.DisplayString(rec.Properties.Get(cfg.StatusProperty)))
		if status == "" {
			status = layout.NoGroup
		}

		c := Card{ID: rec.ID, Title: rec.Title, Ref: rec.Ref, ReadOnly: rec.ReadOnly}
		if start, end, reason := dateRange(rec, cfg, n.Date); reason == "" {
			c.start = start
			c.Start = normalize.FormatDate(start)
			c.End = normalize.FormatDate(end)
		}
		buckets[status] = append(buckets[status], c)
	}

	v := BoardView{Name: cfg.Name, Property: cfg.StatusProperty}
	for _, name := range columnOrder(cfg.Columns, buckets) {
		cards := buckets[name]
		sortCards(cards)
		col := Column{Name: name, Count: len(cards), Collapsed: collapsed.Has(name)}
		if !col.Collapsed {
			col.Cards = cards
		}
		v.Columns = append(v.Columns, col)
	}
	return v
}

func columnOrder(configured []string, buckets map[string][]Card) []string {
	seen := map[string]bool{}
	var order []string
	for _, c := range configured {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		order = append(order, c)
	}

	var rest []string
	for name := range buckets {
		if !seen[name] && name != layout.NoGroup {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	if _, ok := buckets[layout.NoGroup]; ok && !seen[layout.NoGroup] {
		order = append(order, layout.NoGroup)
	}
	return order
}

func sortCards(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.start.IsZero() != b.start.IsZero() {
			return !a.start.IsZero()
		}
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}

// Find returns the card with id and the column holding it.
func (v BoardView) Find(id string) (Card, string, bool) {
	for _, col := range v.Columns {
		for _, c := range col.Cards {
			if c.ID == id {
				return c, col.Name, true
			}
		}
	}
	return Card{}, "", false
}
