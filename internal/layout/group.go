package layout

import (
	"sort"
	"time"
)

// Group is a named band of rows: one header row followed by its members'
// rows, or just the header when collapsed.
type Group struct {
	Name      string
	Items     []Item
	StartRow  int
	RowCount  int
	Collapsed bool

	// Start and End span the members, for drawing a summary bar on the header.
	Start time.Time
	End   time.Time
}

// GroupResult is the output of GroupAndLayout.
type GroupResult struct {
	Items       []Item
	Groups      []Group
	Rows        int
	Diagnostics []Diagnostic
}

// GroupAndLayout partitions items by Group (empty goes to NoGroup), orders
// the groups by name with NoGroup last, and lays them out one after another
// in a single row space. Each group takes a header row. Expanded groups lay
// out their members with mode below the header; collapsed groups keep their
// members' incoming rows and mark them hidden.
func GroupAndLayout(items []Item, collapsed CollapseSet, mode Mode) GroupResult {
	buckets := make(map[string][]Item)
	for _, it := range items {
		name := it.Group
		if name == "" {
			name = NoGroup
		}
		it.Group = name
		buckets[name] = append(buckets[name], it)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sortGroupNames(names)

	var res GroupResult
	cursor := 0
	for _, name := range names {
		members := buckets[name]
		g := Group{
			Name:      name,
			StartRow:  cursor,
			Collapsed: collapsed.Has(name),
		}
		g.Start, g.End, _ = Span(members)

		if g.Collapsed {
			for i := range members {
				members[i].Hidden = true
			}
			g.Items = members
			g.RowCount = 1
		} else {
			laid, diags := layoutBand(members, mode)
			local := RowCount(laid)
			for i := range laid {
				laid[i].Group = name
				laid[i].Row += cursor + 1
			}
			g.Items = laid
			g.RowCount = 1 + local
			res.Diagnostics = append(res.Diagnostics, diags...)
		}

		cursor += g.RowCount
		res.Items = append(res.Items, g.Items...)
		res.Groups = append(res.Groups, g)
	}
	res.Rows = cursor
	return res
}

// sortGroupNames orders names alphabetically with NoGroup always last.
func sortGroupNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if (a == NoGroup) != (b == NoGroup) {
			return b == NoGroup
		}
		return a < b
	})
}

// layoutBand assigns local rows starting at 0.
func layoutBand(items []Item, mode Mode) ([]Item, []Diagnostic) {
	switch mode {
	case ModeOnePerRow:
		return AssignSequentialRows(items), nil
	case ModeHierarchy:
		h := SortByHierarchy(items)
		return h.Items, h.Diagnostics
	default:
		return PackRows(items), nil
	}
}
