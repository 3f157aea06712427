package layout

// Options is everything a layout pass depends on besides the items.
type Options struct {
	Mode Mode
	// Grouped requests grouping by Item.Group. When false the Group field is
	// ignored entirely.
	Grouped   bool
	Collapsed CollapseSet
}

// Result is a complete layout.
type Result struct {
	Items       []Item
	Groups      []Group
	Rows        int
	Diagnostics []Diagnostic
}

// Run lays out items according to opts. With grouping and hierarchy both
// requested, the hierarchy is applied within each group.
func Run(items []Item, opts Options) Result {
	if opts.Grouped {
		g := GroupAndLayout(items, opts.Collapsed, opts.Mode)
		return Result{Items: g.Items, Groups: g.Groups, Rows: g.Rows, Diagnostics: g.Diagnostics}
	}

	laid, diags := layoutBand(items, opts.Mode)
	return Result{Items: laid, Rows: RowCount(laid), Diagnostics: diags}
}

// Visible returns the items that are not hidden by a collapsed group.
func (r Result) Visible() []Item {
	out := make([]Item, 0, len(r.Items))
	for _, it := range r.Items {
		if !it.Hidden {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the laid-out item with the given ID.
func (r Result) Find(id string) (Item, bool) {
	for _, it := range r.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
