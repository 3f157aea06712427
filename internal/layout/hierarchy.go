package layout

import (
	"sort"

	appLog "planview/internal/log"
)

// HierarchyResult is the depth-first ordering produced by SortByHierarchy.
type HierarchyResult struct {
	Items       []Item
	Diagnostics []Diagnostic
}

// SortByHierarchy orders items parent-first, depth-first, with siblings by
// start date. Parent references are resolved against item IDs; a reference
// that matches no ID is tried against titles as a best-effort fallback.
//
// Unresolvable parents are cleared. Cycles are broken by skipping the edge
// that returns to a node still being visited. Items with neither parent nor
// children come last, after a synthetic Orphans header. Rows are assigned
// 0..n-1 in final order.
func SortByHierarchy(items []Item) HierarchyResult {
	h := newHierarchy(cloneItems(items))
	h.resolveParents()
	h.walkRoots()
	h.walkCycles()
	h.appendOrphans()

	for i := range h.out {
		h.out[i].Row = i
	}
	return HierarchyResult{Items: h.out, Diagnostics: h.diags}
}

type hierarchy struct {
	items    []Item
	parent   []int
	children [][]int

	processing []bool
	visited    []bool

	out   []Item
	diags []Diagnostic
}

func newHierarchy(items []Item) *hierarchy {
	n := len(items)
	h := &hierarchy{
		items:      items,
		parent:     make([]int, n),
		children:   make([][]int, n),
		processing: make([]bool, n),
		visited:    make([]bool, n),
		out:        make([]Item, 0, n+1),
	}
	for i := range h.parent {
		h.parent[i] = -1
	}
	return h
}

func (h *hierarchy) note(code DiagnosticCode, it Item, detail string) {
	h.diags = append(h.diags, Diagnostic{Code: code, ItemID: it.ID, Detail: detail})
	switch code {
	case DiagParentByTitle:
		appLog.Debug("hierarchy: parent matched by title", "item", it.ID, "parent", detail)
	default:
		appLog.Warn("hierarchy: "+string(code), "item", it.ID, "detail", detail)
	}
}

func (h *hierarchy) resolveParents() {
	byID := make(map[string]int, len(h.items))
	byTitle := make(map[string]int, len(h.items))
	for i, it := range h.items {
		if _, dup := byID[it.ID]; !dup && it.ID != "" {
			byID[it.ID] = i
		}
		if _, dup := byTitle[it.Title]; !dup && it.Title != "" {
			byTitle[it.Title] = i
		}
	}

	for i := range h.items {
		ref := h.items[i].ParentID
		if ref == "" {
			continue
		}
		j, ok := byID[ref]
		if !ok {
			if j, ok = byTitle[ref]; ok && j != i {
				h.note(DiagParentByTitle, h.items[i], ref)
			}
		}
		switch {
		case !ok:
			h.note(DiagParentNotFound, h.items[i], ref)
			h.items[i].ParentID = ""
		case j == i:
			h.note(DiagSelfParent, h.items[i], ref)
			h.items[i].ParentID = ""
		default:
			h.parent[i] = j
			h.items[i].ParentID = h.items[j].ID
			h.children[j] = append(h.children[j], i)
		}
	}
}

// byStart sorts indices by their item's start date, ties in input order.
func (h *hierarchy) byStart(idx []int) []int {
	out := append([]int(nil), idx...)
	sort.SliceStable(out, func(a, b int) bool {
		ia, ib := h.items[out[a]], h.items[out[b]]
		if !ia.Start.Equal(ib.Start) {
			return ia.Start.Before(ib.Start)
		}
		return out[a] < out[b]
	})
	return out
}

func (h *hierarchy) visit(i, depth int) {
	if h.processing[i] {
		h.note(DiagCycle, h.items[i], "edge back to node in progress skipped")
		return
	}
	if h.visited[i] {
		return
	}
	h.processing[i] = true

	it := h.items[i]
	it.Depth = depth
	h.out = append(h.out, it)

	for _, c := range h.byStart(h.children[i]) {
		h.visit(c, depth+1)
	}

	h.processing[i] = false
	h.visited[i] = true
}

func (h *hierarchy) walkRoots() {
	var roots []int
	for i := range h.items {
		if h.parent[i] == -1 && len(h.children[i]) > 0 {
			roots = append(roots, i)
		}
	}
	for _, r := range h.byStart(roots) {
		h.visit(r, 0)
	}
}

// walkCycles handles nodes that no root reaches. Each such node hangs below a
// parent cycle; the cycle member with the earliest start becomes the entry
// point, its parent edge is dropped, and the walk proceeds as for a root.
func (h *hierarchy) walkCycles() {
	for {
		start := -1
		for i := range h.items {
			if !h.visited[i] && h.parent[i] != -1 {
				start = i
				break
			}
		}
		if start == -1 {
			return
		}

		members := h.cycleFrom(start)
		entry := h.byStart(members)[0]

		p := h.parent[entry]
		h.note(DiagCycle, h.items[entry], "parent "+h.items[p].ID+" dropped")
		h.children[p] = removeIndex(h.children[p], entry)
		h.items[entry].ParentID = ""
		h.parent[entry] = -1
		h.visit(entry, 0)
	}
}

// cycleFrom follows parent links from i until a node repeats and returns the
// nodes on the cycle.
func (h *hierarchy) cycleFrom(i int) []int {
	seen := make(map[int]int)
	path := make([]int, 0)
	for {
		if at, ok := seen[i]; ok {
			return path[at:]
		}
		seen[i] = len(path)
		path = append(path, i)
		i = h.parent[i]
	}
}

func removeIndex(idx []int, v int) []int {
	out := idx[:0:0]
	for _, i := range idx {
		if i != v {
			out = append(out, i)
		}
	}
	return out
}

func (h *hierarchy) appendOrphans() {
	var orphans []int
	for i := range h.items {
		if !h.visited[i] && h.parent[i] == -1 && len(h.children[i]) == 0 {
			orphans = append(orphans, i)
		}
	}
	if len(orphans) == 0 {
		return
	}

	sorted := h.byStart(orphans)
	members := make([]Item, 0, len(sorted))
	for _, i := range sorted {
		h.visited[i] = true
		members = append(members, h.items[i])
	}

	start, end, _ := Span(members)
	h.out = append(h.out, Item{
		ID:        OrphansID,
		Title:     OrphansTitle,
		Start:     start,
		End:       end,
		Synthetic: true,
	})
	h.out = append(h.out, members...)
}
