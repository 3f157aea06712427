// Package layout assigns display rows to time-ranged items: greedy interval
// packing, parent/child ordering, and grouping into collapsible bands.
//
// Every function here is a pure pass over its input. Slices passed in are
// never mutated; callers get fresh slices back. Anything the caller owns
// between passes (which groups are collapsed) comes in as an argument.
package layout

import (
	"sort"
	"time"
)

// NoGroup is the bucket for items that lack a value for the group-by property.
const NoGroup = "No Group"

// OrphansID identifies the synthetic header placed before orphaned items.
const OrphansID = "__orphans__"

// OrphansTitle is the label of the synthetic orphan header.
const OrphansTitle = "Orphans"

// Item is a time-ranged unit of work placed by the engine. Start and End are
// inclusive calendar days; End >= Start is kept by callers.
type Item struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time

	// Ref points back at the originating record. The engine only copies it.
	Ref string

	// Row is assigned by layout and meaningless before it runs.
	Row int

	Group    string
	ParentID string

	// Depth is the nesting level after a hierarchy pass (0 for roots).
	Depth int
	// Synthetic marks placeholder rows that have no backing record.
	Synthetic bool
	// Hidden marks members of a collapsed group.
	Hidden bool
}

// Overlaps reports whether two inclusive day ranges share at least one day.
func (it Item) Overlaps(other Item) bool {
	return !it.End.Before(other.Start) && !other.End.Before(it.Start)
}

// DiagnosticCode classifies a soft failure found while laying out.
type DiagnosticCode string

const (
	DiagParentNotFound DiagnosticCode = "parent_not_found"
	DiagParentByTitle  DiagnosticCode = "parent_matched_by_title"
	DiagSelfParent     DiagnosticCode = "self_parent"
	DiagCycle          DiagnosticCode = "cycle_detected"
)

// Diagnostic is a notice about one item. Diagnostics never stop layout.
type Diagnostic struct {
	Code   DiagnosticCode
	ItemID string
	Detail string
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// sortByStart orders items by start date, keeping input order on ties.
func sortByStart(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Start.Before(items[j].Start)
	})
}

// RowCount returns the number of rows spanned by items (max row + 1).
func RowCount(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Row+1 > n {
			n = it.Row + 1
		}
	}
	return n
}

// Span returns the earliest start and latest end across items.
func Span(items []Item) (start, end time.Time, ok bool) {
	for i, it := range items {
		if i == 0 || it.Start.Before(start) {
			start = it.Start
		}
		if i == 0 || it.End.After(end) {
			end = it.End
		}
	}
	return start, end, len(items) > 0
}
