package layout

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects how rows are assigned inside a band (the whole chart when
// ungrouped, or one group).
type Mode string

const (
	// ModePacked shares rows between non-overlapping items.
	ModePacked Mode = "packed"
	// ModeOnePerRow gives every item its own row in start order.
	ModeOnePerRow Mode = "one-per-row"
	// ModeHierarchy orders items parent-first, one per row.
	ModeHierarchy Mode = "hierarchy"
)

// ParseMode accepts the config spelling of a Mode. Empty means packed.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePacked:
		return ModePacked, nil
	case ModeOnePerRow, "sequential":
		return ModeOnePerRow, nil
	case ModeHierarchy, "tree":
		return ModeHierarchy, nil
	default:
		return "", fmt.Errorf("unknown layout mode %q", s)
	}
}

// CollapseSet is the caller-owned set of collapsed group names. The zero
// value is an empty set. Modifying methods return a new set.
type CollapseSet struct {
	names map[string]struct{}
}

// NewCollapseSet builds a set from names.
func NewCollapseSet(names ...string) CollapseSet {
	s := CollapseSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

func (s CollapseSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

func (s CollapseSet) Len() int { return len(s.names) }

// With returns a copy with name added or removed.
func (s CollapseSet) With(name string, collapsed bool) CollapseSet {
	out := NewCollapseSet(s.Names()...)
	if collapsed {
		out.names[name] = struct{}{}
	} else {
		delete(out.names, name)
	}
	return out
}

// Toggle returns a copy with name's membership flipped.
func (s CollapseSet) Toggle(name string) CollapseSet {
	return s.With(name, !s.Has(name))
}

// Names returns the members in sorted order.
func (s CollapseSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
