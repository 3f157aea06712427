// Package edit converts pointer gestures on a visualization into date
// changes and commits them to the record's owner.
//
// Previewing is pure and may run on every pointer sample. Committing happens
// once per finished gesture and writes only the fields that changed.
package edit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"planview/internal/layout"
	"planview/internal/timeline"
)

var (
	// ErrInvertedRange rejects a resize that would put the end before the start.
	ErrInvertedRange  = errors.New("edit: end would precede start")
	ErrUnknownGesture = errors.New("edit: unknown gesture")
	ErrNotEditable    = errors.New("edit: item is not editable")
)

// GestureKind is what the pointer grabbed: the bar body or one of its edges.
type GestureKind string

const (
	Move        GestureKind = "move"
	ResizeStart GestureKind = "resize-start"
	ResizeEnd   GestureKind = "resize-end"
)

func ParseGestureKind(s string) (GestureKind, error) {
	switch k := GestureKind(strings.ToLower(strings.TrimSpace(s))); k {
	case Move, ResizeStart, ResizeEnd:
		return k, nil
	case "start":
		return ResizeStart, nil
	case "end":
		return ResizeEnd, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGesture, s)
	}
}

// Gesture is a pointer drag measured in pixels along the time axis.
type Gesture struct {
	ItemID        string
	Kind          GestureKind
	PixelDelta    float64
	PixelsPerUnit float64
	Granularity   timeline.Granularity
}

// Units is the drag rounded to whole calendar units.
func (g Gesture) Units() int {
	return timeline.DeltaToUnits(g.PixelDelta, g.PixelsPerUnit)
}

// Moved reports whether the gesture changes anything. Hosts use it to tell a
// click from a drag.
func (g Gesture) Moved() bool {
	return g.Units() != 0
}

// Proposal is the date range an item would have after a gesture.
type Proposal struct {
	ItemID    string
	Start     time.Time
	End       time.Time
	OrigStart time.Time
	OrigEnd   time.Time
}

func (p Proposal) StartChanged() bool { return !p.Start.Equal(p.OrigStart) }
func (p Proposal) EndChanged() bool   { return !p.End.Equal(p.OrigEnd) }
func (p Proposal) Changed() bool      { return p.StartChanged() || p.EndChanged() }

// Preview applies g to item without side effects. A resize that would invert
// the range returns ErrInvertedRange and an unchanged proposal.
func Preview(item layout.Item, g Gesture) (Proposal, error) {
	p := Proposal{
		ItemID:    item.ID,
		Start:     item.Start,
		End:       item.End,
		OrigStart: item.Start,
		OrigEnd:   item.End,
	}
	if item.Synthetic {
		return p, ErrNotEditable
	}

	n := g.Units()
	switch g.Kind {
	case Move:
		p.Start = timeline.AddUnits(item.Start, n, g.Granularity)
		p.End = timeline.AddUnits(item.End, n, g.Granularity)
	case ResizeStart:
		start := timeline.AddUnits(item.Start, n, g.Granularity)
		if start.After(item.End) {
			return p, ErrInvertedRange
		}
		p.Start = start
	case ResizeEnd:
		end := timeline.AddUnits(item.End, n, g.Granularity)
		if end.Before(item.Start) {
			return p, ErrInvertedRange
		}
		p.End = end
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownGesture, g.Kind)
	}
	return p, nil
}

// Drag is the caller-owned state of one gesture in progress, fed with the
// cumulative pixel delta of each pointer sample.
type Drag struct {
	item    layout.Item
	gesture Gesture
	last    Proposal
	moved   bool
}

func StartDrag(item layout.Item, kind GestureKind, pixelsPerUnit float64, g timeline.Granularity) *Drag {
	d := &Drag{
		item: item,
		gesture: Gesture{
			ItemID:        item.ID,
			Kind:          kind,
			PixelsPerUnit: pixelsPerUnit,
			Granularity:   g,
		},
	}
	d.last, _ = Preview(item, d.gesture)
	return d
}

// Sample previews the drag at pixelDelta. When the sample is invalid the
// last valid proposal is kept and returned with the error.
func (d *Drag) Sample(pixelDelta float64) (Proposal, error) {
	d.gesture.PixelDelta = pixelDelta
	if d.gesture.Moved() {
		d.moved = true
	}
	p, err := Preview(d.item, d.gesture)
	if err != nil {
		return d.last, err
	}
	d.last = p
	return p, nil
}

// Units is the latest sample rounded to whole calendar units.
func (d *Drag) Units() int { return d.gesture.Units() }

// Moved reports whether any sample so far crossed a unit boundary.
func (d *Drag) Moved() bool { return d.moved }

// Finish returns the proposal to commit: the last valid one.
func (d *Drag) Finish() Proposal { return d.last }
