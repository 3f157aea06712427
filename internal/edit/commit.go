package edit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appLog "planview/internal/log"
	"planview/internal/normalize"
	"planview/internal/record"
)

var ErrCommitInFlight = errors.New("edit: a commit for this item is already in flight")

// Target is what a commit needs to know about the record behind an item.
type Target struct {
	ItemID   string
	Ref      string
	ReadOnly bool

	// StartProperty and EndProperty name the fields to write. An empty
	// EndProperty means the view has no end field and only Start is written.
	StartProperty string
	EndProperty   string

	// Clock keeps a time of day on written values; nil writes plain dates.
	StartClock *time.Time
	EndClock   *time.Time
}

// Request is one property write.
type Request struct {
	Ref      string `json:"ref"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Requests lists the writes p implies, only for fields that changed. Values
// are YYYY-MM-DD, or YYYY-MM-DDTHH:MM when the original carried a clock.
func Requests(t Target, p Proposal) []Request {
	var out []Request
	if p.StartChanged() && t.StartProperty != "" {
		out = append(out, Request{Ref: t.Ref, Property: t.StartProperty, Value: formatValue(p.Start, t.StartClock)})
	}
	if p.EndChanged() && t.EndProperty != "" {
		out = append(out, Request{Ref: t.Ref, Property: t.EndProperty, Value: formatValue(p.End, t.EndClock)})
	}
	return out
}

func formatValue(day time.Time, clock *time.Time) string {
	if clock == nil {
		return normalize.FormatDate(day)
	}
	c := clock.In(day.Location())
	at := time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, day.Location())
	return normalize.FormatDateTime(at)
}

// Committer writes proposals through a record.Writer and refuses a second
// commit for an item whose previous commit has not returned.
type Committer struct {
	Writer record.Writer

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewCommitter(w record.Writer) *Committer {
	return &Committer{Writer: w, inFlight: map[string]struct{}{}}
}

// Commit writes the changed fields of p in one Writer call, so a failure
// leaves the record as it was. Nothing is written when p changes nothing.
func (c *Committer) Commit(ctx context.Context, t Target, p Proposal) ([]Request, error) {
	if t.ReadOnly {
		return nil, fmt.Errorf("%s: %w", t.ItemID, record.ErrReadOnly)
	}
	if p.End.Before(p.Start) {
		return nil, ErrInvertedRange
	}
	reqs := Requests(t, p)
	if len(reqs) == 0 {
		return nil, nil
	}

	if !c.acquire(t.ItemID) {
		return nil, fmt.Errorf("%s: %w", t.ItemID, ErrCommitInFlight)
	}
	defer c.release(t.ItemID)

	changes := make([]record.Change, 0, len(reqs))
	for _, r := range reqs {
		changes = append(changes, record.Change{Property: r.Property, Value: r.Value})
	}
	if err := c.Writer.Update(ctx, t.Ref, changes...); err != nil {
		return nil, fmt.Errorf("committing %s: %w", t.Ref, err)
	}
	appLog.Info("edit committed", "item", t.ItemID, "ref", t.Ref, "writes", len(reqs))
	return reqs, nil
}

// SetProperty writes a single non-date value, as when a board card is dropped
// on another column.
func (c *Committer) SetProperty(ctx context.Context, t Target, property, value string) (Request, error) {
	if t.ReadOnly {
		return Request{}, fmt.Errorf("%s: %w", t.ItemID, record.ErrReadOnly)
	}
	if !c.acquire(t.ItemID) {
		return Request{}, fmt.Errorf("%s: %w", t.ItemID, ErrCommitInFlight)
	}
	defer c.release(t.ItemID)

	r := Request{Ref: t.Ref, Property: property, Value: value}
	if err := c.Writer.Update(ctx, r.Ref, record.Change{Property: property, Value: value}); err != nil {
		return Request{}, fmt.Errorf("committing %s.%s: %w", r.Ref, r.Property, err)
	}
	appLog.Info("edit committed", "item", t.ItemID, "ref", t.Ref, "property", property)
	return r, nil
}

func (c *Committer) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight == nil {
		c.inFlight = map[string]struct{}{}
	}
	if _, busy := c.inFlight[id]; busy {
		return false
	}
	c.inFlight[id] = struct{}{}
	return true
}

func (c *Committer) release(id string) {
	c.mu.Lock()
	delete(c.inFlight, id)
	c.mu.Unlock()
}
