// Package record defines the source-agnostic rows the views are built from.
package record

import (
	"context"
	"errors"
	"fmt"
	"sort"

	appLog "planview/internal/log"
	"planview/internal/normalize"
)

// ErrReadOnly is returned when an edit targets a record whose source cannot
// be written back.
var ErrReadOnly = errors.New("record is read-only")

// Record is one row from a vault note or a calendar feed.
type Record struct {
	ID    string
	Title string

	// Ref is the write-back address: the vault-relative path for notes, an
	// opaque key for feed occurrences.
	Ref string

	Properties normalize.Properties

	// Source names the origin ("vault" or an ICS source id).
	Source   string
	ReadOnly bool
}

// Source produces records.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Record, error)
}

// Change is one property value to write.
type Change struct {
	Property string
	Value    string
}

// Writer persists changes on the record addressed by ref. All changes of one
// call land together or not at all.
type Writer interface {
	Update(ctx context.Context, ref string, changes ...Change) error
}

// Multi merges several sources. A failing source is logged and skipped so a
// dead feed does not blank the whole board.
type Multi []Source

func (m Multi) Name() string { return "multi" }

// Load returns the union of all sources, sorted by ID. It only fails when the
// context is done or every source failed.
func (m Multi) Load(ctx context.Context) ([]Record, error) {
	var (
		out  []Record
		errs []error
	)
	for _, src := range m {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := src.Load(ctx)
		if err != nil {
			appLog.Error("record source load failed", err, "source", src.Name())
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		appLog.Debug("record source loaded", "source", src.Name(), "count", len(recs))
		out = append(out, recs...)
	}
	if len(m) > 0 && len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Static is an in-memory source, mostly for tests and demos.
type Static struct {
	Label   string
	Records []Record
}

func (s Static) Name() string { return s.Label }

func (s Static) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Record, len(s.Records))
	copy(out, s.Records)
	return out, nil
}

// Index maps records by ID.
func Index(recs []Record) map[string]Record {
	out := make(map[string]Record, len(recs))
	for _, r := range recs {
		out[r.ID] = r
	}
	return out
}
