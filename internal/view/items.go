package view

import (
	"time"

	appLog "planview/internal/log"
	"planview/internal/layout"
	"planview/internal/normalize"
	"planview/internal/record"
)

// Skipped records a record left out of a view and why.
type Skipped struct {
	RecordID string `json:"record_id"`
	Ref      string `json:"ref"`
	Reason   string `json:"reason"`
}

const (
	reasonNoStart  = "start is missing or not a date"
	reasonInverted = "end is before start"
)

// BuildItems converts records into layout items. A record without a usable
// start is skipped; a missing or unreadable end collapses to the start day;
// an end before the start is skipped rather than repaired.
func BuildItems(recs []record.Record, cfg Config, n normalize.Normalizer) ([]layout.Item, []Skipped) {
	cfg = cfg.WithDefaults()

	items := make([]layout.Item, 0, len(recs))
	var skipped []Skipped
	for _, rec := range recs {
		if !cfg.acceptsSource(rec.Source) {
			continue
		}
		start, end, reason := dateRange(rec, cfg, n.Date)
		if reason != "" {
			skipped = append(skipped, skip(rec, reason))
			continue
		}

		it := layout.Item{
			ID:    rec.ID,
			Title: rec.Title,
			Start: start,
			End:   end,
			Ref:   rec.Ref,
		}
		if cfg.GroupBy != "" {
			it.Group = normalize.DisplayString(rec.Properties.Get(cfg.GroupBy))
		}
		if cfg.ParentProperty != "" {
			it.ParentID = normalize.LinkTarget(rec.Properties.Get(cfg.ParentProperty))
		}
		items = append(items, it)
	}
	return items, skipped
}

// dateRange reads the configured start and end through read (Date for
// day-level views, Time when the clock matters).
func dateRange(rec record.Record, cfg Config, read func(normalize.RawValue) (time.Time, bool)) (start, end time.Time, reason string) {
	start, ok := read(rec.Properties.Get(cfg.StartProperty))
	if !ok {
		return time.Time{}, time.Time{}, reasonNoStart
	}
	end = start
	if raw := rec.Properties.Get(cfg.EndProperty); !raw.IsNull() {
		if e, ok := read(raw); ok {
			end = e
		}
	}
	if normalize.TruncateDay(end).Before(normalize.TruncateDay(start)) {
		return time.Time{}, time.Time{}, reasonInverted
	}
	return start, end, ""
}

func skip(rec record.Record, reason string) Skipped {
	appLog.Debug("record left out of view", "id", rec.ID, "ref", rec.Ref, "reason", reason)
	return Skipped{RecordID: rec.ID, Ref: rec.Ref, Reason: reason}
}

func zone(n normalize.Normalizer) *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}
