package ics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	appLog "planview/internal/log"
	"planview/internal/normalize"
	"planview/internal/record"
)

var occurrenceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("planview:ics"))

// Feed exposes ICS subscriptions as read-only records. Occurrences are
// expanded over [now-Past, now+Ahead].
type Feed struct {
	Fetcher  *Fetcher
	Sources  []Source
	Location *time.Location

	Past  time.Duration
	Ahead time.Duration

	Now func() time.Time
}

func (f *Feed) Name() string { return "ics" }

func (f *Feed) Load(ctx context.Context) ([]record.Record, error) {
	if len(f.Sources) == 0 {
		return nil, nil
	}
	results, errs := f.Fetcher.FetchAll(ctx, f.Sources)
	if len(results) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	names := make(map[string]string, len(f.Sources))
	for _, s := range f.Sources {
		names[s.ID] = s.Name
		if s.Name == "" {
			names[s.ID] = s.ID
		}
	}

	var parsed []ParsedEvent
	for _, res := range results {
		evs, err := ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Warn("ics parse failed", "source", res.Source.ID, "err", err)
			continue
		}
		parsed = append(parsed, evs...)
	}

	from, to := f.window()
	expanded, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: f.Location,
		RangeStart:      from,
		RangeEnd:        to,
	})
	if err != nil {
		return nil, err
	}

	recs := make([]record.Record, 0, len(expanded.Occurrences))
	for _, occ := range expanded.Occurrences {
		recs = append(recs, OccurrenceRecord(occ, names[occ.SourceID]))
	}
	appLog.Debug("ics feed loaded", "sources", len(results), "occurrences", len(recs))
	return recs, nil
}

func (f *Feed) window() (time.Time, time.Time) {
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	past, ahead := f.Past, f.Ahead
	if past <= 0 {
		past = 31 * 24 * time.Hour
	}
	if ahead <= 0 {
		ahead = 180 * 24 * time.Hour
	}
	return now.Add(-past), now.Add(ahead)
}

// OccurrenceRecord converts one occurrence. All-day ends become inclusive
// (the last day the event covers) to match vault notes.
func OccurrenceRecord(occ Occurrence, calendar string) record.Record {
	end := occ.End
	if occ.AllDay {
		end = end.AddDate(0, 0, -1)
	}
	if end.Before(occ.Start) {
		end = occ.Start
	}

	props := normalize.Properties{
		"start":    normalize.Time(occ.Start),
		"end":      normalize.Time(end),
		"allDay":   normalize.Bool(occ.AllDay),
		"calendar": normalize.String(calendar),
		"uid":      normalize.String(occ.UID),
	}
	if occ.Location != "" {
		props["location"] = normalize.String(occ.Location)
	}
	if occ.Description != "" {
		props["description"] = normalize.String(occ.Description)
	}

	title := occ.Summary
	if title == "" {
		title = "(untitled)"
	}
	key := occ.SourceID + "\x00" + occ.UID + "\x00" + occ.InstanceKey
	return record.Record{
		ID:         uuid.NewSHA1(occurrenceNamespace, []byte(key)).String(),
		Title:      title,
		Ref:        "ics:" + occ.SourceID + "/" + occ.UID,
		Properties: props,
		Source:     occ.SourceID,
		ReadOnly:   true,
	}
}
