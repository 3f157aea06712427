// Package service is the use-case layer shared by the HTTP server and the
// CLI: it reads the record snapshot, applies persisted view state and routes
// gestures through the committer.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"planview/internal/config"
	"planview/internal/edit"
	"planview/internal/ics"
	"planview/internal/layout"
	appLog "planview/internal/log"
	"planview/internal/normalize"
	"planview/internal/record"
	"planview/internal/refresh"
	"planview/internal/store"
	"planview/internal/vault"
	"planview/internal/view"
)

var (
	ErrUnknownView = errors.New("unknown view")
	ErrUnknownItem = errors.New("unknown item")
	ErrWrongKind   = errors.New("operation not supported by this view kind")
)

// Planner holds the wired dependencies. Build it with Open for a real
// config, or New when the sources are supplied by the caller.
type Planner struct {
	Config    *config.Config
	Snapshots *refresh.Snapshotter
	Collapse  *store.CollapseRepo
	Commits   *store.CommitLog
	Committer *edit.Committer

	Now func() time.Time

	db *sql.DB
}

// Open wires the vault, the ICS feeds and the sqlite view-state store from cfg.
func Open(cfg *config.Config) (*Planner, error) {
	db, err := store.OpenDB(cfg.Path(cfg.DBPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	notes := vault.New(cfg.Path(cfg.VaultDir))
	feed := &ics.Feed{
		Fetcher:  ics.NewFetcher(cfg.Path(cfg.CacheDir)),
		Sources:  cfg.Sources(),
		Location: cfg.Location(),
	}

	p := New(cfg, record.Multi{notes, feed}, notes, db)
	appLog.Info("planner opened",
		"vault", notes.Dir,
		"ics_count", len(cfg.ICS),
		"views", len(cfg.Views),
	)
	return p, nil
}

// New wires a planner around an already opened database.
func New(cfg *config.Config, src record.Source, w record.Writer, db *sql.DB) *Planner {
	return &Planner{
		Config:    cfg,
		Snapshots: refresh.NewSnapshotter(src),
		Collapse:  store.NewCollapseRepo(db),
		Commits:   store.NewCommitLog(db),
		Committer: edit.NewCommitter(w),
		Now:       time.Now,
		db:        db,
	}
}

func (p *Planner) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Refresh reloads every source.
func (p *Planner) Refresh(ctx context.Context) error {
	_, err := p.Snapshots.Refresh(ctx)
	return err
}

func (p *Planner) view(name string, kinds ...view.Kind) (view.Config, error) {
	cfg, ok := p.Config.View(name)
	if !ok {
		return view.Config{}, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	if len(kinds) == 0 {
		return cfg, nil
	}
	for _, k := range kinds {
		if cfg.Kind == k {
			return cfg, nil
		}
	}
	return view.Config{}, fmt.Errorf("view %s is a %s: %w", name, cfg.Kind, ErrWrongKind)
}

func (p *Planner) records(ctx context.Context) ([]record.Record, error) {
	snap, err := p.Snapshots.Ensure(ctx)
	if err != nil && len(snap.Records) == 0 {
		return nil, err
	}
	return snap.Records, nil
}

// Views lists the configured views with defaults applied.
func (p *Planner) Views() []view.Config {
	out := make([]view.Config, 0, len(p.Config.Views))
	for _, v := range p.Config.Views {
		out = append(out, v.WithDefaults())
	}
	return out
}

// Kind reports the kind of a configured view.
func (p *Planner) Kind(name string) (view.Kind, error) {
	cfg, err := p.view(name)
	if err != nil {
		return "", err
	}
	return cfg.Kind, nil
}

func (p *Planner) Gantt(ctx context.Context, name string) (view.GanttView, error) {
	cfg, err := p.view(name, view.KindGantt)
	if err != nil {
		return view.GanttView{}, err
	}
	recs, err := p.records(ctx)
	if err != nil {
		return view.GanttView{}, err
	}
	collapsed, err := p.Collapse.Collapsed(ctx, name)
	if err != nil {
		return view.GanttView{}, err
	}
	return view.Gantt(recs, cfg, collapsed, p.Config.Normalizer(), p.Now()), nil
}

// Calendar builds the month containing month; a zero month means the current one.
func (p *Planner) Calendar(ctx context.Context, name string, month time.Time) (view.CalendarView, error) {
	cfg, err := p.view(name, view.KindCalendar)
	if err != nil {
		return view.CalendarView{}, err
	}
	recs, err := p.records(ctx)
	if err != nil {
		return view.CalendarView{}, err
	}
	now := p.Now().In(p.Config.Location())
	if month.IsZero() {
		month = now
	}
	return view.Calendar(recs, cfg, month, p.Config.Weekday(), p.Config.Normalizer(), now), nil
}

func (p *Planner) Board(ctx context.Context, name string) (view.BoardView, error) {
	cfg, err := p.view(name, view.KindBoard)
	if err != nil {
		return view.BoardView{}, err
	}
	recs, err := p.records(ctx)
	if err != nil {
		return view.BoardView{}, err
	}
	collapsed, err := p.Collapse.Collapsed(ctx, name)
	if err != nil {
		return view.BoardView{}, err
	}
	return view.Board(recs, cfg, collapsed, p.Config.Normalizer()), nil
}

// ToggleGroup flips a Gantt group or board column and returns the new state.
func (p *Planner) ToggleGroup(ctx context.Context, name, group string) (bool, error) {
	if _, err := p.view(name, view.KindGantt, view.KindBoard); err != nil {
		return false, err
	}
	return p.Collapse.Toggle(ctx, name, group)
}

func (p *Planner) SetGroup(ctx context.Context, name, group string, collapsed bool) error {
	if _, err := p.view(name, view.KindGantt, view.KindBoard); err != nil {
		return err
	}
	return p.Collapse.SetCollapsed(ctx, name, group, collapsed)
}

// GestureRequest is a drag on a Gantt bar. When PixelsPerUnit is zero it is
// derived from Width, the measured chart width.
type GestureRequest struct {
	ItemID        string  `json:"item_id"`
	Kind          string  `json:"kind"`
	PixelDelta    float64 `json:"pixel_delta"`
	PixelsPerUnit float64 `json:"pixels_per_unit,omitempty"`
	Width         float64 `json:"width,omitempty"`
	Commit        bool    `json:"commit"`
}

type GestureResult struct {
	ItemID    string         `json:"item_id"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Units     int            `json:"units"`
	Changed   bool           `json:"changed"`
	Committed bool           `json:"committed"`
	GestureID string         `json:"gesture_id,omitempty"`
	Writes    []edit.Request `json:"writes,omitempty"`
}

// Gesture previews a drag and, when req.Commit is set, writes it back and
// reloads the snapshot. Inverting resizes are refused before anything is
// written.
func (p *Planner) Gesture(ctx context.Context, name string, req GestureRequest) (GestureResult, error) {
	cfg, err := p.view(name, view.KindGantt)
	if err != nil {
		return GestureResult{}, err
	}
	kind, err := edit.ParseGestureKind(req.Kind)
	if err != nil {
		return GestureResult{}, err
	}
	v, err := p.Gantt(ctx, name)
	if err != nil {
		return GestureResult{}, err
	}
	item, ok := v.Layout.Find(req.ItemID)
	if !ok {
		return GestureResult{}, fmt.Errorf("%w: %q", ErrUnknownItem, req.ItemID)
	}

	ppu := req.PixelsPerUnit
	if ppu <= 0 && req.Width > 0 {
		ppu = v.PixelsPerUnit(req.Width)
	}
	drag := edit.StartDrag(item, kind, ppu, cfg.Granularity)
	prop, err := drag.Sample(req.PixelDelta)
	if err != nil {
		return GestureResult{}, err
	}

	res := GestureResult{
		ItemID:  item.ID,
		Start:   normalize.FormatDate(prop.Start),
		End:     normalize.FormatDate(prop.End),
		Units:   drag.Units(),
		Changed: prop.Changed(),
	}
	if !req.Commit || !prop.Changed() {
		return res, nil
	}

	rec, err := p.record(ctx, item.ID)
	if err != nil {
		return res, err
	}
	writes, err := p.Committer.Commit(ctx, p.target(cfg, rec), prop)
	res.Writes = writes
	if len(writes) > 0 {
		res.GestureID = p.logCommit(ctx, name, item.ID, writes)
		p.refreshAfterCommit(ctx)
	}
	if err != nil {
		return res, err
	}
	res.Committed = true
	return res, nil
}

// MoveCard sets the board's status property of a card to column.
func (p *Planner) MoveCard(ctx context.Context, name, itemID, column string) (edit.Request, error) {
	cfg, err := p.view(name, view.KindBoard)
	if err != nil {
		return edit.Request{}, err
	}
	rec, err := p.record(ctx, itemID)
	if err != nil {
		return edit.Request{}, err
	}
	value := column
	if column == layout.NoGroup {
		value = ""
	}
	w, err := p.Committer.SetProperty(ctx, p.target(cfg, rec), cfg.StatusProperty, value)
	if err != nil {
		return edit.Request{}, err
	}
	p.logCommit(ctx, name, itemID, []edit.Request{w})
	p.refreshAfterCommit(ctx)
	return w, nil
}

// History returns the n most recent committed writes.
func (p *Planner) History(ctx context.Context, n int) ([]store.CommitEntry, error) {
	return p.Commits.Recent(ctx, n)
}

func (p *Planner) record(ctx context.Context, id string) (record.Record, error) {
	recs, err := p.records(ctx)
	if err != nil {
		return record.Record{}, err
	}
	rec, ok := record.Index(recs)[id]
	if !ok {
		return record.Record{}, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return rec, nil
}

// target keeps the time of day of values that had one, so a moved meeting
// stays at its hour.
func (p *Planner) target(cfg view.Config, rec record.Record) edit.Target {
	n := p.Config.Normalizer()
	t := edit.Target{
		ItemID:        rec.ID,
		Ref:           rec.Ref,
		ReadOnly:      rec.ReadOnly,
		StartProperty: cfg.StartProperty,
		EndProperty:   cfg.EndProperty,
	}
	if v := rec.Properties.Get(cfg.StartProperty); n.HasClock(v) {
		if at, ok := n.Time(v); ok {
			t.StartClock = &at
		}
	}
	if v := rec.Properties.Get(cfg.EndProperty); n.HasClock(v) {
		if at, ok := n.Time(v); ok {
			t.EndClock = &at
		}
	}
	return t
}

// logCommit records the writes. The edit itself already happened, so a
// failing audit log is only logged.
func (p *Planner) logCommit(ctx context.Context, viewName, itemID string, writes []edit.Request) string {
	entries := make([]store.CommitEntry, 0, len(writes))
	for _, w := range writes {
		entries = append(entries, store.CommitEntry{Ref: w.Ref, Property: w.Property, Value: w.Value})
	}
	id, err := p.Commits.Append(ctx, viewName, itemID, entries)
	if err != nil {
		appLog.Error("commit log append failed", err, "view", viewName, "item", itemID)
	}
	return id
}

func (p *Planner) refreshAfterCommit(ctx context.Context) {
	if _, err := p.Snapshots.Refresh(ctx); err != nil {
		appLog.Warn("refresh after commit failed", "err", err.Error())
	}
}

