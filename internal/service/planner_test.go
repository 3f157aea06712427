package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planview/internal/config"
	"planview/internal/edit"
	"planview/internal/layout"
	"planview/internal/store"
	"planview/internal/vault"
	"planview/internal/view"
)

type fixture struct {
	planner *Planner
	dir     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("a.md", "---\nid: a\ntitle: Alpha\nstart: 2024-01-02\nend: 2024-01-04\nproject: X\nstatus: todo\n---\nbody\n")
	write("b.md", "---\nid: b\ntitle: Beta\nstart: 2024-01-10T09:30\nend: 2024-01-10T10:30\nproject: X\nstatus: done\n---\n")

	cfg := &config.Config{Views: []view.Config{
		{Name: "plan", Kind: view.KindGantt, GroupBy: "project"},
		{Name: "cal", Kind: view.KindCalendar},
		{Name: "work", Kind: view.KindBoard, Columns: []string{"todo", "doing", "done"}},
	}}
	cfg.Normalize()
	require.NoError(t, cfg.Validate())

	db, err := store.OpenDB(":memory:")
	require.NoError(t, err)

	notes := vault.New(dir)
	p := New(cfg, notes, notes, db)
	p.Now = func() time.Time { return time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = p.Close() })
	return fixture{planner: p, dir: dir}
}

func (f fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestGantt(t *testing.T) {
	f := newFixture(t)
	v, err := f.planner.Gantt(context.Background(), "plan")
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", v.RangeStart)
	assert.Equal(t, "2024-01-31", v.RangeEnd)
	require.Len(t, v.Bands, 1)
	assert.Equal(t, "X", v.Bands[0].Name)
	assert.Len(t, v.Bars, 2)
}

func TestViewLookupErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.planner.Gantt(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownView)

	_, err = f.planner.Board(ctx, "plan")
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = f.planner.ToggleGroup(ctx, "cal", "X")
	assert.ErrorIs(t, err, ErrWrongKind)

	k, err := f.planner.Kind("cal")
	require.NoError(t, err)
	assert.Equal(t, view.KindCalendar, k)
	assert.Len(t, f.planner.Views(), 3)
}

func TestGesture_PreviewWritesNothing(t *testing.T) {
	f := newFixture(t)
	before := f.read(t, "a.md")

	res, err := f.planner.Gesture(context.Background(), "plan", GestureRequest{
		ItemID: "a", Kind: "move", PixelDelta: 40, PixelsPerUnit: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-04", res.Start)
	assert.Equal(t, "2024-01-06", res.End)
	assert.Equal(t, 2, res.Units)
	assert.True(t, res.Changed)
	assert.False(t, res.Committed)
	assert.Equal(t, before, f.read(t, "a.md"))
}

func TestGesture_CommitWritesAndLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.planner.Gesture(ctx, "plan", GestureRequest{
		ItemID: "a", Kind: "move", PixelDelta: 40, PixelsPerUnit: 20, Commit: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.NotEmpty(t, res.GestureID)
	assert.Len(t, res.Writes, 2)

	note := f.read(t, "a.md")
	assert.Contains(t, note, "start: 2024-01-04")
	assert.Contains(t, note, "end: 2024-01-06")
	assert.Contains(t, note, "body")

	hist, err := f.planner.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	for _, h := range hist {
		assert.Equal(t, res.GestureID, h.GestureID)
		assert.Equal(t, "a", h.ItemID)
		assert.Equal(t, "plan", h.View)
	}

	v, err := f.planner.Gantt(ctx, "plan")
	require.NoError(t, err)
	item, ok := v.Layout.Find("a")
	require.True(t, ok)
	assert.Equal(t, 4, item.Start.Day(), "snapshot reloaded after commit")
}

func TestGesture_KeepsClock(t *testing.T) {
	f := newFixture(t)

	_, err := f.planner.Gesture(context.Background(), "plan", GestureRequest{
		ItemID: "b", Kind: "move", PixelDelta: 10, PixelsPerUnit: 10, Commit: true,
	})
	require.NoError(t, err)

	note := f.read(t, "b.md")
	assert.Contains(t, note, "start: 2024-01-11T09:30")
	assert.Contains(t, note, "end: 2024-01-11T10:30")
}

func TestGesture_InvertingResizeIsRefused(t *testing.T) {
	f := newFixture(t)
	before := f.read(t, "a.md")

	_, err := f.planner.Gesture(context.Background(), "plan", GestureRequest{
		ItemID: "a", Kind: "resize-end", PixelDelta: -100, PixelsPerUnit: 20, Commit: true,
	})
	assert.ErrorIs(t, err, edit.ErrInvertedRange)
	assert.Equal(t, before, f.read(t, "a.md"))
}

func TestGesture_UnknownItemAndKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.planner.Gesture(ctx, "plan", GestureRequest{ItemID: "zzz", Kind: "move"})
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = f.planner.Gesture(ctx, "plan", GestureRequest{ItemID: "a", Kind: "spin"})
	assert.ErrorIs(t, err, edit.ErrUnknownGesture)
}

func TestGesture_WidthDerivesScale(t *testing.T) {
	f := newFixture(t)

	// January has 31 day units; 310px gives 10px per day.
	res, err := f.planner.Gesture(context.Background(), "plan", GestureRequest{
		ItemID: "a", Kind: "resize-end", PixelDelta: 30, Width: 310,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-07", res.End)
}

func TestToggleGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	on, err := f.planner.ToggleGroup(ctx, "plan", "X")
	require.NoError(t, err)
	assert.True(t, on)

	v, err := f.planner.Gantt(ctx, "plan")
	require.NoError(t, err)
	assert.True(t, v.Bands[0].Collapsed)
	assert.Empty(t, v.Bars)

	require.NoError(t, f.planner.SetGroup(ctx, "plan", "X", false))
	v, err = f.planner.Gantt(ctx, "plan")
	require.NoError(t, err)
	assert.Len(t, v.Bars, 2)
}

func TestMoveCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.planner.MoveCard(ctx, "work", "a", "done")
	require.NoError(t, err)
	assert.Equal(t, "status", w.Property)
	assert.Contains(t, f.read(t, "a.md"), "status: done")

	b, err := f.planner.Board(ctx, "work")
	require.NoError(t, err)
	for _, col := range b.Columns {
		if col.Name == "done" {
			assert.Equal(t, 2, col.Count)
		}
		if col.Name == "todo" {
			assert.Equal(t, 0, col.Count)
		}
	}

	_, err = f.planner.MoveCard(ctx, "work", "a", layout.NoGroup)
	require.NoError(t, err)
	b, err = f.planner.Board(ctx, "work")
	require.NoError(t, err)
	last := b.Columns[len(b.Columns)-1]
	assert.Equal(t, layout.NoGroup, last.Name)
	assert.Equal(t, 1, last.Count)
}

func TestCalendar_DefaultsToCurrentMonth(t *testing.T) {
	f := newFixture(t)
	v, err := f.planner.Calendar(context.Background(), "cal", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2024-01", v.Month)
	assert.Equal(t, "Monday", v.WeekStart)
}
