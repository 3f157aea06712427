package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"planview/internal/layout"
)

// CollapseRepo stores the collapsed groups of each view.
type CollapseRepo struct {
	db *sql.DB
}

func NewCollapseRepo(db *sql.DB) *CollapseRepo {
	return &CollapseRepo{db: db}
}

// Collapsed returns the set of collapsed group names for view.
func (r *CollapseRepo) Collapsed(ctx context.Context, view string) (layout.CollapseSet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_name FROM collapsed_groups WHERE view = ? ORDER BY group_name`, view)
	if err != nil {
		return layout.CollapseSet{}, fmt.Errorf("listing collapsed groups: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return layout.CollapseSet{}, fmt.Errorf("scanning collapsed group: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return layout.CollapseSet{}, fmt.Errorf("listing collapsed groups: %w", err)
	}
	return layout.NewCollapseSet(names...), nil
}

// SetCollapsed records group as collapsed or expanded.
func (r *CollapseRepo) SetCollapsed(ctx context.Context, view, group string, collapsed bool) error {
	return setCollapsed(ctx, r.db, view, group, collapsed)
}

// Toggle flips group's state and returns the new one.
func (r *CollapseRepo) Toggle(ctx context.Context, view, group string) (bool, error) {
	var now bool
	err := withinTx(ctx, r.db, func(tx DBTX) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM collapsed_groups WHERE view = ? AND group_name = ?`, view, group).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			now = true
		case err != nil:
			return fmt.Errorf("reading collapse state: %w", err)
		default:
			now = false
		}
		return setCollapsed(ctx, tx, view, group, now)
	})
	return now, err
}

func setCollapsed(ctx context.Context, db DBTX, view, group string, collapsed bool) error {
	if collapsed {
		_, err := db.ExecContext(ctx,
			`INSERT INTO collapsed_groups (view, group_name, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT (view, group_name) DO UPDATE SET updated_at = excluded.updated_at`,
			view, group, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("collapsing group: %w", err)
		}
		return nil
	}
	if _, err := db.ExecContext(ctx,
		`DELETE FROM collapsed_groups WHERE view = ? AND group_name = ?`, view, group); err != nil {
		return fmt.Errorf("expanding group: %w", err)
	}
	return nil
}
