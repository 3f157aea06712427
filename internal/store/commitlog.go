package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CommitEntry is one property write made by a committed gesture.
type CommitEntry struct {
	ID          int64
	GestureID   string
	View        string
	ItemID      string
	Ref         string
	Property    string
	Value       string
	CommittedAt time.Time
}

// CommitLog is an append-only audit of committed edits.
type CommitLog struct {
	db  *sql.DB
	now func() time.Time
}

func NewCommitLog(db *sql.DB) *CommitLog {
	return &CommitLog{db: db, now: time.Now}
}

// Append stores the writes of one gesture under a fresh gesture id, all in
// one transaction, and returns that id.
func (l *CommitLog) Append(ctx context.Context, view, itemID string, entries []CommitEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	gesture := uuid.NewString()
	at := l.now().UTC().Format(time.RFC3339Nano)

	err := withinTx(ctx, l.db, func(tx DBTX) error {
		for _, e := range entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO commits (gesture_id, view, item_id, ref, property, value, committed_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				gesture, view, itemID, e.Ref, e.Property, e.Value, at)
			if err != nil {
				return fmt.Errorf("inserting commit: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return gesture, nil
}

// Recent returns up to n entries, newest first.
func (l *CommitLog) Recent(ctx context.Context, n int) ([]CommitEntry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, gesture_id, view, item_id, ref, property, value, committed_at
		 FROM commits ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	defer rows.Close()

	var out []CommitEntry
	for rows.Next() {
		e, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	return out, nil
}

// Last returns the newest entry for itemID.
func (l *CommitLog) Last(ctx context.Context, itemID string) (CommitEntry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, gesture_id, view, item_id, ref, property, value, committed_at
		 FROM commits WHERE item_id = ? ORDER BY id DESC LIMIT 1`, itemID)
	e, err := scanCommit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CommitEntry{}, fmt.Errorf("commit for %s: %w", itemID, ErrNotFound)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCommit(s scanner) (CommitEntry, error) {
	var (
		e  CommitEntry
		at string
	)
	if err := s.Scan(&e.ID, &e.GestureID, &e.View, &e.ItemID, &e.Ref, &e.Property, &e.Value, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CommitEntry{}, err
		}
		return CommitEntry{}, fmt.Errorf("scanning commit: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return CommitEntry{}, fmt.Errorf("parsing commit time: %w", err)
	}
	e.CommittedAt = t
	return e, nil
}
