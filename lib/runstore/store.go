// Package runstore keeps the history of workflow runs: what was searched,
// what was found and how each run concluded.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Run is one recorded workflow execution.
type Run struct {
	ID       string
	Identity string
	Time     time.Time
	Params   map[string]string
	Dates    []string
	// Outcome is "found", "no_slots" or "check_failed".
	Outcome  string
	Duration time.Duration
}

func (s Store) Record(ctx context.Context, run Run) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return err
	}
	dates, err := json.Marshal(run.Dates)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run (id, identity, time, params, dates, outcome, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Identity,
		run.Time.Unix(),
		string(params),
		string(dates),
		run.Outcome,
		run.Duration.Milliseconds(),
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (s Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, identity, time, params, dates, outcome, duration_ms
		FROM run
		ORDER BY time DESC, rowid DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var unix int64
		var params, dates string
		var durationMs int64
		err := rows.Scan(&r.ID, &r.Identity, &unix, &params, &dates, &r.Outcome, &durationMs)
		if err != nil {
			return nil, err
		}
		r.Time = time.Unix(unix, 0)
		r.Duration = time.Duration(durationMs) * time.Millisecond

		err = json.Unmarshal([]byte(params), &r.Params)
		if err != nil {
			slog.WarnContext(ctx, "failed to unmarshal run params", "err", err)
		}
		err = json.Unmarshal([]byte(dates), &r.Dates)
		if err != nil {
			slog.WarnContext(ctx, "failed to unmarshal run dates", "err", err)
		}

		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LastFound returns the dates of the most recent run for this identity that
// actually found slots, nil when there has never been one.
func (s Store) LastFound(ctx context.Context, identity string) ([]string, error) {
	var dates string
	err := s.db.QueryRowContext(ctx, `
		SELECT dates FROM run
		WHERE identity = ? AND outcome = 'found'
		ORDER BY time DESC, rowid DESC
		LIMIT 1`,
		identity,
	).Scan(&dates)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []string
	err = json.Unmarshal([]byte(dates), &out)
	return out, err
}
