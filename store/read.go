package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/typedef"
)

// Entry is the cache metadata of one definition.
type Entry struct {
	FullName  string
	Kind      string
	CrcCode   int64
	Assembly  string
	RunID     uuid.UUID
	UpdatedAt time.Time
}

// Get decodes the cached definition named fullName.
func (s *Store) Get(ctx context.Context, fullName string) (typedef.Definition, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM definitions WHERE full_name = ?`, fullName).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(errors.PhaseStore, "cached definition", fullName)
	}
	if err != nil {
		return nil, wrap(err, "get "+fullName)
	}
	return typedef.Read([]byte(body))
}

// List returns every cached entry ordered by name. A non-empty assembly
// restricts the listing to that assembly.
func (s *Store) List(ctx context.Context, assembly string) ([]Entry, error) {
	query := `SELECT full_name, kind, crc_code, assembly, run_id, updated_at FROM definitions`
	var args []any
	if assembly != "" {
		query += ` WHERE assembly = ?`
		args = append(args, assembly)
	}
	query += ` ORDER BY full_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, "list")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			runID   string
			updated int64
		)
		if err := rows.Scan(&e.FullName, &e.Kind, &e.CrcCode, &e.Assembly, &runID, &updated); err != nil {
			return nil, wrap(err, "scan entry")
		}
		e.RunID, err = uuid.Parse(runID)
		if err != nil {
			return nil, errors.InvalidData(errors.PhaseStore, []string{e.FullName, "run_id"}, err.Error())
		}
		e.UpdatedAt = time.UnixMilli(updated)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err, "list")
	}
	return out, nil
}

// Delete removes the entry named fullName and reports whether it existed.
func (s *Store) Delete(ctx context.Context, fullName string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM definitions WHERE full_name = ?`, fullName)
	if err != nil {
		return false, wrap(err, "delete "+fullName)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap(err, "delete "+fullName)
	}
	return n > 0, nil
}

// LastRun returns the most recently started run.
func (s *Store) LastRun(ctx context.Context) (Run, RunStats, error) {
	var (
		id      string
		started int64
		stats   RunStats
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, total, changed, pruned FROM runs
		ORDER BY started_at DESC, rowid DESC LIMIT 1`).
		Scan(&id, &started, &stats.Total, &stats.Changed, &stats.Pruned)
	if err == sql.ErrNoRows {
		return Run{}, RunStats{}, errors.NotFound(errors.PhaseStore, "run", "last")
	}
	if err != nil {
		return Run{}, RunStats{}, wrap(err, "last run")
	}
	runID, err := uuid.Parse(id)
	if err != nil {
		return Run{}, RunStats{}, errors.InvalidData(errors.PhaseStore, []string{"runs", "id"}, err.Error())
	}
	return Run{ID: runID, StartedAt: time.UnixMilli(started)}, stats, nil
}
