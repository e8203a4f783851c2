// Package store caches exported type definitions in SQLite so repeated
// exports can skip definitions whose written form has not changed.
//
// Every export is a run with its own id. Record marks each definition it
// sees with the run; Prune drops the ones a run did not see.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/typedef"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Store is an open export cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the cache at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, wrap(err, "connect to database")
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, wrap(err, pragma)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, wrap(err, "apply schema")
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		db.Close()
		return nil, wrap(err, "set user_version")
	}

	Logger().Debug("export cache open", zap.String("path", path))
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func wrap(err error, detail string) *errors.Error {
	return errors.Wrap(errors.PhaseStore, errors.KindIO, err, detail)
}

// Run is one export pass.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
}

// RunStats summarizes a finished run.
type RunStats struct {
	Total   int
	Changed int
	Pruned  int
}

// Begin starts a run.
func (s *Store) Begin(ctx context.Context) (Run, error) {
	run := Run{ID: uuid.New(), StartedAt: s.now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		run.ID.String(), run.StartedAt.UnixMilli())
	if err != nil {
		return Run{}, wrap(err, "begin run")
	}
	return run, nil
}

// Finish records the stats of run.
func (s *Store) Finish(ctx context.Context, run Run, stats RunStats) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, total = ?, changed = ?, pruned = ?
		WHERE id = ?`,
		s.now().UnixMilli(), stats.Total, stats.Changed, stats.Pruned, run.ID.String())
	if err != nil {
		return wrap(err, "finish run")
	}
	return nil
}

// Record stores def under run. It reports whether the cached copy was
// missing or differed from def's JSON body, which covers CrcCode,
// GeneratorVersion and AssemblyName; unchanged rows are only marked seen.
func (s *Store) Record(ctx context.Context, run Run, def typedef.Definition) (bool, error) {
	h := def.Header()
	id := run.ID.String()

	body, err := typedef.Write(def)
	if err != nil {
		return false, err
	}

	var cached string
	err = s.db.QueryRowContext(ctx,
		`SELECT body FROM definitions WHERE full_name = ?`, h.CSharpFullName).Scan(&cached)
	switch {
	case err == nil && cached == string(body):
		if _, err := s.db.ExecContext(ctx,
			`UPDATE definitions SET seen_run = ? WHERE full_name = ?`, id, h.CSharpFullName); err != nil {
			return false, wrap(err, "mark "+h.CSharpFullName)
		}
		return false, nil
	case err != nil && err != sql.ErrNoRows:
		return false, wrap(err, "look up "+h.CSharpFullName)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO definitions
		(full_name, kind, type_tag, crc_code, assembly, body, run_id, seen_run, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_name) DO UPDATE SET
			kind = excluded.kind,
			type_tag = excluded.type_tag,
			crc_code = excluded.crc_code,
			assembly = excluded.assembly,
			body = excluded.body,
			run_id = excluded.run_id,
			seen_run = excluded.seen_run,
			updated_at = excluded.updated_at`,
		h.CSharpFullName,
		def.Kind().String(),
		def.TypeTag(),
		h.CrcCode,
		h.AssemblyName,
		string(body),
		id,
		id,
		s.now().UnixMilli(),
	)
	if err != nil {
		return false, wrap(err, "record "+h.CSharpFullName)
	}
	Logger().Debug("definition changed",
		zap.String("name", h.CSharpFullName),
		zap.Int64("crc", h.CrcCode))
	return true, nil
}

// Prune deletes definitions run did not see and returns how many went.
func (s *Store) Prune(ctx context.Context, run Run) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM definitions WHERE seen_run != ?`, run.ID.String())
	if err != nil {
		return 0, wrap(err, "prune")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(err, "prune")
	}
	return int(n), nil
}
