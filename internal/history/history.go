// Package history keeps a sqlite log of finished operations for the pacer
// CLI. This is demo-app telemetry; the scheduler itself stays stateless
// across restarts.
package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	logx "pacer/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	at       TEXT NOT NULL,
	key      TEXT NOT NULL,
	priority INTEGER NOT NULL,
	queue_ms INTEGER NOT NULL,
	run_ms   INTEGER NOT NULL,
	ok       INTEGER NOT NULL,
	err      TEXT
);
CREATE INDEX IF NOT EXISTS runs_at ON runs(at);
`

// Run is one finished operation.
type Run struct {
	At       time.Time
	Key      string
	Priority int
	QueueMS  int64
	RunMS    int64
	OK       bool
	Error    string
}

type Store struct {
	db   *sql.DB
	log  logx.Logger
	keep int

	opCount    atomic.Uint64
	pruneEvery uint64
}

// Open creates (or reuses) the database file and applies the schema.
// keep caps the retained row count; <= 0 picks a default.
func Open(path string, keep int, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if keep <= 0 {
		keep = 1000
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 1000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, log: log, keep: keep, pruneEvery: 500}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, r Run) error {
	if s == nil || s.db == nil {
		return nil
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(at, key, priority, queue_ms, run_ms, ok, err)
		 VALUES(?,?,?,?,?,?,?)`,
		r.At.Format(time.RFC3339Nano), r.Key, r.Priority, r.QueueMS, r.RunMS,
		boolInt(r.OK), nullStr(r.Error),
	)
	if err == nil && s.opCount.Add(1)%s.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		if perr := s.prune(pctx); perr != nil && !s.log.IsZero() {
			s.log.Debug("history prune failed", logx.Any("err", perr))
		}
		cancel()
	}
	return err
}

// Recent returns up to n newest runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, key, priority, queue_ms, run_ms, ok, err
		 FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r   Run
			at  string
			ok  int
			msg sql.NullString
		)
		if err := rows.Scan(&at, &r.Key, &r.Priority, &r.QueueMS, &r.RunMS, &ok, &msg); err != nil {
			return nil, err
		}
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		r.OK = ok != 0
		r.Error = msg.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id <= (SELECT MAX(id) FROM runs) - ?`, s.keep)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
