// Package history records simulation results in a SQLite ledger.
//
// Only results are recorded. Module state is never persisted: every run
// starts from a freshly built network.
package history

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/db47h/pulsenet"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite" // SQLite driver
)

// Mode is the kind of computation recorded by a Run.
type Mode string

const (
	ModeBulk        Mode = "bulk"
	ModeExtrapolate Mode = "extrapolate"
)

// Run is one recorded simulation.
type Run struct {
	ID      int64
	Time    time.Time
	Source  string // netlist file name
	Digest  string // see Digest
	Modules int
	Mode    Mode

	// bulk count
	Presses uint64
	Low     uint64
	High    uint64

	// extrapolation
	Target    string
	Method    string
	Simulated uint64

	// Result is Low*High for bulk counts, the press number for extrapolations.
	Result uint64
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT    NOT NULL,
	source     TEXT    NOT NULL,
	digest     TEXT    NOT NULL,
	modules    INTEGER NOT NULL,
	mode       TEXT    NOT NULL,
	presses    INTEGER NOT NULL DEFAULT 0,
	low        INTEGER NOT NULL DEFAULT 0,
	high       INTEGER NOT NULL DEFAULT 0,
	target     TEXT    NOT NULL DEFAULT '',
	method     TEXT    NOT NULL DEFAULT '',
	simulated  INTEGER NOT NULL DEFAULT 0,
	result     TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
`

// Ledger is a SQLite backed list of runs.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create ledger directory")
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ledger")
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize ledger schema")
	}
	return &Ledger{db: db}, nil
}

// Close closes the ledger.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts r and sets its ID. A zero r.Time is set to the current time.
func (l *Ledger) Record(ctx context.Context, r *Run) error {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (created_at, source, digest, modules, mode, presses, low, high, target, method, simulated, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Time.UTC().Format(time.RFC3339Nano), r.Source, r.Digest, r.Modules, string(r.Mode),
		int64(r.Presses), int64(r.Low), int64(r.High), r.Target, r.Method, int64(r.Simulated),
		strconv.FormatUint(r.Result, 10))
	if err != nil {
		return errors.Wrap(err, "failed to record run")
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, "failed to get run id")
	}
	return nil
}

// Filter selects runs in List.
type Filter struct {
	// Digest, if not empty, only selects runs of that network.
	Digest string
	// Limit is the maximum number of runs returned. 0 means no limit.
	Limit int
}

// List returns the runs matching f, most recent first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]Run, error) {
	q := `SELECT id, created_at, source, digest, modules, mode, presses, low, high, target, method, simulated, result FROM runs`
	var args []any
	if f.Digest != "" {
		q += ` WHERE digest = ?`
		args = append(args, f.Digest)
	}
	q += ` ORDER BY id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                              Run
			created, mode, result          string
			presses, low, high, simulated int64
		)
		if err := rows.Scan(&r.ID, &created, &r.Source, &r.Digest, &r.Modules, &mode,
			&presses, &low, &high, &r.Target, &r.Method, &simulated, &result); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		if r.Time, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errors.Wrapf(err, "run %d: bad timestamp", r.ID)
		}
		if r.Result, err = strconv.ParseUint(result, 10, 64); err != nil {
			return nil, errors.Wrapf(err, "run %d: bad result", r.ID)
		}
		r.Mode = Mode(mode)
		r.Presses, r.Low, r.High, r.Simulated = uint64(presses), uint64(low), uint64(high), uint64(simulated)
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "failed to iterate runs")
}

// Digest returns a hash identifying the wiring of a network, independent of
// the formatting of its netlist.
func Digest(specs []pulsenet.ModuleSpec) (string, error) {
	var buf bytes.Buffer
	if err := pulsenet.Format(&buf, specs); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:8]), nil
}
