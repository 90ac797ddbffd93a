package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/report"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

var _ store.Store = (*sqliteStore)(nil)

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	top_k INTEGER NOT NULL,
	threshold REAL NOT NULL,
	pages INTEGER NOT NULL,
	edges INTEGER NOT NULL,
	opportunities INTEGER NOT NULL,
	report_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS opportunities (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	score REAL NOT NULL,
	kind TEXT NOT NULL,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS similarities (
	run_id TEXT NOT NULL,
	url_a TEXT NOT NULL,
	url_b TEXT NOT NULL,
	score REAL NOT NULL,
	PRIMARY KEY(run_id, url_a, url_b),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_similarities_score ON similarities(run_id, score);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes the snapshot in one transaction, replacing a run with the
// same id.
func (s *sqliteStore) SaveRun(ctx context.Context, snap store.Snapshot) error {
	r := snap.Report
	if r.ID == "" {
		return fmt.Errorf("snapshot without run id: %w", internalerr.ErrInvalidInput)
	}
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := deleteRun(ctx, tx, r.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, created_at, top_k, threshold, pages, edges, opportunities, report_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Params.TopK, r.Params.Threshold,
		r.Pages, r.Edges, r.Opportunities, string(reportJSON)); err != nil {
		return err
	}

	opStmt, err := tx.PrepareContext(ctx, `
INSERT INTO opportunities (run_id, position, source, target, score, kind) VALUES (?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer opStmt.Close()
	for i, o := range snap.Opportunities {
		if _, err := opStmt.ExecContext(ctx, r.ID, i, o.Source, o.Target, o.Score, string(o.Kind)); err != nil {
			return fmt.Errorf("insert opportunity %s -> %s: %w", o.Source, o.Target, err)
		}
	}

	simStmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO similarities (run_id, url_a, url_b, score) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer simStmt.Close()
	for _, p := range snap.Similarities {
		if _, err := simStmt.ExecContext(ctx, r.ID, p.A, p.B, p.Score); err != nil {
			return fmt.Errorf("insert similarity %s ~ %s: %w", p.A, p.B, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns runs newest first
func (s *sqliteStore) ListRuns(ctx context.Context) ([]store.RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, top_k, threshold, pages, edges, opportunities
FROM runs
ORDER BY id DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.RunInfo
	for rows.Next() {
		var ri store.RunInfo
		var created string
		if err := rows.Scan(&ri.ID, &created, &ri.TopK, &ri.Threshold, &ri.Pages, &ri.Edges, &ri.Opportunities); err != nil {
			return nil, err
		}
		if ri.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s created_at: %w", ri.ID, err)
		}
		runs = append(runs, ri)
	}
	return runs, rows.Err()
}

// GetRun returns the stored report of a run
func (s *sqliteStore) GetRun(ctx context.Context, id string) (report.Report, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return report.Report{}, err
	}
	var r report.Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return report.Report{}, err
	}
	return r, nil
}

// DeleteRun removes a run and its rows
func (s *sqliteStore) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	n, err := deleteRun(ctx, tx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return tx.Commit()
}

// deleteRun clears child rows explicitly: foreign_keys is a per-connection
// pragma and the pool may hand out a connection without it.
func deleteRun(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	for _, q := range []string{
		`DELETE FROM opportunities WHERE run_id = ?`,
		`DELETE FROM similarities WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteStore) exists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return err
}

// Opportunities returns the opportunities of a run in saved order
func (s *sqliteStore) Opportunities(ctx context.Context, runID string) ([]opportunity.Opportunity, error) {
	if err := s.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT source, target, score, kind
FROM opportunities
WHERE run_id = ?
ORDER BY position;
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []opportunity.Opportunity
	for rows.Next() {
		var o opportunity.Opportunity
		var kind string
		if err := rows.Scan(&o.Source, &o.Target, &o.Score, &kind); err != nil {
			return nil, err
		}
		o.Kind = opportunity.Kind(kind)
		ops = append(ops, o)
	}
	return ops, rows.Err()
}

// Similarities returns the pairs of a run scoring at least minScore
func (s *sqliteStore) Similarities(ctx context.Context, runID string, minScore float64) ([]similarity.Pair, error) {
	if err := s.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT url_a, url_b, score
FROM similarities
WHERE run_id = ? AND score >= ?
ORDER BY score DESC, url_a, url_b;
`, runID, minScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []similarity.Pair
	for rows.Next() {
		var p similarity.Pair
		if err := rows.Scan(&p.A, &p.B, &p.Score); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
