package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"steamrank/ranking"
)

// Run is one recorded scan.
type Run struct {
	ID         int64
	StartedAt  int64 // Unix timestamp
	FinishedAt int64
	Scanned    int
	Qualified  int
}

// RunEntry is one ranking row snapshotted for a run.
type RunEntry struct {
	RunID          int64
	Rank           int
	AppID          int
	Name           string
	TotalReviewsJP int
	PositiveRateJP float64
}

// RatePoint is one historical observation of an app's Japanese positive
// rate.
type RatePoint struct {
	RunID          int64
	FinishedAt     int64
	PositiveRateJP float64
	TotalReviewsJP int
}

// Store provides SQLite-backed history of completed runs so rankings can be
// compared across scans.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at INTEGER,
	finished_at INTEGER,
	scanned INTEGER,
	qualified INTEGER
);

CREATE TABLE IF NOT EXISTS run_entries (
	run_id INTEGER,
	rank INTEGER,
	appid INTEGER,
	name TEXT,
	total_reviews_jp INTEGER,
	positive_rate_jp REAL,
	PRIMARY KEY (run_id, appid)
);

CREATE INDEX IF NOT EXISTS idx_run_entries_appid ON run_entries(appid);
`

// New opens the SQLite database at dbPath, creates tables if they don't
// exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a run and its sorted ranking snapshot in one
// transaction, returning the run ID.
func (s *Store) RecordRun(startedAt, finishedAt time.Time, scanned int, entries []ranking.Entry) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: begin record run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (started_at, finished_at, scanned, qualified) VALUES (?, ?, ?, ?)`,
		startedAt.Unix(), finishedAt.Unix(), scanned, len(entries),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: run id: %w", err)
	}

	for i, e := range entries {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO run_entries (run_id, rank, appid, name, total_reviews_jp, positive_rate_jp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i+1, e.AppID, e.Name, e.TotalReviewsJP, e.PositiveRateJP,
		)
		if err != nil {
			return 0, fmt.Errorf("storage: insert run entry %d: %w", e.AppID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: commit record run: %w", err)
	}
	return runID, nil
}

// LastRun returns the most recently finished run, or nil if none exist.
func (s *Store) LastRun() (*Run, error) {
	var r Run
	err := s.db.QueryRow(
		`SELECT id, started_at, finished_at, scanned, qualified
		 FROM runs ORDER BY id DESC LIMIT 1`,
	).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Scanned, &r.Qualified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: last run: %w", err)
	}
	return &r, nil
}

// RunEntries returns a run's ranking snapshot in rank order.
func (s *Store) RunEntries(runID int64) ([]RunEntry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, rank, appid, name, total_reviews_jp, positive_rate_jp
		 FROM run_entries WHERE run_id = ? ORDER BY rank`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: run entries: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		if err := rows.Scan(&e.RunID, &e.Rank, &e.AppID, &e.Name, &e.TotalReviewsJP, &e.PositiveRateJP); err != nil {
			return nil, fmt.Errorf("storage: scan run entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate run entries: %w", err)
	}
	return entries, nil
}

// RateHistory returns an app's Japanese positive rate across the most
// recent runs, newest first.
func (s *Store) RateHistory(appid, limit int) ([]RatePoint, error) {
	rows, err := s.db.Query(
		`SELECT e.run_id, r.finished_at, e.positive_rate_jp, e.total_reviews_jp
		 FROM run_entries e JOIN runs r ON r.id = e.run_id
		 WHERE e.appid = ? ORDER BY e.run_id DESC LIMIT ?`, appid, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: rate history for app %d: %w", appid, err)
	}
	defer rows.Close()

	var points []RatePoint
	for rows.Next() {
		var p RatePoint
		if err := rows.Scan(&p.RunID, &p.FinishedAt, &p.PositiveRateJP, &p.TotalReviewsJP); err != nil {
			return nil, fmt.Errorf("storage: scan rate point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate rate points: %w", err)
	}
	return points, nil
}
