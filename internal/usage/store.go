package usage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS work_units (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT NOT NULL,
    node_id      TEXT NOT NULL DEFAULT '',
    slot         TEXT NOT NULL,
    slot_type    TEXT NOT NULL,
    project      TEXT NOT NULL,
    unit         TEXT NOT NULL,
    started_at   TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    duration_ms  INTEGER NOT NULL,
    points       REAL NOT NULL DEFAULT 0,
    synced       INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE (slot, unit, project, started_at)
);
CREATE INDEX IF NOT EXISTS idx_work_units_synced ON work_units(synced) WHERE synced = 0;
`

const insertSQL = `
	INSERT OR IGNORE INTO work_units (
		run_id, node_id, slot, slot_type, project, unit,
		started_at, completed_at, duration_ms, points
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store provides SQLite-backed storage for completed work units.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the record database at dbPath and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open record db: %w", err)
	}

	// WAL lets the syncer read while an ingestion writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func insertArgs(r UnitRecord) []any {
	return []any{
		r.RunID, r.NodeID, r.Slot, r.SlotType, r.Project, r.Unit,
		r.StartedAt.UTC().Format(time.RFC3339), r.CompletedAt.UTC().Format(time.RFC3339),
		r.DurationMs, r.Points,
	}
}

// Insert stores a record. A unit already stored with the same slot, unit,
// project and start time is silently ignored.
func (s *Store) Insert(r UnitRecord) error {
	if _, err := s.db.Exec(insertSQL, insertArgs(r)...); err != nil {
		return fmt.Errorf("insert work unit %s/%s: %w", r.Slot, r.Unit, err)
	}
	return nil
}

// InsertBatch stores records in one transaction and returns how many were new.
func (s *Store) InsertBatch(records []UnitRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		res, err := stmt.Exec(insertArgs(r)...)
		if err != nil {
			return 0, fmt.Errorf("insert work unit %s/%s: %w", r.Slot, r.Unit, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// QueryUnsynced returns up to limit records that have not been synced, oldest first.
func (s *Store) QueryUnsynced(limit int) ([]UnitRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, node_id, slot, slot_type, project, unit,
		       started_at, completed_at, duration_ms, points
		FROM work_units
		WHERE synced = 0
		ORDER BY id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsynced: %w", err)
	}
	defer rows.Close()

	var records []UnitRecord
	for rows.Next() {
		var r UnitRecord
		var startedAt, completedAt string
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.NodeID, &r.Slot, &r.SlotType, &r.Project, &r.Unit,
			&startedAt, &completedAt, &r.DurationMs, &r.Points,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			r.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339, completedAt); err == nil {
			r.CompletedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// MarkSynced sets the synced flag for the given record IDs.
func (s *Store) MarkSynced(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE work_units SET synced = 1 WHERE id = ?")
	if err != nil {
		return fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.Exec(id); err != nil {
			return fmt.Errorf("mark synced id=%d: %w", id, err)
		}
	}

	return tx.Commit()
}

// TotalPoints returns the points of every stored unit.
func (s *Store) TotalPoints() (float64, error) {
	var total float64
	if err := s.db.QueryRow("SELECT COALESCE(SUM(points), 0) FROM work_units").Scan(&total); err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return total, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
