// Package checkpoint tracks which files or cloud items have already been
// visited within one in-progress run, so a crash mid-run can resume without
// re-walking everything already processed. It is advisory, not a substitute
// for the cross-run index: a lost checkpoint just means a slower re-run, not
// lost correctness.
//
// Grounded on the teacher's resume.go (ResumeState, MarkFileProcessed,
// IsFileProcessed), upgraded from a line-oriented text file to a SQLite
// table, matching the teacher's own database.go schema-init/batch-insert
// habits (modernc.org/sqlite).
package checkpoint

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Kind distinguishes a local-filesystem run from a cloud-drive run.
type Kind string

const (
	KindLocal Kind = "local"
	KindCloud Kind = "cloud"
)

// Store is a SQLite-backed set of visited path-or-item-ids scoped to a run.
type Store struct {
	db    *sql.DB
	runID string
	kind  Kind
}

const schema = `
CREATE TABLE IF NOT EXISTS visited (
	run_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	entry TEXT NOT NULL,
	PRIMARY KEY (run_id, entry)
);
`

// Open opens (creating if necessary) the checkpoint database at dbPath,
// scoped to runID/kind.
func Open(dbPath, runID string, kind Kind) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: init schema: %w", err)
	}
	return &Store{db: db, runID: runID, kind: kind}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// MarkVisited records entry (a path or cloud item id) as visited in the
// current run.
func (s *Store) MarkVisited(entry string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO visited (run_id, kind, entry) VALUES (?, ?, ?)`,
		s.runID, string(s.kind), entry,
	)
	if err != nil {
		return fmt.Errorf("checkpoint: mark visited %s: %w", entry, err)
	}
	return nil
}

// IsVisited reports whether entry was already marked in the current run.
func (s *Store) IsVisited(entry string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM visited WHERE run_id = ? AND entry = ?`,
		s.runID, entry,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checkpoint: query visited %s: %w", entry, err)
	}
	return count > 0, nil
}

// Clear removes all visited entries for the current run. The Commit stage
// calls this on successful completion so a finished run leaves no stale
// resume state behind.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM visited WHERE run_id = ?`, s.runID)
	if err != nil {
		return fmt.Errorf("checkpoint: clear run %s: %w", s.runID, err)
	}
	return nil
}

// VisitedCount returns how many entries are recorded for the current run.
func (s *Store) VisitedCount() (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM visited WHERE run_id = ?`, s.runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: count visited: %w", err)
	}
	return count, nil
}
