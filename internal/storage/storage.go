// Package storage provides an opt-in SQLite journal of fulfillment toggles.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/auctionledger/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database holding the fulfillment journal.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/auctionledger/journal.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "auctionledger", "journal.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fulfillments (
			window_id      TEXT NOT NULL,
			direction      TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			fulfilled      INTEGER NOT NULL DEFAULT 0,
			updated_at     INTEGER NOT NULL,
			PRIMARY KEY (window_id, direction, participant_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fulfillments_window ON fulfillments(window_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveFulfillment records the latest state of a key. Unfulfilled keys are
// removed so the table only holds checked obligations.
func (s *Storage) SaveFulfillment(key models.FulfillmentKey, fulfilled bool) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	if !fulfilled {
		_, err := s.db.Exec(`
			DELETE FROM fulfillments WHERE window_id=? AND direction=? AND participant_id=?`,
			key.WindowID, string(key.Direction), key.ParticipantID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete fulfillment: %w", err)
		}
		return nil
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO fulfillments
			(window_id, direction, participant_id, fulfilled, updated_at)
		VALUES (?,?,?,?,?)`,
		key.WindowID, string(key.Direction), key.ParticipantID, boolToInt(fulfilled), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save fulfillment: %w", err)
	}
	return nil
}

// LoadFulfillments returns every journaled fulfilled key.
func (s *Storage) LoadFulfillments() (map[models.FulfillmentKey]bool, error) {
	rows, err := s.db.Query(`
		SELECT window_id, direction, participant_id, fulfilled
		FROM fulfillments`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fulfillments: %w", err)
	}
	defer rows.Close()

	out := make(map[models.FulfillmentKey]bool)
	for rows.Next() {
		var k models.FulfillmentKey
		var dir string
		var fulfilled int
		if err := rows.Scan(&k.WindowID, &dir, &k.ParticipantID, &fulfilled); err != nil {
			return nil, fmt.Errorf("failed to scan fulfillment: %w", err)
		}
		k.Direction = models.Direction(dir)
		out[k] = fulfilled != 0
	}
	return out, rows.Err()
}

// ClearWindow forgets every key of the window.
func (s *Storage) ClearWindow(windowID string) error {
	if _, err := s.db.Exec(`DELETE FROM fulfillments WHERE window_id = ?`, windowID); err != nil {
		return fmt.Errorf("failed to clear window %s: %w", windowID, err)
	}
	return nil
}

// countWindow returns how many keys of the window are journaled.
func (s *Storage) countWindow(windowID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM fulfillments WHERE window_id = ?`, windowID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count window %s: %w", windowID, err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
