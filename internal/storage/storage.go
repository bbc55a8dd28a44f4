// Package storage provides SQLite-backed persistence for cached editions
// and the shown-story history side channel.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oddsdesk/polypress/internal/models"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database for all persistence operations.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/polypress/data.db.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "polypress", "data.db")
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
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS editions (
			bucket_key   TEXT PRIMARY KEY,
			edition_blob TEXT NOT NULL,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			market_id  TEXT PRIMARY KEY,
			question   TEXT NOT NULL,
			last_shown INTEGER NOT NULL,
			last_odds  REAL NOT NULL,
			show_count INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_editions_created_at ON editions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_last_shown ON history(last_shown)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertEdition writes an edition under its bucket key. Concurrent
// generators racing for the same key do not error: the last writer wins
// and exactly one row per key survives.
func (s *Store) UpsertEdition(bucketKey string, edition *models.Edition) error {
	blob, err := json.Marshal(edition)
	if err != nil {
		return fmt.Errorf("failed to marshal edition: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO editions (bucket_key, edition_blob, created_at)
		VALUES (?,?,?)
		ON CONFLICT(bucket_key) DO UPDATE SET
			edition_blob=excluded.edition_blob,
			created_at=excluded.created_at`,
		bucketKey, string(blob), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert edition: %w", err)
	}
	return nil
}

// GetEdition loads the edition stored under bucketKey. A missing key
// returns (nil, nil).
func (s *Store) GetEdition(bucketKey string) (*models.CacheEntry, error) {
	row := s.db.QueryRow(`SELECT bucket_key, edition_blob, created_at FROM editions WHERE bucket_key = ?`, bucketKey)

	var entry models.CacheEntry
	var blob string
	var createdAtNano int64
	err := row.Scan(&entry.BucketKey, &blob, &createdAtNano)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get edition: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &entry.Edition); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edition: %w", err)
	}
	entry.CreatedAt = time.Unix(0, createdAtNano)
	return &entry, nil
}

// HistoryRow is one shown-story record.
type HistoryRow struct {
	MarketID  string
	Question  string
	LastShown time.Time
	LastOdds  float64
	ShowCount int
}

// RecordShown upserts a history row, bumping show_count when the market
// was shown before.
func (s *Store) RecordShown(marketID, question string, odds float64, shownAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO history (market_id, question, last_shown, last_odds, show_count)
		VALUES (?,?,?,?,1)
		ON CONFLICT(market_id) DO UPDATE SET
			question=excluded.question,
			last_shown=excluded.last_shown,
			last_odds=excluded.last_odds,
			show_count=history.show_count+1`,
		marketID, question, shownAt.UnixNano(), odds,
	)
	if err != nil {
		return fmt.Errorf("failed to record shown market: %w", err)
	}
	return nil
}

// GetHistory loads the history row for one market. A missing row returns
// (nil, nil).
func (s *Store) GetHistory(marketID string) (*HistoryRow, error) {
	row := s.db.QueryRow(`
		SELECT market_id, question, last_shown, last_odds, show_count
		FROM history WHERE market_id = ?`, marketID)

	var h HistoryRow
	var lastShownNano int64
	err := row.Scan(&h.MarketID, &h.Question, &lastShownNano, &h.LastOdds, &h.ShowCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	h.LastShown = time.Unix(0, lastShownNano)
	return &h, nil
}

// PruneHistory removes rows last shown before cutoff.
func (s *Store) PruneHistory(cutoff time.Time) error {
	if _, err := s.db.Exec(`DELETE FROM history WHERE last_shown < ?`, cutoff.UnixNano()); err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}
