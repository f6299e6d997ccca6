package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alpha-radar/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS sources (
    handle TEXT PRIMARY KEY,
    user_id TEXT,
    last_tweet_id TEXT,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scan_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    contracts INTEGER DEFAULT 0,
    status TEXT DEFAULT 'running',
    error TEXT
);

CREATE TABLE IF NOT EXISTS contract_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER REFERENCES scan_runs(id),
    address TEXT NOT NULL,
    symbol TEXT,
    risk_score INTEGER,
    mention_count INTEGER,
    liquidity_usd REAL,
    rank INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS mention_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    address TEXT NOT NULL,
    source TEXT NOT NULL,
    post_id TEXT NOT NULL,
    posted_at TIMESTAMP,
    likes INTEGER DEFAULT 0,
    shares INTEGER DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(address, post_id)
);

CREATE INDEX IF NOT EXISTS idx_snapshot_run ON contract_snapshots(run_id);
CREATE INDEX IF NOT EXISTS idx_mention_addr ON mention_log(address);
`

// Store persists what survives a restart: source cursors, scan history,
// and per-run contract snapshots. The live ranked feed stays in memory.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveCursor upserts a source's resolved id and last-seen post id.
func (s *Store) SaveCursor(handle, userID, lastTweetID string) error {
	_, err := s.db.Exec(`
		INSERT INTO sources (handle, user_id, last_tweet_id, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(handle) DO UPDATE SET
			user_id = excluded.user_id,
			last_tweet_id = excluded.last_tweet_id,
			updated_at = CURRENT_TIMESTAMP`,
		handle, userID, lastTweetID)
	return err
}

// LoadCursor returns the persisted cursor for a handle; empty strings when
// the source has never been read.
func (s *Store) LoadCursor(handle string) (userID, lastTweetID string, err error) {
	row := s.db.QueryRow(`SELECT COALESCE(user_id,''), COALESCE(last_tweet_id,'') FROM sources WHERE handle = ?`, handle)
	err = row.Scan(&userID, &lastTweetID)
	if err == sql.ErrNoRows {
		return "", "", nil
	}
	return userID, lastTweetID, err
}

// BeginRun records the start of a scan cycle and returns its id.
func (s *Store) BeginRun(startedAt time.Time) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO scan_runs (started_at) VALUES (?)`, startedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishRun closes a scan cycle with its outcome.
func (s *Store) FinishRun(runID int64, contracts int, status, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE scan_runs SET finished_at = ?, contracts = ?, status = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC(), contracts, status, errMsg, runID)
	return err
}

// SaveSnapshots bulk-inserts the published ranking of one run.
func (s *Store) SaveSnapshots(runID int64, contracts []models.ScoredContract) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO contract_snapshots (run_id, address, symbol, risk_score, mention_count, liquidity_usd, rank)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, c := range contracts {
		liq := 0.0
		if c.Market != nil {
			liq = c.Market.LiquidityUSD
		}
		if _, err := stmt.Exec(runID, c.Address, c.Symbol, c.RiskScore, c.MentionCount, liq, i+1); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LogMention appends to the durable mention history. Duplicate
// (address, post) pairs are ignored.
func (s *Store) LogMention(m models.Mention) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO mention_log (address, source, post_id, posted_at, likes, shares)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.Address, m.Source, m.PostID, m.PostedAt, m.Likes, m.Shares)
	return err
}

// RunSummary is one row of scan history for the API.
type RunSummary struct {
	ID         int64      `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Contracts  int        `json:"contracts"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
}

// RecentRuns returns the latest scan cycles, newest first.
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, contracts, status, COALESCE(error,'')
		FROM scan_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &r.Contracts, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
