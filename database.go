package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// TileRow is a checkpointed tile ownership record
type TileRow struct {
	Q      int
	R      int
	Owner  string
	Clicks int
}

// AccountRow represents an account record in the database
type AccountRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents account stats
type StatsRow struct {
	AccountID int64
	Captures  int
	Wins      int
	Losses    int
	Matches   int
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Captures int    `json:"captures"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tiles (
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		owner TEXT NOT NULL DEFAULT 'neutral',
		current_clicks INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (q, r)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		account_id INTEGER PRIMARY KEY REFERENCES accounts(id),
		captures INTEGER NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		matches INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		winner_team INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		team INTEGER NOT NULL DEFAULT 0,
		captures INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, account_id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_match_players_account ON match_players(account_id);
	CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts(username);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// --- Tile checkpoint ---

// LoadTiles returns all checkpointed tile rows. An empty result on a
// fresh store is normal; callers fall back to the generated map.
func (db *DB) LoadTiles() ([]TileRow, error) {
	rows, err := db.conn.Query("SELECT q, r, owner, current_clicks FROM tiles")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TileRow
	for rows.Next() {
		var t TileRow
		if err := rows.Scan(&t.Q, &t.R, &t.Owner, &t.Clicks); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// UpsertTile writes a tile's owner keyed on (q, r)
func (db *DB) UpsertTile(q, r int, owner string) error {
	_, err := db.conn.Exec(`
		INSERT INTO tiles (q, r, owner, current_clicks, updated_at)
		VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP)
		ON CONFLICT (q, r) DO UPDATE SET
			owner = excluded.owner,
			current_clicks = 0,
			updated_at = CURRENT_TIMESTAMP`,
		q, r, owner,
	)
	return err
}

// UpsertTiles writes a batch of tile rows in one transaction
func (db *DB) UpsertTiles(batch []TileRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO tiles (q, r, owner, current_clicks, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (q, r) DO UPDATE SET
			owner = excluded.owner,
			current_clicks = excluded.current_clicks,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range batch {
		if _, err := stmt.Exec(t.Q, t.R, t.Owner, t.Clicks); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteAllTiles wipes the tile checkpoint (game over)
func (db *DB) DeleteAllTiles() error {
	_, err := db.conn.Exec("DELETE FROM tiles")
	return err
}

// TileCount returns the number of checkpointed tiles
func (db *DB) TileCount() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&n)
	return n, err
}

// --- Accounts ---

// CreateAccount creates a new account with a stats row (returns account ID)
func (db *DB) CreateAccount(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO accounts (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	_, err = db.conn.Exec("INSERT INTO stats (account_id) VALUES (?)", id)
	return id, err
}

// GetAccountByUsername returns an account by username, nil if absent
func (db *DB) GetAccountByUsername(username string) (*AccountRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM accounts WHERE username = ?",
		username,
	)
	a := &AccountRow{}
	err := row.Scan(&a.ID, &a.Username, &a.PassHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM accounts WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns account stats, nil if absent
func (db *DB) GetStats(accountID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		"SELECT account_id, captures, wins, losses, matches FROM stats WHERE account_id = ?",
		accountID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.AccountID, &s.Captures, &s.Wins, &s.Losses, &s.Matches)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// UpdateStatsAfterMatch folds one match result into an account's stats
func (db *DB) UpdateStatsAfterMatch(accountID int64, captures int, won bool) error {
	winInc, lossInc := 0, 1
	if won {
		winInc, lossInc = 1, 0
	}
	_, err := db.conn.Exec(`
		UPDATE stats SET
			captures = captures + ?,
			wins = wins + ?,
			losses = losses + ?,
			matches = matches + 1
		WHERE account_id = ?`,
		captures, winInc, lossInc, accountID,
	)
	return err
}

// GetLeaderboard returns top accounts by captures
func (db *DB) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(`
		SELECT a.username, s.captures, s.wins, s.losses
		FROM stats s JOIN accounts a ON a.id = s.account_id
		ORDER BY s.captures DESC, s.wins DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Captures, &e.Wins, &e.Losses); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// --- Match history ---

// RecordMatch records a completed match and returns its ID
func (db *DB) RecordMatch(winnerTeam int, duration float64) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO matches (winner_team, duration) VALUES (?, ?)",
		winnerTeam, duration,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordMatchPlayer records an account's participation in a match
func (db *DB) RecordMatchPlayer(matchID, accountID int64, team, captures int) error {
	_, err := db.conn.Exec(
		`INSERT INTO match_players (match_id, account_id, team, captures)
		 VALUES (?, ?, ?, ?)`,
		matchID, accountID, team, captures,
	)
	return err
}

// --- Settings ---

// GetSetting returns a settings value, "" if absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting stores a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}
