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

// AccountRow represents a registered account
type AccountRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow tracks an account's lifetime duel record
type StatsRow struct {
	PlayerID    int64
	Wins        int
	Losses      int
	RoundsWon   int
	RoundsLost  int
	Kills       int
	DamageDealt int
	Playtime    float64 // seconds
}

// MatchSummaryRow is a persisted completed-match record
type MatchSummaryRow struct {
	MatchID  string
	P1       string
	P2       string
	Score1   int
	Score2   int
	WinnerID string
	Duration float64
	EndedAt  time.Time
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
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES accounts(id),
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		rounds_won INTEGER NOT NULL DEFAULT 0,
		rounds_lost INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		damage_dealt INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS matches (
		match_id TEXT PRIMARY KEY,
		p1 TEXT NOT NULL,
		p2 TEXT NOT NULL,
		score1 INTEGER NOT NULL DEFAULT 0,
		score2 INTEGER NOT NULL DEFAULT 0,
		winner_id TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		ended_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts(username);
	CREATE INDEX IF NOT EXISTS idx_matches_p1 ON matches(p1);
	CREATE INDEX IF NOT EXISTS idx_matches_p2 ON matches(p2);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// GetSetting returns a persisted setting value, or "" if absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting persists a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// CreateAccount creates a new account (returns account ID)
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
	_, err = db.conn.Exec("INSERT INTO stats (player_id) VALUES (?)", id)
	return id, err
}

// GetAccountByUsername returns an account by username, nil if not found
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

// GetStats returns an account's duel record
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		"SELECT player_id, wins, losses, rounds_won, rounds_lost, kills, damage_dealt, playtime FROM stats WHERE player_id = ?",
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Wins, &s.Losses, &s.RoundsWon, &s.RoundsLost, &s.Kills, &s.DamageDealt, &s.Playtime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// UpdateStatsAfterMatch folds one completed match into an account's record
func (db *DB) UpdateStatsAfterMatch(playerID int64, won bool, roundsWon, roundsLost, kills, damage int, duration float64) error {
	winInc, lossInc := 0, 0
	if won {
		winInc = 1
	} else {
		lossInc = 1
	}
	_, err := db.conn.Exec(`
		UPDATE stats SET
			wins = wins + ?,
			losses = losses + ?,
			rounds_won = rounds_won + ?,
			rounds_lost = rounds_lost + ?,
			kills = kills + ?,
			damage_dealt = damage_dealt + ?,
			playtime = playtime + ?
		WHERE player_id = ?`,
		winInc, lossInc, roundsWon, roundsLost, kills, damage, duration, playerID,
	)
	return err
}

// InsertMatchSummary persists one completed match
func (db *DB) InsertMatchSummary(s MatchSummary) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO matches (match_id, p1, p2, score1, score2, winner_id, duration, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.MatchID, s.P1, s.P2, s.Score1, s.Score2, s.WinnerID, s.Duration, s.EndedAt,
	)
	return err
}

// GetMatchHistory returns recent completed matches involving a player
func (db *DB) GetMatchHistory(playerID string, limit int) ([]MatchSummaryRow, error) {
	rows, err := db.conn.Query(`
		SELECT match_id, p1, p2, score1, score2, winner_id, duration, ended_at
		FROM matches
		WHERE p1 = ? OR p2 = ?
		ORDER BY ended_at DESC
		LIMIT ?`,
		playerID, playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchSummaryRow
	for rows.Next() {
		var r MatchSummaryRow
		if err := rows.Scan(&r.MatchID, &r.P1, &r.P2, &r.Score1, &r.Score2, &r.WinnerID, &r.Duration, &r.EndedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM accounts WHERE username = ?", username).Scan(&count)
	return count > 0, err
}
