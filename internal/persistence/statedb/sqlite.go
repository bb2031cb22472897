package statedb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// KeyCompanionState holds the whole companion state document. Writers
// always replace the full value, never merge.
const KeyCompanionState = "companion_state"

// DB is the persistence gateway: a single sqlite file with a key→JSON
// document table plus a settlement history table.
type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settlements (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			kind TEXT NOT NULL,
			activity TEXT,
			coins INTEGER NOT NULL,
			exp INTEGER NOT NULL,
			message TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_at ON settlements(at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error { return d.db.Close() }

// LoadDoc reads one document. found is false when the key has never been
// written.
func (d *DB) LoadDoc(key string) (raw []byte, found bool, err error) {
	var s string
	err = d.db.QueryRow(`SELECT json FROM documents WHERE key = ?`, key).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(s), true, nil
}

// SaveDoc replaces one document whole.
func (d *DB) SaveDoc(key string, raw []byte) error {
	_, err := d.db.Exec(
		`INSERT INTO documents(key, json, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET json = excluded.json, updated_at = excluded.updated_at`,
		key, string(raw), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// LoadState and SaveState satisfy the engine's Store interface.
func (d *DB) LoadState() ([]byte, bool, error) { return d.LoadDoc(KeyCompanionState) }

func (d *DB) SaveState(raw []byte) error { return d.SaveDoc(KeyCompanionState, raw) }

type Settlement struct {
	Seq      int64
	At       string
	Kind     string
	Activity string
	Coins    int
	Exp      int
	Message  string
}

// RecordSettlement appends one settlement/event history row.
func (d *DB) RecordSettlement(at time.Time, kind, activity string, coins, exp int, message string) error {
	_, err := d.db.Exec(
		`INSERT INTO settlements(at, kind, activity, coins, exp, message) VALUES(?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), kind, activity, coins, exp, message,
	)
	return err
}

// RecentSettlements returns up to limit rows, newest first.
func (d *DB) RecentSettlements(limit int) ([]Settlement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		`SELECT seq, at, kind, COALESCE(activity, ''), coins, exp, COALESCE(message, '')
		 FROM settlements ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Settlement
	for rows.Next() {
		var s Settlement
		if err := rows.Scan(&s.Seq, &s.At, &s.Kind, &s.Activity, &s.Coins, &s.Exp, &s.Message); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
