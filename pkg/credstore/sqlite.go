// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	ssid TEXT PRIMARY KEY,
	password TEXT NOT NULL,
	last_connected TEXT NOT NULL
);`

// SQLiteStore keeps entries in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ = Store(&SQLiteStore{})

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads every entry.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ssid, password, last_connected FROM credentials`)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	defer rows.Close()

	m := make(map[string]Entry)
	for rows.Next() {
		var e Entry
		var last string
		if err := rows.Scan(&e.SSID, &e.Password, &last); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if t, err := time.ParseInLocation(TimeLayout, last, time.Local); err == nil {
			e.LastConnected = t
		}
		m[e.SSID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return m, nil
}

// Upsert replaces the entry for e.SSID.
func (s *SQLiteStore) Upsert(ctx context.Context, e Entry) error {
	const query = `INSERT OR REPLACE INTO credentials (ssid, password, last_connected) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, e.SSID, e.Password, e.LastConnected.Local().Format(TimeLayout)); err != nil {
		return fmt.Errorf("upsert credential %q: %w", e.SSID, err)
	}
	return nil
}
