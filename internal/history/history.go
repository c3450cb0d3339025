// Package history records recently watched channels in a local SQLite
// database. Only the channel, its title and the watch time are stored;
// playback positions are deliberately not persisted.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"urchin/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS watched (
	channel    TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	watched_at INTEGER NOT NULL
);`

// Store is the watch history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Touch records that channel was watched just now, updating the existing
// row if the channel was seen before.
func (s *Store) Touch(channel, title string) error {
	_, err := s.db.Exec(`
		INSERT INTO watched (channel, title, watched_at) VALUES (?, ?, ?)
		ON CONFLICT(channel) DO UPDATE SET title = excluded.title, watched_at = excluded.watched_at`,
		channel, title, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("recording watch: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, most recently watched first.
func (s *Store) Recent(limit int) ([]media.WatchEntry, error) {
	rows, err := s.db.Query(`
		SELECT channel, title, watched_at FROM watched
		ORDER BY watched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []media.WatchEntry
	for rows.Next() {
		var e media.WatchEntry
		if err := rows.Scan(&e.Channel, &e.Title, &e.WatchedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return entries, nil
}

// Remove deletes a channel from the history.
func (s *Store) Remove(channel string) error {
	if _, err := s.db.Exec(`DELETE FROM watched WHERE channel = ?`, channel); err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
