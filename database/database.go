package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for lookups of playlists that don't exist.
var ErrNotFound = errors.New("not found")

type Database struct {
	db *sql.DB
}

type Playlist struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Owner     string          `json:"owner"`
	CreatedAt time.Time       `json:"createdAt"`
	Tracks    []PlaylistTrack `json:"tracks,omitempty"`
}

type PlaylistTrack struct {
	ID              int64     `json:"id"`
	VideoID         string    `json:"videoId"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	DurationSeconds int       `json:"duration"`
	AddedAt         time.Time `json:"addedAt"`
}

type PlayRecord struct {
	ID              int64     `json:"id"`
	VideoID         string    `json:"videoId"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	PlayedAt        time.Time `json:"playedAt"`
	DurationSeconds int       `json:"duration"`
}

type MostPlayedRecord struct {
	VideoID    string    `json:"videoId"`
	Title      string    `json:"title"`
	PlayCount  int       `json:"playCount"`
	LastPlayed time.Time `json:"lastPlayed"`
}

// New opens (or creates) the sqlite database. dbPath falls back to
// ./data/tunely.db when empty.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		dbPath = "data/tunely.db"
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			owner TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS playlist_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			video_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			added_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_playlist_tracks_playlist ON playlist_tracks(playlist_id)`,
		`CREATE TABLE IF NOT EXISTS play_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			video_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			played_at TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_played_at ON play_history(played_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_video_id ON play_history(video_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

func (d *Database) CreatePlaylist(name, owner string) (*Playlist, error) {
	now := time.Now().UTC()
	result, err := d.db.Exec(
		`INSERT INTO playlists (name, owner, created_at) VALUES (?, ?, ?)`,
		name, owner, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Playlist{ID: id, Name: name, Owner: owner, CreatedAt: now}, nil
}

func (d *Database) GetPlaylists() ([]Playlist, error) {
	rows, err := d.db.Query(`SELECT id, name, owner, created_at FROM playlists ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	return playlists, rows.Err()
}

func (d *Database) GetPlaylist(id int64) (*Playlist, error) {
	row := d.db.QueryRow(`SELECT id, name, owner, created_at FROM playlists WHERE id = ?`, id)
	p, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(
		`SELECT id, video_id, title, artist, duration_seconds, added_at
		 FROM playlist_tracks WHERE playlist_id = ? ORDER BY added_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t PlaylistTrack
		var addedAt string
		if err := rows.Scan(&t.ID, &t.VideoID, &t.Title, &t.Artist, &t.DurationSeconds, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		t.AddedAt = parseStoredTime(addedAt)
		p.Tracks = append(p.Tracks, t)
	}
	return p, rows.Err()
}

func (d *Database) DeletePlaylist(id int64) error {
	result, err := d.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_, err = d.db.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, id)
	return err
}

func (d *Database) AddTrack(playlistID int64, videoID, title, artist string, durationSeconds int) (*PlaylistTrack, error) {
	if _, err := d.GetPlaylist(playlistID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	result, err := d.db.Exec(
		`INSERT INTO playlist_tracks (playlist_id, video_id, title, artist, duration_seconds, added_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		playlistID, videoID, title, artist, durationSeconds, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}
	id, _ := result.LastInsertId()
	return &PlaylistTrack{
		ID: id, VideoID: videoID, Title: title, Artist: artist,
		DurationSeconds: durationSeconds, AddedAt: now,
	}, nil
}

func (d *Database) RemoveTrack(playlistID, trackID int64) error {
	result, err := d.db.Exec(
		`DELETE FROM playlist_tracks WHERE id = ? AND playlist_id = ?`, trackID, playlistID)
	if err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordPlay inserts a playback record; called after a successful audio
// resolution.
func (d *Database) RecordPlay(videoID, title, artist string, durationSeconds int) error {
	_, err := d.db.Exec(
		`INSERT INTO play_history (video_id, title, artist, played_at, duration_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		videoID, title, artist, time.Now().UTC().Format(time.RFC3339Nano), durationSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

func (d *Database) GetHistory(limit int) ([]PlayRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(
		`SELECT id, video_id, title, artist, played_at, duration_seconds
		 FROM play_history ORDER BY played_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []PlayRecord
	for rows.Next() {
		var r PlayRecord
		var playedAt string
		if err := rows.Scan(&r.ID, &r.VideoID, &r.Title, &r.Artist, &playedAt, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.PlayedAt = parseStoredTime(playedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (d *Database) GetMostPlayed(limit int) ([]MostPlayedRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.db.Query(
		`SELECT video_id, title, COUNT(*) as play_count, MAX(played_at) as last_played
		 FROM play_history GROUP BY video_id
		 ORDER BY play_count DESC, last_played DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query most played: %w", err)
	}
	defer rows.Close()

	var records []MostPlayedRecord
	for rows.Next() {
		var r MostPlayedRecord
		var lastPlayed string
		if err := rows.Scan(&r.VideoID, &r.Title, &r.PlayCount, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan most played row: %w", err)
		}
		r.LastPlayed = parseStoredTime(lastPlayed)
		records = append(records, r)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row rowScanner) (*Playlist, error) {
	var p Playlist
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Owner, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = parseStoredTime(createdAt)
	return &p, nil
}

func parseStoredTime(s string) time.Time {
	for _, format := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse stored timestamp %q", s)
	return time.Time{}
}
