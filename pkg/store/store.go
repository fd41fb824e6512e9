// Package store persists wizard sessions in SQLite so the HTTP API can resume
// them across requests and restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Store keeps one row per session with the session itself as JSON.
type Store struct {
	db *sql.DB
}

// Summary is a session listing entry.
type Summary struct {
	ID        string       `json:"id"`
	Stage     wizard.Stage `json:"stage"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	// one writer keeps SQLite from reporting SQLITE_BUSY
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		stage      TEXT NOT NULL,
		data       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	return &Store{db: db}, nil
}

// Create stores sess under a new ID.
func (s *Store) Create(ctx context.Context, sess wizard.Session) (string, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, stage, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(sess.Stage), string(data), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// Get loads a session.
func (s *Store) Get(ctx context.Context, id string) (wizard.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return wizard.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return wizard.Session{}, fmt.Errorf("loading session: %w", err)
	}

	var sess wizard.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return wizard.Session{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return sess, nil
}

// Save replaces an existing session.
func (s *Store) Save(ctx context.Context, id string, sess wizard.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET stage = ?, data = ?, updated_at = ? WHERE id = ?`,
		string(sess.Stage), string(data), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns the most recently updated sessions first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage, created_at, updated_at FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var stage string
		if err := rows.Scan(&sum.ID, &stage, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.Stage = wizard.Stage(stage)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
