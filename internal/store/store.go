// Package store is the persistence layer: an embedded SQLite database
// holding the append-only session and generation log. All mutable state in
// the system lives here; writes are serialized on a single connection.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/papergen/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// One connection keeps writes serialized within the process.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_label TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		last_activity DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS generation_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		exam_title TEXT NOT NULL DEFAULT '',
		requested_count INTEGER NOT NULL,
		total_marks INTEGER NOT NULL DEFAULT 0,
		duration INTEGER NOT NULL DEFAULT 0,
		categories TEXT NOT NULL DEFAULT '[]',
		difficulty TEXT NOT NULL DEFAULT '',
		topics_used TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(session_id)
	);

	CREATE TABLE IF NOT EXISTS generated_questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		category TEXT NOT NULL,
		topic TEXT NOT NULL,
		marks INTEGER NOT NULL CHECK (marks >= 1),
		cognitive_level TEXT NOT NULL,
		difficulty TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (request_id) REFERENCES generation_requests(id)
	);

	CREATE TABLE IF NOT EXISTS analytics_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id INTEGER NOT NULL UNIQUE,
		type_counts TEXT NOT NULL DEFAULT '{}',
		topic_counts TEXT NOT NULL DEFAULT '{}',
		cognitive_counts TEXT NOT NULL DEFAULT '{}',
		total_questions INTEGER NOT NULL DEFAULT 0,
		total_marks INTEGER NOT NULL DEFAULT 0,
		quality_score REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (request_id) REFERENCES generation_requests(id)
	);

	CREATE TABLE IF NOT EXISTS file_uploads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_kind TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		purpose TEXT NOT NULL CHECK (purpose IN ('syllabus', 'analysis')),
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(session_id)
	);

	CREATE TABLE IF NOT EXISTS export_activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id INTEGER NOT NULL,
		format TEXT NOT NULL,
		file_name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (request_id) REFERENCES generation_requests(id)
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT '',
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(session_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// OpenSession creates a new session with an opaque id.
func (s *Store) OpenSession(userLabel, userAgent string) (model.Session, error) {
	now := time.Now().UTC()
	sess := model.Session{
		ID:           uuid.NewString(),
		UserLabel:    userLabel,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, user_label, user_agent, created_at, last_activity)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.UserLabel, sess.UserAgent, sess.CreatedAt, sess.LastActivity,
	)
	if err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// GetSession returns a session by id, or nil if it does not exist.
func (s *Store) GetSession(id string) (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRow(
		`SELECT session_id, user_label, user_agent, created_at, last_activity
		 FROM sessions WHERE session_id = ?`, id,
	).Scan(&sess.ID, &sess.UserLabel, &sess.UserAgent, &sess.CreatedAt, &sess.LastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// TouchSession bumps the session's last activity timestamp.
func (s *Store) TouchSession(id string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET last_activity = ? WHERE session_id = ?`,
		time.Now().UTC(), id,
	)
	return err
}

// SessionCount returns the number of sessions ever opened.
func (s *Store) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}
