package campaign

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrSessionNotFound is returned for unknown or already-cleared sessions.
var ErrSessionNotFound = errors.New("campaign: session not found")

// Store persists wizard sessions keyed by session ID. Sessions are created
// on first trigger and cleared on the terminal transition or explicit
// abandonment.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteStore keeps sessions in a sqlite table so a restart does not drop
// half-composed campaigns.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS campaign_sessions (
  id TEXT PRIMARY KEY,
  state TEXT NOT NULL,
  sender_email TEXT NOT NULL DEFAULT '',
  password TEXT NOT NULL DEFAULT '',
  draft TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL
);`)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO campaign_sessions(id, state, sender_email, password, draft, updated_at)
VALUES(?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  state = excluded.state,
  sender_email = excluded.sender_email,
  password = excluded.password,
  draft = excluded.draft,
  updated_at = excluded.updated_at;`,
		sess.ID,
		string(sess.State),
		sess.SenderEmail,
		sess.Password,
		sess.Draft,
		sess.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, state, sender_email, password, draft, updated_at
FROM campaign_sessions
WHERE id = ?;`, id)

	var sess Session
	var state, updatedAt string
	err := row.Scan(&sess.ID, &state, &sess.SenderEmail, &sess.Password, &sess.Draft, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	sess.State = State(state)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return sess, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM campaign_sessions WHERE id = ?;`, id)
	return err
}
