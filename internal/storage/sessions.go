package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"onboardgo/internal/models"
)

// SessionStore persists onboarding sessions, one row per session id.
type SessionStore interface {
	Upsert(ctx context.Context, session *models.Session) error
	ListAll(ctx context.Context) ([]models.Session, error)
	DeleteAll(ctx context.Context) error
}

// Store is the SQL implementation of SessionStore.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open, migrated database.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type sessionRow struct {
	ID          string        `db:"id"`
	UserID      string        `db:"user_id"`
	Steps       string        `db:"steps"`
	CompletedAt string        `db:"completed_at"`
	DropOffStep sql.NullInt64 `db:"drop_off_step"`
}

func (s *Store) upsertQuery() string {
	switch s.db.DriverName() {
	case "mysql":
		return `REPLACE INTO sessions (id, user_id, steps, completed_at, drop_off_step) VALUES (?, ?, ?, ?, ?)`
	case "postgres":
		return s.db.Rebind(`INSERT INTO sessions (id, user_id, steps, completed_at, drop_off_step)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				steps = EXCLUDED.steps,
				completed_at = EXCLUDED.completed_at,
				drop_off_step = EXCLUDED.drop_off_step`)
	default:
		return `INSERT OR REPLACE INTO sessions (id, user_id, steps, completed_at, drop_off_step) VALUES (?, ?, ?, ?, ?)`
	}
}

// Upsert inserts the session or replaces the existing row with the same id.
func (s *Store) Upsert(ctx context.Context, session *models.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	steps := session.Steps
	if steps == nil {
		steps = []models.Step{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	var dropOff sql.NullInt64
	if session.DropOffStep != nil {
		dropOff = sql.NullInt64{Int64: int64(*session.DropOffStep), Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, s.upsertQuery(),
		session.ID, session.UserID, string(stepsJSON), session.CompletedAt, dropOff,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// ListAll returns every session ordered by completed_at descending.
func (s *Store) ListAll(ctx context.Context) ([]models.Session, error) {
	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, steps, completed_at, drop_off_step FROM sessions ORDER BY completed_at DESC`,
	); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		session := models.Session{
			ID:          row.ID,
			UserID:      row.UserID,
			CompletedAt: row.CompletedAt,
		}
		if err := json.Unmarshal([]byte(row.Steps), &session.Steps); err != nil {
			return nil, fmt.Errorf("decode steps for session %s: %w", row.ID, err)
		}
		if row.DropOffStep.Valid {
			step := int(row.DropOffStep.Int64)
			session.DropOffStep = &step
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// DeleteAll removes every session.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
