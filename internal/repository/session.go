package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/braillearn/backend/internal/domain/entities"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("open session already exists")
)

// uniqueViolation is the PostgreSQL error code raised when the partial unique
// index on open (user_id, lesson_id) pairs rejects a duplicate insert.
const uniqueViolation = "23505"

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetByID retrieves a session by its id.
// Returns ErrSessionNotFound if the record doesn't exist.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	query := `
		SELECT id, lesson_id, user_id, started_at, finished_at, score
		FROM sessions
		WHERE id = $1
	`

	var s entities.Session
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.LessonID,
		&s.UserID,
		&s.StartedAt,
		&s.FinishedAt,
		&s.Score,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("get by id: %w", err)
	}

	return &s, nil
}

// GetOpen retrieves the newest open session for a (student, lesson) pair.
// Returns ErrSessionNotFound if no open session exists.
func (r *SessionRepository) GetOpen(ctx context.Context, userID int64, lessonID string) (*entities.Session, error) {
	query := `
		SELECT id, lesson_id, user_id, started_at, finished_at, score
		FROM sessions
		WHERE user_id = $1 AND lesson_id = $2 AND finished_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`

	var s entities.Session
	err := r.db.QueryRow(ctx, query, userID, lessonID).Scan(
		&s.ID,
		&s.LessonID,
		&s.UserID,
		&s.StartedAt,
		&s.FinishedAt,
		&s.Score,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("get open: %w", err)
	}

	return &s, nil
}

// Create inserts a fresh open session with score 0.
// Returns ErrSessionExists when the open-session unique index rejects the
// insert because a concurrent request created one first.
func (r *SessionRepository) Create(ctx context.Context, s *entities.Session) error {
	query := `
		INSERT INTO sessions (id, lesson_id, user_id, started_at, score)
		VALUES ($1, $2, $3, now(), 0)
	`

	_, err := r.db.Exec(ctx, query, s.ID, s.LessonID, s.UserID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSessionExists
		}

		return fmt.Errorf("create: %w", err)
	}

	return nil
}

// FinishIfOpen marks a session finished. The conditional update is idempotent:
// racing requests cannot double-finish or overwrite an earlier timestamp.
func (r *SessionRepository) FinishIfOpen(ctx context.Context, id string) error {
	query := `
		UPDATE sessions
		SET finished_at = now()
		WHERE id = $1 AND finished_at IS NULL
	`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("finish if open: %w", err)
	}

	return nil
}
