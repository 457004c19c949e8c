package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/infra/postgres"
)

// AttemptRepository writes and counts rows of the append-only attempt log.
// Attempts are never updated or deleted; derived session state (current step,
// tries remaining) is always recomputed from these rows.
type AttemptRepository struct {
	db *pgxpool.Pool
	tx *postgres.Transactor
}

func NewAttemptRepository(db *pgxpool.Pool, tx *postgres.Transactor) *AttemptRepository {
	return &AttemptRepository{db: db, tx: tx}
}

// CountCorrect returns the number of correct attempts in a session, which is
// the session's current step index.
func (r *AttemptRepository) CountCorrect(ctx context.Context, sessionID string) (int, error) {
	query := `SELECT COUNT(*) FROM attempts WHERE session_id = $1 AND correct = true`

	var count int
	err := r.db.QueryRow(ctx, query, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count correct: %w", err)
	}

	return count, nil
}

// CountAtStep returns the number of attempts (failed and skipped included)
// a session has made at the given step index.
func (r *AttemptRepository) CountAtStep(ctx context.Context, sessionID string, stepIndex int) (int, error) {
	query := `SELECT COUNT(*) FROM attempts WHERE session_id = $1 AND step_index = $2`

	var count int
	err := r.db.QueryRow(ctx, query, sessionID, stepIndex).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count at step: %w", err)
	}

	return count, nil
}

// Append inserts one attempt row.
func (r *AttemptRepository) Append(ctx context.Context, a *entities.Attempt) error {
	query := `
		INSERT INTO attempts (session_id, lesson_id, user_id, step_index, answer, correct, attempts, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`

	_, err := r.db.Exec(ctx, query,
		a.SessionID,
		a.LessonID,
		a.UserID,
		a.StepIndex,
		a.Answer,
		a.Correct,
		a.Attempts,
	)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}

	return nil
}

// RecordSubmission persists the outcome of one submit call as a single
// transaction: the attempt row, the score point when the answer was correct,
// and the conditional finish when it completed the last step. Either all of
// it commits or none of it does.
func (r *AttemptRepository) RecordSubmission(ctx context.Context, a *entities.Attempt, finish bool) error {
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		insert := `
			INSERT INTO attempts (session_id, lesson_id, user_id, step_index, answer, correct, attempts, ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`
		if _, err := tx.Exec(ctx, insert,
			a.SessionID,
			a.LessonID,
			a.UserID,
			a.StepIndex,
			a.Answer,
			a.Correct,
			a.Attempts,
		); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}

		if a.Correct {
			// Atomic increment, never read-modify-write on a cached value.
			if _, err := tx.Exec(ctx, `UPDATE sessions SET score = score + 1 WHERE id = $1`, a.SessionID); err != nil {
				return fmt.Errorf("increment score: %w", err)
			}
		}

		if finish {
			if _, err := tx.Exec(ctx, `UPDATE sessions SET finished_at = now() WHERE id = $1 AND finished_at IS NULL`, a.SessionID); err != nil {
				return fmt.Errorf("finish session: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}

	return nil
}
