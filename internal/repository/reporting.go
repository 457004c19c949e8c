package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/braillearn/backend/internal/domain/entities"
)

// ReportingRepository serves the read-only aggregates behind the teacher
// dashboard and student detail views. Everything here is derived from the
// attempt log and session rows; nothing is written.
type ReportingRepository struct {
	db *pgxpool.Pool
}

func NewReportingRepository(db *pgxpool.Pool) *ReportingRepository {
	return &ReportingRepository{db: db}
}

// CountLessons returns the total number of lessons, active or not.
func (r *ReportingRepository) CountLessons(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM lessons`

	var count int
	err := r.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}

	return count, nil
}

// StudentOverviews returns one dashboard row per student with attempt and
// completed-lesson aggregates.
func (r *ReportingRepository) StudentOverviews(ctx context.Context) ([]*entities.StudentOverview, error) {
	query := `
		SELECT u.id, u.full_name, u.username,
		       COUNT(a.id) AS attempts,
		       COUNT(a.id) FILTER (WHERE a.correct) AS corrects,
		       MAX(a.ts) AS last_activity,
		       (SELECT COUNT(DISTINCT s.lesson_id)
		        FROM sessions s
		        WHERE s.user_id = u.id AND s.finished_at IS NOT NULL) AS completed
		FROM users u
		LEFT JOIN attempts a ON a.user_id = u.id
		WHERE u.role = 'student'
		GROUP BY u.id
		ORDER BY u.full_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("student overviews: %w", err)
	}
	defer rows.Close()

	var overviews []*entities.StudentOverview
	for rows.Next() {
		var o entities.StudentOverview
		err = rows.Scan(
			&o.ID,
			&o.Name,
			&o.Username,
			&o.Attempts,
			&o.Corrects,
			&o.LastActivity,
			&o.Completed,
		)
		if err != nil {
			return nil, fmt.Errorf("student overviews: %w", err)
		}
		if o.Attempts > 0 {
			o.Accuracy = float64(o.Corrects) / float64(o.Attempts) * 100
		}
		overviews = append(overviews, &o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("student overviews: %w", err)
	}

	return overviews, nil
}

// LessonHistory returns a student's per-session lesson history, newest first.
func (r *ReportingRepository) LessonHistory(ctx context.Context, studentID int64) ([]*entities.LessonHistory, error) {
	query := `
		SELECT s.lesson_id, COALESCE(l.title, '') AS title, s.score, s.started_at, s.finished_at,
		       COUNT(a.id) AS total_attempts,
		       COUNT(a.id) FILTER (WHERE a.correct) AS correct_attempts
		FROM sessions s
		LEFT JOIN lessons l ON s.lesson_id = l.id
		LEFT JOIN attempts a ON s.id = a.session_id
		WHERE s.user_id = $1
		GROUP BY s.id, l.title
		ORDER BY s.started_at DESC
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("lesson history: %w", err)
	}
	defer rows.Close()

	var history []*entities.LessonHistory
	for rows.Next() {
		var h entities.LessonHistory
		err = rows.Scan(
			&h.LessonID,
			&h.Title,
			&h.Score,
			&h.StartedAt,
			&h.FinishedAt,
			&h.TotalAttempts,
			&h.CorrectAttempts,
		)
		if err != nil {
			return nil, fmt.Errorf("lesson history: %w", err)
		}
		history = append(history, &h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("lesson history: %w", err)
	}

	return history, nil
}

// StudentStats returns a student's overall activity aggregates.
func (r *ReportingRepository) StudentStats(ctx context.Context, studentID int64) (*entities.StudentStats, error) {
	query := `
		SELECT COUNT(DISTINCT s.lesson_id) AS lessons_attempted,
		       COUNT(DISTINCT s.lesson_id) FILTER (WHERE s.finished_at IS NOT NULL) AS lessons_completed,
		       COUNT(a.id) AS total_attempts,
		       COUNT(a.id) FILTER (WHERE a.correct) AS correct_attempts
		FROM sessions s
		LEFT JOIN attempts a ON s.id = a.session_id
		WHERE s.user_id = $1
	`

	var stats entities.StudentStats
	err := r.db.QueryRow(ctx, query, studentID).Scan(
		&stats.LessonsAttempted,
		&stats.LessonsCompleted,
		&stats.TotalAttempts,
		&stats.CorrectAttempts,
	)
	if err != nil {
		return nil, fmt.Errorf("student stats: %w", err)
	}

	if stats.TotalAttempts > 0 {
		stats.OverallAccuracy = float64(stats.CorrectAttempts) / float64(stats.TotalAttempts) * 100
	}

	return &stats, nil
}
