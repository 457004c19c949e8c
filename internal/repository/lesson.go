package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/infra/postgres"
)

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrStepNotFound   = errors.New("lesson step not found")
)

type LessonRepository struct {
	db *pgxpool.Pool
	tx *postgres.Transactor
}

func NewLessonRepository(db *pgxpool.Pool, tx *postgres.Transactor) *LessonRepository {
	return &LessonRepository{db: db, tx: tx}
}

// GetByID retrieves a lesson by its id.
// Returns ErrLessonNotFound if the record doesn't exist.
func (r *LessonRepository) GetByID(ctx context.Context, id string) (*entities.Lesson, error) {
	query := `
		SELECT id, title, description, difficulty, order_index, active, created_at
		FROM lessons
		WHERE id = $1
	`

	var l entities.Lesson
	err := r.db.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.Difficulty,
		&l.OrderIndex,
		&l.Active,
		&l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLessonNotFound
		}

		return nil, fmt.Errorf("get by id: %w", err)
	}

	return &l, nil
}

// GetStep retrieves the step of a lesson at the given index.
// Returns ErrStepNotFound when the index is past the last step.
func (r *LessonRepository) GetStep(ctx context.Context, lessonID string, stepIndex int) (*entities.LessonStep, error) {
	query := `
		SELECT id, lesson_id, step_index, type, prompt, target, hint, max_attempts
		FROM lesson_steps
		WHERE lesson_id = $1 AND step_index = $2
	`

	var s entities.LessonStep
	err := r.db.QueryRow(ctx, query, lessonID, stepIndex).Scan(
		&s.ID,
		&s.LessonID,
		&s.StepIndex,
		&s.Type,
		&s.Prompt,
		&s.Target,
		&s.Hint,
		&s.MaxAttempts,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStepNotFound
		}

		return nil, fmt.Errorf("get step: %w", err)
	}

	return &s, nil
}

// GetSteps retrieves all steps of a lesson ordered by step index.
func (r *LessonRepository) GetSteps(ctx context.Context, lessonID string) ([]*entities.LessonStep, error) {
	query := `
		SELECT id, lesson_id, step_index, type, prompt, target, hint, max_attempts
		FROM lesson_steps
		WHERE lesson_id = $1
		ORDER BY step_index
	`

	rows, err := r.db.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get steps: %w", err)
	}
	defer rows.Close()

	var steps []*entities.LessonStep
	for rows.Next() {
		var s entities.LessonStep
		err = rows.Scan(
			&s.ID,
			&s.LessonID,
			&s.StepIndex,
			&s.Type,
			&s.Prompt,
			&s.Target,
			&s.Hint,
			&s.MaxAttempts,
		)
		if err != nil {
			return nil, fmt.Errorf("get steps: %w", err)
		}
		steps = append(steps, &s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("get steps: %w", err)
	}

	return steps, nil
}

// CountSteps returns the number of steps in a lesson.
func (r *LessonRepository) CountSteps(ctx context.Context, lessonID string) (int, error) {
	query := `SELECT COUNT(*) FROM lesson_steps WHERE lesson_id = $1`

	var count int
	err := r.db.QueryRow(ctx, query, lessonID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count steps: %w", err)
	}

	return count, nil
}

// Create inserts a lesson together with its steps in one transaction.
func (r *LessonRepository) Create(ctx context.Context, lesson *entities.Lesson, steps []*entities.LessonStep) error {
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		insertLesson := `
			INSERT INTO lessons (id, title, description, difficulty, order_index, active, created_at)
			VALUES ($1, $2, $3, $4, $5, true, now())
		`
		if _, err := tx.Exec(ctx, insertLesson,
			lesson.ID,
			lesson.Title,
			lesson.Description,
			lesson.Difficulty,
			lesson.OrderIndex,
		); err != nil {
			return fmt.Errorf("insert lesson: %w", err)
		}

		return insertSteps(ctx, tx, lesson.ID, steps)
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}

// Update updates lesson attributes and, when steps is non-nil, replaces the
// whole step list, all in one transaction.
func (r *LessonRepository) Update(ctx context.Context, lesson *entities.Lesson, steps []*entities.LessonStep) error {
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		update := `
			UPDATE lessons
			SET title = $2, description = $3, difficulty = $4, order_index = $5
			WHERE id = $1
		`
		tag, err := tx.Exec(ctx, update,
			lesson.ID,
			lesson.Title,
			lesson.Description,
			lesson.Difficulty,
			lesson.OrderIndex,
		)
		if err != nil {
			return fmt.Errorf("update lesson: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrLessonNotFound
		}

		if steps == nil {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM lesson_steps WHERE lesson_id = $1`, lesson.ID); err != nil {
			return fmt.Errorf("delete steps: %w", err)
		}

		return insertSteps(ctx, tx, lesson.ID, steps)
	})
	if err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			return ErrLessonNotFound
		}

		return fmt.Errorf("update: %w", err)
	}

	return nil
}

func insertSteps(ctx context.Context, tx pgx.Tx, lessonID string, steps []*entities.LessonStep) error {
	insert := `
		INSERT INTO lesson_steps (lesson_id, step_index, type, prompt, target, hint, max_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, s := range steps {
		if _, err := tx.Exec(ctx, insert,
			lessonID,
			i,
			s.Type,
			s.Prompt,
			s.Target,
			s.Hint,
			s.MaxAttempts,
		); err != nil {
			return fmt.Errorf("insert step %d: %w", i, err)
		}
	}

	return nil
}

// SoftDelete deactivates a lesson without removing its rows.
func (r *LessonRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE lessons SET active = false WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}

	return nil
}

// ListSummaries returns all lessons with their step counts for the teacher
// authoring view.
func (r *LessonRepository) ListSummaries(ctx context.Context) ([]*entities.LessonSummary, error) {
	query := `
		SELECT l.id, l.title, l.description, l.difficulty, l.order_index, l.active, l.created_at,
		       COUNT(ls.id) AS step_count
		FROM lessons l
		LEFT JOIN lesson_steps ls ON l.id = ls.lesson_id
		GROUP BY l.id
		ORDER BY l.order_index, l.created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var lessons []*entities.LessonSummary
	for rows.Next() {
		var l entities.LessonSummary
		err = rows.Scan(
			&l.ID,
			&l.Title,
			&l.Description,
			&l.Difficulty,
			&l.OrderIndex,
			&l.Active,
			&l.CreatedAt,
			&l.StepCount,
		)
		if err != nil {
			return nil, fmt.Errorf("list summaries: %w", err)
		}
		lessons = append(lessons, &l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	return lessons, nil
}

// ListForStudent returns active lessons assigned to the student's classes,
// joined with the student's stored progress. When the student has no class
// assignments at all, every active lesson is listed instead.
func (r *LessonRepository) ListForStudent(ctx context.Context, studentID int64) ([]*entities.StudentLesson, error) {
	assigned := `
		SELECT DISTINCT l.id, l.title, l.description, l.difficulty, l.order_index, l.active, l.created_at,
		       (SELECT COUNT(*) FROM lesson_steps ls WHERE ls.lesson_id = l.id) AS total_steps,
		       COALESCE(sp.completed, false) AS completed,
		       COALESCE(sp.score, 0) AS score
		FROM lessons l
		JOIN class_lessons cl ON l.id = cl.lesson_id
		JOIN class_students cs ON cl.class_id = cs.class_id
		LEFT JOIN student_progress sp ON l.id = sp.lesson_id AND sp.student_id = $1
		WHERE cs.student_id = $1 AND l.active = true
		ORDER BY l.order_index, l.created_at
	`

	lessons, err := r.queryStudentLessons(ctx, assigned, studentID)
	if err != nil {
		return nil, err
	}
	if len(lessons) > 0 {
		return lessons, nil
	}

	all := `
		SELECT l.id, l.title, l.description, l.difficulty, l.order_index, l.active, l.created_at,
		       (SELECT COUNT(*) FROM lesson_steps ls WHERE ls.lesson_id = l.id) AS total_steps,
		       COALESCE(sp.completed, false) AS completed,
		       COALESCE(sp.score, 0) AS score
		FROM lessons l
		LEFT JOIN student_progress sp ON l.id = sp.lesson_id AND sp.student_id = $1
		WHERE l.active = true
		ORDER BY l.order_index, l.created_at
	`

	return r.queryStudentLessons(ctx, all, studentID)
}

func (r *LessonRepository) queryStudentLessons(ctx context.Context, query string, studentID int64) ([]*entities.StudentLesson, error) {
	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list for student: %w", err)
	}
	defer rows.Close()

	var lessons []*entities.StudentLesson
	for rows.Next() {
		var l entities.StudentLesson
		err = rows.Scan(
			&l.ID,
			&l.Title,
			&l.Description,
			&l.Difficulty,
			&l.OrderIndex,
			&l.Active,
			&l.CreatedAt,
			&l.TotalSteps,
			&l.Completed,
			&l.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("list for student: %w", err)
		}
		lessons = append(lessons, &l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list for student: %w", err)
	}

	return lessons, nil
}

// Performance returns per-student results for a lesson across all its sessions.
func (r *LessonRepository) Performance(ctx context.Context, lessonID string) ([]*entities.LessonPerformance, error) {
	query := `
		SELECT u.full_name, s.score, s.finished_at,
		       COUNT(a.id) AS total_attempts,
		       COUNT(a.id) FILTER (WHERE a.correct) AS correct_attempts
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		LEFT JOIN attempts a ON s.id = a.session_id
		WHERE s.lesson_id = $1
		GROUP BY u.full_name, s.id
		ORDER BY s.started_at DESC
	`

	rows, err := r.db.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("performance: %w", err)
	}
	defer rows.Close()

	var perf []*entities.LessonPerformance
	for rows.Next() {
		var p entities.LessonPerformance
		err = rows.Scan(
			&p.FullName,
			&p.Score,
			&p.FinishedAt,
			&p.TotalAttempts,
			&p.CorrectAttempts,
		)
		if err != nil {
			return nil, fmt.Errorf("performance: %w", err)
		}
		perf = append(perf, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("performance: %w", err)
	}

	return perf, nil
}

// AssignToClass makes a lesson visible to a class. Idempotent.
func (r *LessonRepository) AssignToClass(ctx context.Context, lessonID string, classID int64) error {
	query := `
		INSERT INTO class_lessons (class_id, lesson_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (class_id, lesson_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, classID, lessonID)
	if err != nil {
		return fmt.Errorf("assign to class: %w", err)
	}

	return nil
}
