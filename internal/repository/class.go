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

var ErrClassNotFound = errors.New("class not found")

type ClassRepository struct {
	db *pgxpool.Pool
	tx *postgres.Transactor
}

func NewClassRepository(db *pgxpool.Pool, tx *postgres.Transactor) *ClassRepository {
	return &ClassRepository{db: db, tx: tx}
}

// Create inserts a class and fills in its generated id.
func (r *ClassRepository) Create(ctx context.Context, c *entities.Class) error {
	query := `
		INSERT INTO classes (name, description, teacher_id, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, c.Name, c.Description, c.TeacherID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}

// AssignTeacher sets (or clears, with nil) the teacher of a class.
func (r *ClassRepository) AssignTeacher(ctx context.Context, classID int64, teacherID *int64) error {
	query := `UPDATE classes SET teacher_id = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, classID, teacherID)
	if err != nil {
		return fmt.Errorf("assign teacher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClassNotFound
	}

	return nil
}

// AddStudent enrolls a student into a class. Idempotent.
func (r *ClassRepository) AddStudent(ctx context.Context, classID, studentID int64) (bool, error) {
	query := `
		INSERT INTO class_students (class_id, student_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (class_id, student_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, classID, studentID)
	if err != nil {
		return false, fmt.Errorf("add student: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes a class and its enrollments in one transaction.
func (r *ClassRepository) Delete(ctx context.Context, classID int64) error {
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM class_students WHERE class_id = $1`, classID); err != nil {
			return fmt.Errorf("delete enrollments: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM class_lessons WHERE class_id = $1`, classID); err != nil {
			return fmt.Errorf("delete lesson assignments: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM classes WHERE id = $1`, classID); err != nil {
			return fmt.Errorf("delete class: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// RemoveStudentFromAll drops a student's enrollments across every class.
func (r *ClassRepository) RemoveStudentFromAll(ctx context.Context, studentID int64) error {
	query := `DELETE FROM class_students WHERE student_id = $1`

	_, err := r.db.Exec(ctx, query, studentID)
	if err != nil {
		return fmt.Errorf("remove student from all: %w", err)
	}

	return nil
}

// UnassignTeacherFromAll clears a teacher from every class they lead.
func (r *ClassRepository) UnassignTeacherFromAll(ctx context.Context, teacherID int64) error {
	query := `UPDATE classes SET teacher_id = NULL WHERE teacher_id = $1`

	_, err := r.db.Exec(ctx, query, teacherID)
	if err != nil {
		return fmt.Errorf("unassign teacher from all: %w", err)
	}

	return nil
}

// ListOverviews returns all classes with teacher names and member counts for
// the admin overview.
func (r *ClassRepository) ListOverviews(ctx context.Context) ([]*entities.ClassOverview, error) {
	query := `
		SELECT c.id, c.name, c.description, c.teacher_id, c.created_at,
		       u.full_name AS teacher_name,
		       COUNT(cs.student_id) AS students_count
		FROM classes c
		LEFT JOIN users u ON c.teacher_id = u.id
		LEFT JOIN class_students cs ON cs.class_id = c.id
		GROUP BY c.id, u.full_name
		ORDER BY c.id DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list overviews: %w", err)
	}
	defer rows.Close()

	var classes []*entities.ClassOverview
	for rows.Next() {
		var c entities.ClassOverview
		err = rows.Scan(
			&c.ID,
			&c.Name,
			&c.Description,
			&c.TeacherID,
			&c.CreatedAt,
			&c.TeacherName,
			&c.StudentsCount,
		)
		if err != nil {
			return nil, fmt.Errorf("list overviews: %w", err)
		}
		classes = append(classes, &c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list overviews: %w", err)
	}

	return classes, nil
}

// GetDetails returns a class with its enrolled students.
// Returns ErrClassNotFound if the class doesn't exist.
func (r *ClassRepository) GetDetails(ctx context.Context, classID int64) (*entities.ClassOverview, []*entities.ClassMember, error) {
	classQuery := `
		SELECT c.id, c.name, c.description, c.teacher_id, c.created_at, u.full_name AS teacher_name
		FROM classes c
		LEFT JOIN users u ON c.teacher_id = u.id
		WHERE c.id = $1
	`

	var c entities.ClassOverview
	err := r.db.QueryRow(ctx, classQuery, classID).Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.TeacherID,
		&c.CreatedAt,
		&c.TeacherName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrClassNotFound
		}

		return nil, nil, fmt.Errorf("get details: %w", err)
	}

	membersQuery := `
		SELECT u.id, u.username, u.full_name, cs.created_at AS enrolled_at
		FROM class_students cs
		JOIN users u ON cs.student_id = u.id
		WHERE cs.class_id = $1
		ORDER BY u.full_name
	`

	rows, err := r.db.Query(ctx, membersQuery, classID)
	if err != nil {
		return nil, nil, fmt.Errorf("get details: %w", err)
	}
	defer rows.Close()

	var members []*entities.ClassMember
	for rows.Next() {
		var m entities.ClassMember
		err = rows.Scan(&m.ID, &m.Username, &m.FullName, &m.EnrolledAt)
		if err != nil {
			return nil, nil, fmt.Errorf("get details: %w", err)
		}
		members = append(members, &m)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("get details: %w", err)
	}

	return &c, members, nil
}

// ListByTeacher returns a teacher's classes with member counts and the
// enrolled students' completed-lesson aggregates.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]*entities.TeacherClass, error) {
	classesQuery := `
		SELECT c.id, c.name, c.description, c.teacher_id, c.created_at,
		       COUNT(DISTINCT cs.student_id) AS student_count,
		       COUNT(DISTINCT cl.lesson_id) AS lesson_count
		FROM classes c
		LEFT JOIN class_students cs ON c.id = cs.class_id
		LEFT JOIN class_lessons cl ON c.id = cl.class_id
		WHERE c.teacher_id = $1
		GROUP BY c.id
		ORDER BY c.name
	`

	rows, err := r.db.Query(ctx, classesQuery, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list by teacher: %w", err)
	}

	var classes []*entities.TeacherClass
	for rows.Next() {
		var c entities.TeacherClass
		err = rows.Scan(
			&c.ID,
			&c.Name,
			&c.Description,
			&c.TeacherID,
			&c.CreatedAt,
			&c.StudentCount,
			&c.LessonCount,
		)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("list by teacher: %w", err)
		}
		classes = append(classes, &c)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list by teacher: %w", err)
	}
	rows.Close()

	studentsQuery := `
		SELECT u.id, u.username, u.full_name,
		       COUNT(DISTINCT sp.lesson_id) FILTER (WHERE sp.completed) AS completed_lessons,
		       COALESCE(SUM(sp.score) FILTER (WHERE sp.completed), 0) AS total_score
		FROM class_students cs
		JOIN users u ON cs.student_id = u.id
		LEFT JOIN student_progress sp ON u.id = sp.student_id
		WHERE cs.class_id = $1
		GROUP BY u.id
		ORDER BY u.full_name
	`

	for _, c := range classes {
		srows, err := r.db.Query(ctx, studentsQuery, c.ID)
		if err != nil {
			return nil, fmt.Errorf("list by teacher: %w", err)
		}

		c.Students = []entities.ClassStudent{}
		for srows.Next() {
			var s entities.ClassStudent
			err = srows.Scan(&s.ID, &s.Username, &s.FullName, &s.CompletedLessons, &s.TotalScore)
			if err != nil {
				srows.Close()
				return nil, fmt.Errorf("list by teacher: %w", err)
			}
			c.Students = append(c.Students, s)
		}
		if err = srows.Err(); err != nil {
			srows.Close()
			return nil, fmt.Errorf("list by teacher: %w", err)
		}
		srows.Close()
	}

	return classes, nil
}
