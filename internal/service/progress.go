package service

import (
	"context"

	"github.com/braillearn/backend/internal/domain/entities"
)

type ReportingRepository interface {
	CountLessons(ctx context.Context) (int, error)
	StudentOverviews(ctx context.Context) ([]*entities.StudentOverview, error)
	LessonHistory(ctx context.Context, studentID int64) ([]*entities.LessonHistory, error)
	StudentStats(ctx context.Context, studentID int64) (*entities.StudentStats, error)
}

type StudentLessonRepository interface {
	ListForStudent(ctx context.Context, studentID int64) ([]*entities.StudentLesson, error)
}

type StudentLookup interface {
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

// ProgressService serves the read-only progress views: the student lesson
// picker, the teacher dashboard and the per-student detail.
type ProgressService struct {
	reporting ReportingRepository
	lessons   StudentLessonRepository
	users     StudentLookup
}

func NewProgressService(reporting ReportingRepository, lessons StudentLessonRepository, users StudentLookup) *ProgressService {
	return &ProgressService{reporting: reporting, lessons: lessons, users: users}
}

// StudentLessons lists the lessons visible to a student with stored progress.
func (s *ProgressService) StudentLessons(ctx context.Context, studentID int64) ([]*entities.StudentLesson, error) {
	return s.lessons.ListForStudent(ctx, studentID)
}

// Dashboard is the teacher landing view.
type Dashboard struct {
	TotalStudents  int                         `json:"total_students"`
	TotalLessons   int                         `json:"total_lessons"`
	ActiveSessions int                         `json:"active_sessions"`
	Students       []*entities.StudentOverview `json:"students"`
}

// GetDashboard aggregates per-student activity for the teacher landing view.
func (s *ProgressService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	totalStudents, err := s.users.CountByRole(ctx, entities.RoleStudent)
	if err != nil {
		return nil, err
	}

	totalLessons, err := s.reporting.CountLessons(ctx)
	if err != nil {
		return nil, err
	}

	students, err := s.reporting.StudentOverviews(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalStudents:  totalStudents,
		TotalLessons:   totalLessons,
		ActiveSessions: len(students),
		Students:       students,
	}, nil
}

// StudentDetail is one student's full history for the teacher view.
type StudentDetail struct {
	Student  *entities.User            `json:"student"`
	Progress []*entities.LessonHistory `json:"progress"`
	Overall  *entities.StudentStats    `json:"overall"`
}

// GetStudentDetail returns one student's lesson history and overall stats.
func (s *ProgressService) GetStudentDetail(ctx context.Context, studentID int64) (*StudentDetail, error) {
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	history, err := s.reporting.LessonHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}

	stats, err := s.reporting.StudentStats(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &StudentDetail{Student: student, Progress: history, Overall: stats}, nil
}
