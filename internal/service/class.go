package service

import (
	"context"
	"errors"
	"strings"

	"github.com/braillearn/backend/internal/domain/entities"
)

var (
	ErrClassNameRequired = errors.New("class name required")
	ErrClassIDRequired   = errors.New("class_id required")
	ErrStudentsRequired  = errors.New("student ids required")
)

type ClassRepository interface {
	Create(ctx context.Context, c *entities.Class) error
	AssignTeacher(ctx context.Context, classID int64, teacherID *int64) error
	AddStudent(ctx context.Context, classID, studentID int64) (bool, error)
	Delete(ctx context.Context, classID int64) error
	ListOverviews(ctx context.Context) ([]*entities.ClassOverview, error)
	GetDetails(ctx context.Context, classID int64) (*entities.ClassOverview, []*entities.ClassMember, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]*entities.TeacherClass, error)
}

// ClassService covers admin-side class management and the teacher class view.
type ClassService struct {
	classes ClassRepository
}

func NewClassService(classes ClassRepository) *ClassService {
	return &ClassService{classes: classes}
}

// Create registers a new class, optionally pre-assigned to a teacher.
func (s *ClassService) Create(ctx context.Context, name, description string, teacherID *int64) (*entities.Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrClassNameRequired
	}

	class := &entities.Class{
		Name:        name,
		Description: strings.TrimSpace(description),
		TeacherID:   teacherID,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, err
	}

	return class, nil
}

// AssignTeacher sets or clears the teacher of a class.
func (s *ClassService) AssignTeacher(ctx context.Context, classID int64, teacherID *int64) error {
	if classID == 0 {
		return ErrClassIDRequired
	}

	return s.classes.AssignTeacher(ctx, classID, teacherID)
}

// AddStudents enrolls students into a class, skipping those already enrolled,
// and returns how many were actually added.
func (s *ClassService) AddStudents(ctx context.Context, classID int64, studentIDs []int64) (int, error) {
	if classID == 0 {
		return 0, ErrClassIDRequired
	}
	if len(studentIDs) == 0 {
		return 0, ErrStudentsRequired
	}

	added := 0
	for _, id := range studentIDs {
		inserted, err := s.classes.AddStudent(ctx, classID, id)
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}

	return added, nil
}

// Delete removes a class together with its enrollments.
func (s *ClassService) Delete(ctx context.Context, classID int64) error {
	if classID == 0 {
		return ErrClassIDRequired
	}

	return s.classes.Delete(ctx, classID)
}

// ListOverviews returns all classes for the admin overview.
func (s *ClassService) ListOverviews(ctx context.Context) ([]*entities.ClassOverview, error) {
	return s.classes.ListOverviews(ctx)
}

// GetDetails returns one class with its enrolled students.
func (s *ClassService) GetDetails(ctx context.Context, classID int64) (*entities.ClassOverview, []*entities.ClassMember, error) {
	return s.classes.GetDetails(ctx, classID)
}

// ListByTeacher returns a teacher's classes with enrolled students.
func (s *ClassService) ListByTeacher(ctx context.Context, teacherID int64) ([]*entities.TeacherClass, error) {
	return s.classes.ListByTeacher(ctx, teacherID)
}
