package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/repository"
)

type fakeClassRepo struct {
	nextID  int64
	classes map[int64]*entities.Class
	members map[int64][]int64
}

func newFakeClassRepo() *fakeClassRepo {
	return &fakeClassRepo{
		classes: make(map[int64]*entities.Class),
		members: make(map[int64][]int64),
	}
}

func (f *fakeClassRepo) Create(_ context.Context, c *entities.Class) error {
	f.nextID++
	c.ID = f.nextID
	f.classes[c.ID] = c
	return nil
}

func (f *fakeClassRepo) AssignTeacher(_ context.Context, classID int64, teacherID *int64) error {
	c, ok := f.classes[classID]
	if !ok {
		return repository.ErrClassNotFound
	}
	c.TeacherID = teacherID
	return nil
}

func (f *fakeClassRepo) AddStudent(_ context.Context, classID, studentID int64) (bool, error) {
	for _, id := range f.members[classID] {
		if id == studentID {
			return false, nil
		}
	}
	f.members[classID] = append(f.members[classID], studentID)
	return true, nil
}

func (f *fakeClassRepo) Delete(_ context.Context, classID int64) error {
	delete(f.classes, classID)
	delete(f.members, classID)
	return nil
}

func (f *fakeClassRepo) ListOverviews(_ context.Context) ([]*entities.ClassOverview, error) {
	var out []*entities.ClassOverview
	for _, c := range f.classes {
		out = append(out, &entities.ClassOverview{Class: *c, StudentsCount: len(f.members[c.ID])})
	}
	return out, nil
}

func (f *fakeClassRepo) GetDetails(_ context.Context, classID int64) (*entities.ClassOverview, []*entities.ClassMember, error) {
	c, ok := f.classes[classID]
	if !ok {
		return nil, nil, repository.ErrClassNotFound
	}
	return &entities.ClassOverview{Class: *c}, nil, nil
}

func (f *fakeClassRepo) ListByTeacher(_ context.Context, _ int64) ([]*entities.TeacherClass, error) {
	return nil, nil
}

func TestCreateClassValidation(t *testing.T) {
	svc := NewClassService(newFakeClassRepo())

	_, err := svc.Create(context.Background(), "  ", "", nil)
	require.ErrorIs(t, err, ErrClassNameRequired)
}

func TestAddStudentsCountsOnlyNewEnrollments(t *testing.T) {
	repo := newFakeClassRepo()
	svc := NewClassService(repo)
	ctx := context.Background()

	class, err := svc.Create(ctx, "3ro A", "", nil)
	require.NoError(t, err)

	added, err := svc.AddStudents(ctx, class.ID, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, added)

	// Re-adding an enrolled student is a no-op.
	added, err = svc.AddStudents(ctx, class.ID, []int64{2, 4})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	_, err = svc.AddStudents(ctx, class.ID, nil)
	require.ErrorIs(t, err, ErrStudentsRequired)

	_, err = svc.AddStudents(ctx, 0, []int64{1})
	require.ErrorIs(t, err, ErrClassIDRequired)
}
