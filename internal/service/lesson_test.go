package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/repository"
)

type fakeLessonRepo struct {
	lessons map[string]*entities.Lesson
	steps   map[string][]*entities.LessonStep
	assigns map[string][]int64
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{
		lessons: make(map[string]*entities.Lesson),
		steps:   make(map[string][]*entities.LessonStep),
		assigns: make(map[string][]int64),
	}
}

func (f *fakeLessonRepo) GetByID(_ context.Context, id string) (*entities.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, repository.ErrLessonNotFound
	}
	return l, nil
}

func (f *fakeLessonRepo) GetSteps(_ context.Context, lessonID string) ([]*entities.LessonStep, error) {
	return f.steps[lessonID], nil
}

func (f *fakeLessonRepo) Create(_ context.Context, lesson *entities.Lesson, steps []*entities.LessonStep) error {
	f.lessons[lesson.ID] = lesson
	f.steps[lesson.ID] = steps
	return nil
}

func (f *fakeLessonRepo) Update(_ context.Context, lesson *entities.Lesson, steps []*entities.LessonStep) error {
	existing, ok := f.lessons[lesson.ID]
	if !ok {
		return repository.ErrLessonNotFound
	}
	existing.Title = lesson.Title
	existing.Description = lesson.Description
	if steps != nil {
		f.steps[lesson.ID] = steps
	}
	return nil
}

func (f *fakeLessonRepo) SoftDelete(_ context.Context, id string) error {
	l, ok := f.lessons[id]
	if !ok {
		return repository.ErrLessonNotFound
	}
	l.Active = false
	return nil
}

func (f *fakeLessonRepo) ListSummaries(_ context.Context) ([]*entities.LessonSummary, error) {
	var out []*entities.LessonSummary
	for id, l := range f.lessons {
		out = append(out, &entities.LessonSummary{Lesson: *l, StepCount: len(f.steps[id])})
	}
	return out, nil
}

func (f *fakeLessonRepo) Performance(_ context.Context, _ string) ([]*entities.LessonPerformance, error) {
	return nil, nil
}

func (f *fakeLessonRepo) ListForStudent(_ context.Context, _ int64) ([]*entities.StudentLesson, error) {
	return nil, nil
}

func (f *fakeLessonRepo) AssignToClass(_ context.Context, lessonID string, classID int64) error {
	f.assigns[lessonID] = append(f.assigns[lessonID], classID)
	return nil
}

func TestCreateLesson(t *testing.T) {
	repo := newFakeLessonRepo()
	svc := NewLessonService(repo)

	lesson, err := svc.Create(context.Background(), CreateLessonInput{
		Title: "Vocales",
		Steps: []StepInput{
			{Prompt: "Punto 1", Target: "a"},
			{Prompt: "Puntos 1-5", Target: "e", MaxAttempts: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, lesson.ID, 8)
	require.Equal(t, "beginner", lesson.Difficulty)
	require.True(t, lesson.Active)

	steps := repo.steps[lesson.ID]
	require.Len(t, steps, 2)
	require.Equal(t, 0, steps[0].StepIndex)
	require.Equal(t, "input", steps[0].Type)
	require.Equal(t, entities.DefaultMaxAttempts, steps[0].MaxAttempts)
	require.Equal(t, 5, steps[1].MaxAttempts)
}

func TestCreateLessonValidation(t *testing.T) {
	svc := NewLessonService(newFakeLessonRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateLessonInput{Steps: []StepInput{{Prompt: "p", Target: "t"}}})
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, CreateLessonInput{Title: "Vocales"})
	require.ErrorIs(t, err, ErrStepsRequired)

	_, err = svc.Create(ctx, CreateLessonInput{
		Title: "Vocales",
		Steps: []StepInput{{Prompt: "p", Target: "t"}, {Prompt: "sin target"}},
	})
	require.ErrorIs(t, err, ErrStepIncomplete)
	require.ErrorContains(t, err, "step 2")
}

func TestUpdateLessonReplacesSteps(t *testing.T) {
	repo := newFakeLessonRepo()
	svc := NewLessonService(repo)
	ctx := context.Background()

	lesson, err := svc.Create(ctx, CreateLessonInput{
		Title: "Vocales",
		Steps: []StepInput{{Prompt: "p", Target: "a"}},
	})
	require.NoError(t, err)

	// Without steps the existing list is untouched.
	err = svc.Update(ctx, lesson.ID, UpdateLessonInput{Title: "Vocales v2"})
	require.NoError(t, err)
	require.Len(t, repo.steps[lesson.ID], 1)

	err = svc.Update(ctx, lesson.ID, UpdateLessonInput{
		Title: "Vocales v3",
		Steps: []StepInput{{Prompt: "p1", Target: "a"}, {Prompt: "p2", Target: "e"}},
	})
	require.NoError(t, err)
	require.Len(t, repo.steps[lesson.ID], 2)
}

func TestDeleteLessonIsSoft(t *testing.T) {
	repo := newFakeLessonRepo()
	svc := NewLessonService(repo)
	ctx := context.Background()

	lesson, err := svc.Create(ctx, CreateLessonInput{
		Title: "Vocales",
		Steps: []StepInput{{Prompt: "p", Target: "a"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, lesson.ID))
	require.False(t, repo.lessons[lesson.ID].Active)
	require.Len(t, repo.steps[lesson.ID], 1)
}

func TestAssignLessonToClassChecksLesson(t *testing.T) {
	svc := NewLessonService(newFakeLessonRepo())

	err := svc.AssignToClass(context.Background(), "missing1", 3)
	require.ErrorIs(t, err, repository.ErrLessonNotFound)
}
