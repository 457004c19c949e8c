package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/braillearn/backend/internal/domain/entities"
)

var (
	ErrTitleRequired  = errors.New("title required")
	ErrStepsRequired  = errors.New("at least one step required")
	ErrStepIncomplete = errors.New("step needs prompt and target")
)

const lessonIDLength = 8

type LessonRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Lesson, error)
	GetSteps(ctx context.Context, lessonID string) ([]*entities.LessonStep, error)
	Create(ctx context.Context, lesson *entities.Lesson, steps []*entities.LessonStep) error
	Update(ctx context.Context, lesson *entities.Lesson, steps []*entities.LessonStep) error
	SoftDelete(ctx context.Context, id string) error
	ListSummaries(ctx context.Context) ([]*entities.LessonSummary, error)
	Performance(ctx context.Context, lessonID string) ([]*entities.LessonPerformance, error)
	AssignToClass(ctx context.Context, lessonID string, classID int64) error
}

// LessonService covers teacher-side lesson authoring.
type LessonService struct {
	lessons LessonRepository
}

func NewLessonService(lessons LessonRepository) *LessonService {
	return &LessonService{lessons: lessons}
}

// StepInput is one authored step. Zero MaxAttempts falls back to the default,
// empty Type to "input".
type StepInput struct {
	Type        string `json:"type"`
	Prompt      string `json:"prompt"`
	Target      string `json:"target"`
	Hint        string `json:"hint"`
	MaxAttempts int    `json:"max_attempts"`
}

type CreateLessonInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Difficulty  string      `json:"difficulty"`
	OrderIndex  int         `json:"order_index"`
	Steps       []StepInput `json:"steps"`
}

// LessonDetail is a lesson with its steps and per-student results.
type LessonDetail struct {
	Lesson      *entities.Lesson              `json:"lesson"`
	Steps       []*entities.LessonStep        `json:"steps"`
	Performance []*entities.LessonPerformance `json:"performance"`
}

func buildSteps(inputs []StepInput) ([]*entities.LessonStep, error) {
	steps := make([]*entities.LessonStep, 0, len(inputs))
	for i, in := range inputs {
		prompt := strings.TrimSpace(in.Prompt)
		target := strings.TrimSpace(in.Target)
		if prompt == "" || target == "" {
			return nil, fmt.Errorf("%w: step %d", ErrStepIncomplete, i+1)
		}

		stepType := in.Type
		if stepType == "" {
			stepType = "input"
		}
		maxAttempts := in.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = entities.DefaultMaxAttempts
		}

		steps = append(steps, &entities.LessonStep{
			StepIndex:   i,
			Type:        stepType,
			Prompt:      prompt,
			Target:      target,
			Hint:        strings.TrimSpace(in.Hint),
			MaxAttempts: maxAttempts,
		})
	}

	return steps, nil
}

// Create authors a new lesson with its steps in one transaction.
func (s *LessonService) Create(ctx context.Context, in CreateLessonInput) (*entities.Lesson, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(in.Steps) == 0 {
		return nil, ErrStepsRequired
	}

	steps, err := buildSteps(in.Steps)
	if err != nil {
		return nil, err
	}

	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = "beginner"
	}

	lesson := &entities.Lesson{
		ID:          opaqueID(lessonIDLength),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Difficulty:  difficulty,
		OrderIndex:  in.OrderIndex,
		Active:      true,
	}

	if err := s.lessons.Create(ctx, lesson, steps); err != nil {
		return nil, err
	}

	return lesson, nil
}

// Get returns a lesson with its steps and per-student performance.
func (s *LessonService) Get(ctx context.Context, id string) (*LessonDetail, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	steps, err := s.lessons.GetSteps(ctx, id)
	if err != nil {
		return nil, err
	}

	performance, err := s.lessons.Performance(ctx, id)
	if err != nil {
		return nil, err
	}

	return &LessonDetail{Lesson: lesson, Steps: steps, Performance: performance}, nil
}

type UpdateLessonInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	OrderIndex  int    `json:"order_index"`

	// Steps replaces the whole step list when non-nil.
	Steps []StepInput `json:"steps"`
}

// Update rewrites lesson attributes and optionally replaces its steps.
func (s *LessonService) Update(ctx context.Context, id string, in UpdateLessonInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrTitleRequired
	}

	var steps []*entities.LessonStep
	if in.Steps != nil {
		var err error
		steps, err = buildSteps(in.Steps)
		if err != nil {
			return err
		}
	}

	lesson := &entities.Lesson{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Difficulty:  in.Difficulty,
		OrderIndex:  in.OrderIndex,
	}

	return s.lessons.Update(ctx, lesson, steps)
}

// Delete deactivates a lesson; its steps and historical sessions remain.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	return s.lessons.SoftDelete(ctx, id)
}

// List returns all lessons with their step counts.
func (s *LessonService) List(ctx context.Context) ([]*entities.LessonSummary, error) {
	return s.lessons.ListSummaries(ctx)
}

// AssignToClass makes a lesson visible to one class.
func (s *LessonService) AssignToClass(ctx context.Context, lessonID string, classID int64) error {
	if _, err := s.lessons.GetByID(ctx, lessonID); err != nil {
		return err
	}

	return s.lessons.AssignToClass(ctx, lessonID, classID)
}
