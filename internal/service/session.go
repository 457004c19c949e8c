package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/repository"
)

var (
	ErrStudentAndLessonRequired = errors.New("student_id and lesson_id required")
	ErrAnswerRequired           = errors.New("answer required")
)

const sessionIDLength = 16

type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Session, error)
	GetOpen(ctx context.Context, userID int64, lessonID string) (*entities.Session, error)
	Create(ctx context.Context, s *entities.Session) error
	FinishIfOpen(ctx context.Context, id string) error
}

type AttemptRepository interface {
	CountCorrect(ctx context.Context, sessionID string) (int, error)
	CountAtStep(ctx context.Context, sessionID string, stepIndex int) (int, error)
	Append(ctx context.Context, a *entities.Attempt) error
	RecordSubmission(ctx context.Context, a *entities.Attempt, finish bool) error
}

type StepRepository interface {
	GetStep(ctx context.Context, lessonID string, stepIndex int) (*entities.LessonStep, error)
	CountSteps(ctx context.Context, lessonID string) (int, error)
}

// SessionService runs the lesson-session state machine. It keeps no state of
// its own: the current step of a session is always the count of its correct
// attempts, recomputed from persisted rows on every call, which makes each
// request self-contained and safe under concurrent use.
type SessionService struct {
	sessions SessionRepository
	attempts AttemptRepository
	steps    StepRepository
	timeout  time.Duration
}

func NewSessionService(sessions SessionRepository, attempts AttemptRepository, steps StepRepository, timeout time.Duration) *SessionService {
	return &SessionService{
		sessions: sessions,
		attempts: attempts,
		steps:    steps,
		timeout:  timeout,
	}
}

// PromptView is what the learner sees for the current step. The response
// includes the target value: the original service exposed the expected answer
// in the prompt payload, and that behavior is kept as-is.
type PromptView struct {
	Finished    bool   `json:"finished"` // always false
	Prompt      string `json:"prompt"`
	Target      string `json:"target"`
	Hint        string `json:"hint,omitempty"`
	StepIndex   int    `json:"step_index"`
	MaxAttempts int    `json:"max_attempts"`
	Attempts    int    `json:"attempts"`
	Score       int    `json:"score"`
	UserID      int64  `json:"user_id"`
	TotalSteps  int    `json:"total_steps"`
}

// FinishedView is returned once every step of the lesson has been answered.
type FinishedView struct {
	Finished bool  `json:"finished"` // always true
	Score    int   `json:"score"`
	UserID   int64 `json:"user_id"`
}

// SubmitResult reports the outcome of one answer submission.
type SubmitResult struct {
	Correct     bool   `json:"correct"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	Hint        string `json:"hint,omitempty"`
	Finished    bool   `json:"finished,omitempty"`

	// AlreadyFinished is set when the submission arrived after the lesson was
	// exhausted; nothing was written and the other fields are meaningless.
	AlreadyFinished bool `json:"-"`
}

func (s *SessionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Start resumes the newest open session for the (student, lesson) pair, or
// creates a fresh one. Calling it twice never produces duplicate open
// sessions: a concurrent insert that loses on the open-session unique index
// is retried as a lookup.
func (s *SessionService) Start(ctx context.Context, studentID int64, lessonID string) (string, error) {
	if studentID == 0 || lessonID == "" {
		return "", ErrStudentAndLessonRequired
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.sessions.GetOpen(ctx, studentID, lessonID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrSessionNotFound) {
		return "", err
	}

	session := &entities.Session{
		ID:       opaqueID(sessionIDLength),
		LessonID: lessonID,
		UserID:   studentID,
	}

	err = s.sessions.Create(ctx, session)
	if errors.Is(err, repository.ErrSessionExists) {
		winner, err := s.sessions.GetOpen(ctx, studentID, lessonID)
		if err != nil {
			return "", err
		}
		return winner.ID, nil
	}
	if err != nil {
		return "", err
	}

	return session.ID, nil
}

// Peek derives the session's current step and returns either the prompt for
// it or, when the lesson is exhausted, a finished view. Exhaustion marks the
// session finished idempotently; racing finishers are no-ops.
func (s *SessionService) Peek(ctx context.Context, sessionID string) (*PromptView, *FinishedView, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	stepIndex, err := s.attempts.CountCorrect(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	step, err := s.steps.GetStep(ctx, session.LessonID, stepIndex)
	if errors.Is(err, repository.ErrStepNotFound) {
		if err := s.sessions.FinishIfOpen(ctx, sessionID); err != nil {
			return nil, nil, err
		}
		return nil, &FinishedView{Finished: true, Score: session.Score, UserID: session.UserID}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	attempts, err := s.attempts.CountAtStep(ctx, sessionID, stepIndex)
	if err != nil {
		return nil, nil, err
	}

	totalSteps, err := s.steps.CountSteps(ctx, session.LessonID)
	if err != nil {
		return nil, nil, err
	}

	return &PromptView{
		Prompt:      step.Prompt,
		Target:      step.Target,
		Hint:        step.Hint,
		StepIndex:   step.StepIndex,
		MaxAttempts: step.MaxAttempts,
		Attempts:    attempts,
		Score:       session.Score,
		UserID:      session.UserID,
		TotalSteps:  totalSteps,
	}, nil, nil
}

// Submit judges one answer against the current step and appends exactly one
// attempt row. A correct answer scores a point atomically; a correct answer
// on the last step finishes the session in the same transaction. An incorrect
// answer that exhausts the step's attempt budget reveals the step's hint, or
// the target itself when no hint is configured.
func (s *SessionService) Submit(ctx context.Context, sessionID, answer string) (*SubmitResult, error) {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if answer == "" {
		return nil, ErrAnswerRequired
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stepIndex, err := s.attempts.CountCorrect(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	step, err := s.steps.GetStep(ctx, session.LessonID, stepIndex)
	if errors.Is(err, repository.ErrStepNotFound) {
		// Lesson already exhausted: answer nothing, write nothing.
		return &SubmitResult{Finished: true, AlreadyFinished: true}, nil
	}
	if err != nil {
		return nil, err
	}

	prior, err := s.attempts.CountAtStep(ctx, sessionID, stepIndex)
	if err != nil {
		return nil, err
	}
	ordinal := prior + 1

	correct := answer == strings.ToUpper(step.Target)

	finished := false
	if correct {
		_, err := s.steps.GetStep(ctx, session.LessonID, stepIndex+1)
		if errors.Is(err, repository.ErrStepNotFound) {
			finished = true
		} else if err != nil {
			return nil, err
		}
	}

	attempt := &entities.Attempt{
		SessionID: sessionID,
		LessonID:  session.LessonID,
		UserID:    session.UserID,
		StepIndex: stepIndex,
		Answer:    answer,
		Correct:   correct,
		Attempts:  ordinal,
	}
	if err := s.attempts.RecordSubmission(ctx, attempt, finished); err != nil {
		return nil, err
	}

	result := &SubmitResult{
		Correct:     correct,
		Attempts:    ordinal,
		MaxAttempts: step.MaxAttempts,
		Finished:    finished,
	}

	if !correct && ordinal >= step.MaxAttempts {
		if step.Hint != "" {
			result.Hint = step.Hint
		} else {
			result.Hint = "La respuesta correcta es: " + strings.ToUpper(step.Target)
		}
	}

	return result, nil
}

// Skip records a skipped step as one consumed attempt slot. It never advances
// the session: only a correct submit does, so the next peek or submit still
// lands on the same step.
func (s *SessionService) Skip(ctx context.Context, sessionID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	stepIndex, err := s.attempts.CountCorrect(ctx, sessionID)
	if err != nil {
		return err
	}

	prior, err := s.attempts.CountAtStep(ctx, sessionID, stepIndex)
	if err != nil {
		return err
	}

	return s.attempts.Append(ctx, &entities.Attempt{
		SessionID: sessionID,
		LessonID:  session.LessonID,
		UserID:    session.UserID,
		StepIndex: stepIndex,
		Answer:    entities.SkipAnswer,
		Correct:   false,
		Attempts:  prior + 1,
	})
}
