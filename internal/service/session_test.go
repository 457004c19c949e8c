package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/repository"
)

// fakeStore backs the session service with in-memory maps, enforcing the same
// constraints the database does: at most one open session per (user, lesson)
// and append-only attempts.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*entities.Session
	attempts []*entities.Attempt
	steps    map[string][]*entities.LessonStep
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*entities.Session),
		steps:    make(map[string][]*entities.LessonStep),
	}
}

func (f *fakeStore) addLesson(lessonID string, steps ...*entities.LessonStep) {
	f.steps[lessonID] = steps
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*entities.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) GetOpen(_ context.Context, userID int64, lessonID string) (*entities.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.getOpenLocked(userID, lessonID)
}

func (f *fakeStore) getOpenLocked(userID int64, lessonID string) (*entities.Session, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.LessonID == lessonID && s.FinishedAt == nil {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeStore) Create(_ context.Context, s *entities.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.getOpenLocked(s.UserID, s.LessonID); err == nil {
		return repository.ErrSessionExists
	}

	copied := *s
	copied.StartedAt = time.Now()
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeStore) FinishIfOpen(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finishLocked(id)
	return nil
}

func (f *fakeStore) finishLocked(id string) {
	if s, ok := f.sessions[id]; ok && s.FinishedAt == nil {
		now := time.Now()
		s.FinishedAt = &now
	}
}

func (f *fakeStore) CountCorrect(_ context.Context, sessionID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, a := range f.attempts {
		if a.SessionID == sessionID && a.Correct {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountAtStep(_ context.Context, sessionID string, stepIndex int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, a := range f.attempts {
		if a.SessionID == sessionID && a.StepIndex == stepIndex {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Append(_ context.Context, a *entities.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *a
	f.attempts = append(f.attempts, &copied)
	return nil
}

func (f *fakeStore) RecordSubmission(_ context.Context, a *entities.Attempt, finish bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *a
	f.attempts = append(f.attempts, &copied)
	if a.Correct {
		if s, ok := f.sessions[a.SessionID]; ok {
			s.Score++
		}
	}
	if finish {
		f.finishLocked(a.SessionID)
	}
	return nil
}

func (f *fakeStore) GetStep(_ context.Context, lessonID string, stepIndex int) (*entities.LessonStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	steps := f.steps[lessonID]
	if stepIndex < 0 || stepIndex >= len(steps) {
		return nil, repository.ErrStepNotFound
	}
	copied := *steps[stepIndex]
	return &copied, nil
}

func (f *fakeStore) CountSteps(_ context.Context, lessonID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.steps[lessonID]), nil
}

func newTestService(store *fakeStore) *SessionService {
	return NewSessionService(store, store, store, 0)
}

func twoStepLesson(store *fakeStore) {
	store.addLesson("lsn12345",
		&entities.LessonStep{LessonID: "lsn12345", StepIndex: 0, Prompt: "Punto 1", Target: "A", MaxAttempts: 3},
		&entities.LessonStep{LessonID: "lsn12345", StepIndex: 1, Prompt: "Puntos 1-2", Target: "B", MaxAttempts: 2},
	)
}

func TestStartValidation(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Start(context.Background(), 0, "lsn12345")
	require.ErrorIs(t, err, ErrStudentAndLessonRequired)

	_, err = svc.Start(context.Background(), 7, "")
	require.ErrorIs(t, err, ErrStudentAndLessonRequired)
}

func TestStartResumesOpenSession(t *testing.T) {
	store := newFakeStore()
	twoStepLesson(store)
	svc := newTestService(store)

	first, err := svc.Start(context.Background(), 7, "lsn12345")
	require.NoError(t, err)
	require.Len(t, first, 16)

	second, err := svc.Start(context.Background(), 7, "lsn12345")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, store.sessions, 1)
}

func TestStartConcurrent(t *testing.T) {
	store := newFakeStore()
	twoStepLesson(store)
	svc := newTestService(store)

	const workers = 16
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = svc.Start(context.Background(), 7, "lsn12345")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
	require.Len(t, store.sessions, 1)
}

func TestTwoStepLessonFlow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	twoStepLesson(store)
	svc := newTestService(store)

	id, err := svc.Start(ctx, 7, "lsn12345")
	require.NoError(t, err)

	prompt, finished, err := svc.Peek(ctx, id)
	require.NoError(t, err)
	require.Nil(t, finished)
	require.Equal(t, 0, prompt.StepIndex)
	require.Equal(t, "A", prompt.Target)
	require.Equal(t, 2, prompt.TotalSteps)
	require.Equal(t, 0, prompt.Attempts)

	// Wrong answer on step 0: ordinal 1 of 3, no hint yet.
	res, err := svc.Submit(ctx, id, "X")
	require.NoError(t, err)
	require.False(t, res.Correct)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, 3, res.MaxAttempts)
	require.Empty(t, res.Hint)
	require.False(t, res.Finished)

	// Answers are trimmed and upper-cased before comparison.
	res, err = svc.Submit(ctx, id, "  a ")
	require.NoError(t, err)
	require.True(t, res.Correct)
	require.Equal(t, 2, res.Attempts)
	require.False(t, res.Finished)

	prompt, finished, err = svc.Peek(ctx, id)
	require.NoError(t, err)
	require.Nil(t, finished)
	require.Equal(t, 1, prompt.StepIndex)
	require.Equal(t, 0, prompt.Attempts)
	require.Equal(t, 1, prompt.Score)

	// Step 1 allows two attempts; the second failure reveals the target.
	res, err = svc.Submit(ctx, id, "X")
	require.NoError(t, err)
	require.False(t, res.Correct)
	require.Equal(t, 1, res.Attempts)
	require.Empty(t, res.Hint)

	res, err = svc.Submit(ctx, id, "Z")
	require.NoError(t, err)
	require.False(t, res.Correct)
	require.Equal(t, 2, res.Attempts)
	require.Equal(t, "La respuesta correcta es: B", res.Hint)

	res, err = svc.Submit(ctx, id, "b")
	require.NoError(t, err)
	require.True(t, res.Correct)
	require.Equal(t, 3, res.Attempts)
	require.True(t, res.Finished)

	session := store.sessions[id]
	require.NotNil(t, session.FinishedAt)
	require.Equal(t, 2, session.Score)

	// Finished is absorbing: peeks report the final score, submits write nothing.
	_, finishedView, err := svc.Peek(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, finishedView)
	require.True(t, finishedView.Finished)
	require.Equal(t, 2, finishedView.Score)

	before := len(store.attempts)
	res, err = svc.Submit(ctx, id, "A")
	require.NoError(t, err)
	require.True(t, res.AlreadyFinished)
	require.True(t, res.Finished)
	require.Len(t, store.attempts, before)
	require.Equal(t, 2, store.sessions[id].Score)
}

func TestSubmitEmptyAnswer(t *testing.T) {
	store := newFakeStore()
	twoStepLesson(store)
	svc := newTestService(store)

	id, err := svc.Start(context.Background(), 7, "lsn12345")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), id, "   ")
	require.ErrorIs(t, err, ErrAnswerRequired)
}

func TestSubmitUnknownSession(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Submit(context.Background(), "missing", "A")
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestSkipDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	twoStepLesson(store)
	svc := newTestService(store)

	id, err := svc.Start(ctx, 7, "lsn12345")
	require.NoError(t, err)

	require.NoError(t, svc.Skip(ctx, id))
	require.NoError(t, svc.Skip(ctx, id))

	// Skips consume attempt slots with increasing ordinals but the learner
	// stays on the same step.
	require.Len(t, store.attempts, 2)
	require.Equal(t, entities.SkipAnswer, store.attempts[0].Answer)
	require.Equal(t, 1, store.attempts[0].Attempts)
	require.Equal(t, 2, store.attempts[1].Attempts)
	require.Equal(t, 0, store.attempts[1].StepIndex)

	prompt, finished, err := svc.Peek(ctx, id)
	require.NoError(t, err)
	require.Nil(t, finished)
	require.Equal(t, 0, prompt.StepIndex)
	require.Equal(t, 2, prompt.Attempts)

	// A wrong submit after two skips is the third and final attempt slot.
	res, err := svc.Submit(ctx, id, "X")
	require.NoError(t, err)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, "La respuesta correcta es: A", res.Hint)

	// Exceeding max_attempts never advances or finishes anything.
	prompt, finished, err = svc.Peek(ctx, id)
	require.NoError(t, err)
	require.Nil(t, finished)
	require.Equal(t, 0, prompt.StepIndex)
}

func TestSkipUnknownSession(t *testing.T) {
	svc := newTestService(newFakeStore())

	err := svc.Skip(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestHintPrefersConfiguredHint(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addLesson("lsn00001",
		&entities.LessonStep{LessonID: "lsn00001", StepIndex: 0, Prompt: "Letra", Target: "C", Hint: "Piensa en puntos 1-4", MaxAttempts: 1},
	)
	svc := newTestService(store)

	id, err := svc.Start(ctx, 9, "lsn00001")
	require.NoError(t, err)

	res, err := svc.Submit(ctx, id, "X")
	require.NoError(t, err)
	require.Equal(t, "Piensa en puntos 1-4", res.Hint)
}

func TestPeekFinishesExhaustedSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addLesson("lsn00002",
		&entities.LessonStep{LessonID: "lsn00002", StepIndex: 0, Prompt: "Letra", Target: "A", MaxAttempts: 3},
	)
	svc := newTestService(store)

	id, err := svc.Start(ctx, 9, "lsn00002")
	require.NoError(t, err)

	res, err := svc.Submit(ctx, id, "A")
	require.NoError(t, err)
	require.True(t, res.Finished)

	_, finished, err := svc.Peek(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, finished)
	require.Equal(t, 1, finished.Score)

	// Idempotent on repeat.
	_, finished, err = svc.Peek(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, finished)
}
