package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/braillearn/backend/internal/config"
	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/repository"
	"github.com/braillearn/backend/internal/service"
)

type stubSessions struct {
	startID string
	prompt  *service.PromptView
	done    *service.FinishedView
	submit  *service.SubmitResult
	err     error

	lastAnswer string
	skipped    []string
}

func (s *stubSessions) Start(_ context.Context, _ int64, _ string) (string, error) {
	return s.startID, s.err
}

func (s *stubSessions) Peek(_ context.Context, _ string) (*service.PromptView, *service.FinishedView, error) {
	return s.prompt, s.done, s.err
}

func (s *stubSessions) Submit(_ context.Context, _ string, answer string) (*service.SubmitResult, error) {
	s.lastAnswer = answer
	return s.submit, s.err
}

func (s *stubSessions) Skip(_ context.Context, sessionID string) error {
	s.skipped = append(s.skipped, sessionID)
	return s.err
}

type stubProgress struct {
	lessons []*entities.StudentLesson
	err     error
}

func (s *stubProgress) StudentLessons(_ context.Context, _ int64) ([]*entities.StudentLesson, error) {
	return s.lessons, s.err
}

func newStudentTestRouter(sessions *stubSessions, progress *stubProgress) http.Handler {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{CORS: []string{"http://localhost:5173"}}
	h := NewStudentHandler(sessions, progress, zap.NewNop())
	return NewStudentRouter(cfg, h)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartSessionEndpoint(t *testing.T) {
	sessions := &stubSessions{startID: "abcdef0123456789"}
	router := newStudentTestRouter(sessions, &stubProgress{})

	w := doJSON(t, router, http.MethodPost, "/api/student/start-session", `{"student_id":7,"lesson_id":"lsn12345"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"session_id":"abcdef0123456789"}`, w.Body.String())
}

func TestStartSessionValidationMapsTo400(t *testing.T) {
	sessions := &stubSessions{err: service.ErrStudentAndLessonRequired}
	router := newStudentTestRouter(sessions, &stubProgress{})

	w := doJSON(t, router, http.MethodPost, "/api/student/start-session", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"student_id and lesson_id required"}`, w.Body.String())
}

func TestSessionPromptEndpoint(t *testing.T) {
	sessions := &stubSessions{prompt: &service.PromptView{
		Prompt:      "Punto 1",
		Target:      "A",
		StepIndex:   0,
		MaxAttempts: 3,
		TotalSteps:  2,
		UserID:      7,
	}}
	router := newStudentTestRouter(sessions, &stubProgress{})

	w := doJSON(t, router, http.MethodGet, "/api/session_prompt/abcdef0123456789", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, false, got["finished"])
	require.Equal(t, "Punto 1", got["prompt"])
	require.Equal(t, "A", got["target"])
}

func TestSessionPromptFinished(t *testing.T) {
	sessions := &stubSessions{done: &service.FinishedView{Finished: true, Score: 2, UserID: 7}}
	router := newStudentTestRouter(sessions, &stubProgress{})

	w := doJSON(t, router, http.MethodGet, "/api/session_prompt/abcdef0123456789", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"finished":true,"score":2,"user_id":7}`, w.Body.String())
}

func TestSessionPromptUnknownSessionMapsTo404(t *testing.T) {
	sessions := &stubSessions{err: repository.ErrSessionNotFound}
	router := newStudentTestRouter(sessions, &stubProgress{})

	w := doJSON(t, router, http.MethodGet, "/api/session_prompt/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitEndpoint(t *testing.T) {
	sessions := &stubSessions{submit: &service.SubmitResult{Correct: true, Attempts: 1, MaxAttempts: 3}}
	router := newStudentTestRouter(sessions, &stubProgress{})

	w := doJSON(t, router, http.MethodPost, "/api/submit/abcdef0123456789", `{"answer":"a"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "a", sessions.lastAnswer)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, true, got["correct"])
	require.NotContains(t, got, "finished")
	require.NotContains(t, got, "hint")
}

func TestSubmitAfterFinishCollapsesResponse(t *testing.T) {
	sessions := &stubSessions{submit: &service.SubmitResult{Finished: true, AlreadyFinished: true}}
	router := newStudentTestRouter(sessions, &stubProgress{})

	w := doJSON(t, router, http.MethodPost, "/api/submit/abcdef0123456789", `{"answer":"A"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"finished":true}`, w.Body.String())
}

func TestSkipEndpoint(t *testing.T) {
	sessions := &stubSessions{}
	router := newStudentTestRouter(sessions, &stubProgress{})

	w := doJSON(t, router, http.MethodPost, "/api/skip/abcdef0123456789", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"ok":true}`, w.Body.String())
	require.Equal(t, []string{"abcdef0123456789"}, sessions.skipped)
}

func TestStudentLessonsEndpoint(t *testing.T) {
	progress := &stubProgress{lessons: []*entities.StudentLesson{
		{Lesson: entities.Lesson{ID: "lsn12345", Title: "Vocales", Active: true}, TotalSteps: 2},
	}}
	router := newStudentTestRouter(&stubSessions{}, progress)

	w := doJSON(t, router, http.MethodGet, "/api/student/lessons/7", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "Vocales", got[0]["title"])
}

func TestStudentLessonsBadID(t *testing.T) {
	router := newStudentTestRouter(&stubSessions{}, &stubProgress{})

	w := doJSON(t, router, http.MethodGet, "/api/student/lessons/abc", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
