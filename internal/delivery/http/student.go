package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/braillearn/backend/internal/config"
	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/service"
)

type SessionRunner interface {
	Start(ctx context.Context, studentID int64, lessonID string) (string, error)
	Peek(ctx context.Context, sessionID string) (*service.PromptView, *service.FinishedView, error)
	Submit(ctx context.Context, sessionID, answer string) (*service.SubmitResult, error)
	Skip(ctx context.Context, sessionID string) error
}

type StudentLessonLister interface {
	StudentLessons(ctx context.Context, studentID int64) ([]*entities.StudentLesson, error)
}

// StudentHandler serves the learner-facing session endpoints.
type StudentHandler struct {
	sessions SessionRunner
	progress StudentLessonLister
	log      *zap.Logger
}

func NewStudentHandler(sessions SessionRunner, progress StudentLessonLister, log *zap.Logger) *StudentHandler {
	return &StudentHandler{sessions: sessions, progress: progress, log: log}
}

// NewStudentRouter mounts the student service routes.
func NewStudentRouter(cfg *config.Config, h *StudentHandler) *gin.Engine {
	r := newEngine(cfg)

	api := r.Group("/api")
	{
		api.GET("/student/lessons/:student_id", h.lessons)
		api.POST("/student/start-session", h.startSession)
		api.GET("/session_prompt/:session_id", h.sessionPrompt)
		api.POST("/submit/:session_id", h.submit)
		api.POST("/skip/:session_id", h.skip)
	}

	return r
}

func (h *StudentHandler) lessons(c *gin.Context) {
	studentID, ok := pathID(c, "student_id")
	if !ok {
		return
	}

	lessons, err := h.progress.StudentLessons(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, lessons)
}

type startSessionRequest struct {
	StudentID int64  `json:"student_id"`
	LessonID  string `json:"lesson_id"`
}

func (h *StudentHandler) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sessionID, err := h.sessions.Start(c.Request.Context(), req.StudentID, req.LessonID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID})
}

func (h *StudentHandler) sessionPrompt(c *gin.Context) {
	prompt, finished, err := h.sessions.Peek(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if finished != nil {
		c.JSON(http.StatusOK, finished)
		return
	}

	c.JSON(http.StatusOK, prompt)
}

type submitRequest struct {
	Answer string `json:"answer"`
}

func (h *StudentHandler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.sessions.Submit(c.Request.Context(), c.Param("session_id"), req.Answer)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if result.AlreadyFinished {
		c.JSON(http.StatusOK, gin.H{"finished": true})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *StudentHandler) skip(c *gin.Context) {
	if err := h.sessions.Skip(c.Request.Context(), c.Param("session_id")); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
