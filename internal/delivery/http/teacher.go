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

type LessonAuthoring interface {
	Create(ctx context.Context, in service.CreateLessonInput) (*entities.Lesson, error)
	Get(ctx context.Context, id string) (*service.LessonDetail, error)
	Update(ctx context.Context, id string, in service.UpdateLessonInput) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entities.LessonSummary, error)
	AssignToClass(ctx context.Context, lessonID string, classID int64) error
}

type TeacherReporting interface {
	GetDashboard(ctx context.Context) (*service.Dashboard, error)
	GetStudentDetail(ctx context.Context, studentID int64) (*service.StudentDetail, error)
}

type TeacherClassLister interface {
	ListByTeacher(ctx context.Context, teacherID int64) ([]*entities.TeacherClass, error)
}

// TeacherHandler serves lesson authoring and progress dashboards.
type TeacherHandler struct {
	lessons   LessonAuthoring
	reporting TeacherReporting
	classes   TeacherClassLister
	log       *zap.Logger
}

func NewTeacherHandler(lessons LessonAuthoring, reporting TeacherReporting, classes TeacherClassLister, log *zap.Logger) *TeacherHandler {
	return &TeacherHandler{lessons: lessons, reporting: reporting, classes: classes, log: log}
}

// NewTeacherRouter mounts the teacher service routes behind auth.
func NewTeacherRouter(cfg *config.Config, h *TeacherHandler, auth *AuthMiddleware) *gin.Engine {
	r := newEngine(cfg)

	api := r.Group("/api/teacher", auth.RequireAuth())
	{
		api.GET("/dashboard", h.dashboard)
		api.GET("/classes/:teacher_id", h.teacherClasses)
		api.GET("/student/:student_id", h.studentDetail)
		api.GET("/lessons", h.listLessons)
		api.POST("/lessons", h.createLesson)
		api.GET("/lesson/:lesson_id", h.getLesson)
		api.PUT("/lesson/:lesson_id", h.updateLesson)
		api.DELETE("/lesson/:lesson_id", h.deleteLesson)
		api.POST("/lesson/:lesson_id/assign-to-class", h.assignLessonToClass)
	}

	return r
}

func (h *TeacherHandler) dashboard(c *gin.Context) {
	dashboard, err := h.reporting.GetDashboard(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *TeacherHandler) teacherClasses(c *gin.Context) {
	teacherID, ok := pathID(c, "teacher_id")
	if !ok {
		return
	}

	classes, err := h.classes.ListByTeacher(c.Request.Context(), teacherID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h *TeacherHandler) studentDetail(c *gin.Context) {
	studentID, ok := pathID(c, "student_id")
	if !ok {
		return
	}

	detail, err := h.reporting.GetStudentDetail(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *TeacherHandler) listLessons(c *gin.Context) {
	lessons, err := h.lessons.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

func (h *TeacherHandler) createLesson(c *gin.Context) {
	var in service.CreateLessonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	lesson, err := h.lessons.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lesson_id": lesson.ID})
}

func (h *TeacherHandler) getLesson(c *gin.Context) {
	detail, err := h.lessons.Get(c.Request.Context(), c.Param("lesson_id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *TeacherHandler) updateLesson(c *gin.Context) {
	var in service.UpdateLessonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.lessons.Update(c.Request.Context(), c.Param("lesson_id"), in); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lesson updated successfully"})
}

func (h *TeacherHandler) deleteLesson(c *gin.Context) {
	if err := h.lessons.Delete(c.Request.Context(), c.Param("lesson_id")); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lesson deleted successfully"})
}

type assignLessonRequest struct {
	ClassID int64 `json:"class_id"`
}

func (h *TeacherHandler) assignLessonToClass(c *gin.Context) {
	var req assignLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ClassID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class_id required"})
		return
	}

	if err := h.lessons.AssignToClass(c.Request.Context(), c.Param("lesson_id"), req.ClassID); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lesson assigned successfully"})
}
