package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/braillearn/backend/internal/config"
	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/service"
)

type UserManaging interface {
	Create(ctx context.Context, in service.CreateUserInput) (*entities.User, error)
	Update(ctx context.Context, in service.UpdateUserInput) error
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*entities.User, error)
	ListByRole(ctx context.Context, role string) ([]*entities.User, error)
}

type ClassManaging interface {
	Create(ctx context.Context, name, description string, teacherID *int64) (*entities.Class, error)
	AssignTeacher(ctx context.Context, classID int64, teacherID *int64) error
	AddStudents(ctx context.Context, classID int64, studentIDs []int64) (int, error)
	Delete(ctx context.Context, classID int64) error
	ListOverviews(ctx context.Context) ([]*entities.ClassOverview, error)
	GetDetails(ctx context.Context, classID int64) (*entities.ClassOverview, []*entities.ClassMember, error)
}

type DeviceManaging interface {
	Register(ctx context.Context, id, name string) (*entities.Device, error)
	List(ctx context.Context) ([]*entities.Device, error)
}

// AdminHandler serves user, class and device administration.
type AdminHandler struct {
	users   UserManaging
	classes ClassManaging
	devices DeviceManaging
	log     *zap.Logger
}

func NewAdminHandler(users UserManaging, classes ClassManaging, devices DeviceManaging, log *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, classes: classes, devices: devices, log: log}
}

// NewAdminRouter mounts the admin service routes behind auth.
func NewAdminRouter(cfg *config.Config, h *AdminHandler, auth *AuthMiddleware) *gin.Engine {
	r := newEngine(cfg)

	admin := r.Group("/admin", auth.RequireAuth())
	{
		admin.GET("", h.overview)
		admin.POST("/create_user", h.createUser)
		admin.POST("/create_device", h.createDevice)
		admin.POST("/create_class", h.createClass)
		admin.POST("/assign_teacher", h.assignTeacher)
		admin.POST("/add_students_to_class", h.addStudentsToClass)
		admin.POST("/delete_class", h.deleteClass)
		admin.POST("/update_user", h.updateUser)
		admin.POST("/delete_user", h.deleteUser)
		admin.GET("/get_class_details/:class_id", h.classDetails)
	}

	return r
}

func (h *AdminHandler) overview(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.users.ListAll(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	students, err := h.users.ListByRole(ctx, entities.RoleStudent)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	teachers, err := h.users.ListByRole(ctx, entities.RoleTeacher)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	devices, err := h.devices.List(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	classes, err := h.classes.ListOverviews(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":    users,
		"students": students,
		"teachers": teachers,
		"devices":  devices,
		"classes":  classes,
	})
}

func (h *AdminHandler) createUser(c *gin.Context) {
	var in service.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "username": user.Username})
}

type createDeviceRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

func (h *AdminHandler) createDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	device, err := h.devices.Register(c.Request.Context(), req.DeviceID, req.Name)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Device created successfully", "device_id": device.ID})
}

type createClassRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TeacherID   *int64 `json:"teacher_id"`
}

func (h *AdminHandler) createClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	class, err := h.classes.Create(c.Request.Context(), req.Name, req.Description, req.TeacherID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Class created successfully", "name": class.Name})
}

type assignTeacherRequest struct {
	ClassID   int64  `json:"class_id"`
	TeacherID *int64 `json:"teacher_id"`
}

func (h *AdminHandler) assignTeacher(c *gin.Context) {
	var req assignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.classes.AssignTeacher(c.Request.Context(), req.ClassID, req.TeacherID); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Teacher assigned successfully"})
}

type addStudentsRequest struct {
	ClassID int64 `json:"class_id"`

	// StudentIDs accepts either an array of ids or a comma-separated string.
	StudentIDs any `json:"student_ids"`
}

func parseStudentIDs(raw any) ([]int64, error) {
	switch v := raw.(type) {
	case string:
		var ids []int64
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid student id %q", part)
			}
			ids = append(ids, id)
		}
		return ids, nil
	case []any:
		ids := make([]int64, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case float64:
				ids = append(ids, int64(n))
			case string:
				id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid student id %q", n)
				}
				ids = append(ids, id)
			default:
				return nil, fmt.Errorf("invalid student id %v", item)
			}
		}
		return ids, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid student_ids")
	}
}

func (h *AdminHandler) addStudentsToClass(c *gin.Context) {
	var req addStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	studentIDs, err := parseStudentIDs(req.StudentIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, err := h.classes.AddStudents(c.Request.Context(), req.ClassID, studentIDs)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Added %d students to class", added)})
}

type deleteClassRequest struct {
	ClassID int64 `json:"class_id"`
}

func (h *AdminHandler) deleteClass(c *gin.Context) {
	var req deleteClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.classes.Delete(c.Request.Context(), req.ClassID); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Class deleted successfully"})
}

func (h *AdminHandler) updateUser(c *gin.Context) {
	var in service.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.users.Update(c.Request.Context(), in); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

type deleteUserRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *AdminHandler) deleteUser(c *gin.Context) {
	var req deleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), req.UserID); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *AdminHandler) classDetails(c *gin.Context) {
	classID, ok := pathID(c, "class_id")
	if !ok {
		return
	}

	class, students, err := h.classes.GetDetails(c.Request.Context(), classID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"class": class, "students": students})
}
