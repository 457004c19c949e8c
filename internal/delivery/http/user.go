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

type Authenticating interface {
	Create(ctx context.Context, in service.CreateUserInput) (*entities.User, error)
	Login(ctx context.Context, username, password string) (string, *entities.User, error)
}

// UserHandler serves account registration and login.
type UserHandler struct {
	users Authenticating
	log   *zap.Logger
}

func NewUserHandler(users Authenticating, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// NewUserRouter mounts the auth service routes.
func NewUserRouter(cfg *config.Config, h *UserHandler) *gin.Engine {
	r := newEngine(cfg)

	r.POST("/usuarios", h.register)
	r.POST("/login", h.login)

	return r
}

func (h *UserHandler) register(c *gin.Context) {
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

	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}
