package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/braillearn/backend/internal/repository"
	"github.com/braillearn/backend/internal/service"
)

// pathID reads a numeric path parameter, responding 400 on garbage.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}

	return id, true
}

// badRequestErrs are input validation failures reported back verbatim.
var badRequestErrs = []error{
	service.ErrStudentAndLessonRequired,
	service.ErrAnswerRequired,
	service.ErrTitleRequired,
	service.ErrStepsRequired,
	service.ErrStepIncomplete,
	service.ErrUsernameRequired,
	service.ErrUserIDRequired,
	service.ErrClassNameRequired,
	service.ErrClassIDRequired,
	service.ErrStudentsRequired,
	service.ErrDeviceIDRequired,
	repository.ErrUsernameExists,
}

var notFoundErrs = []error{
	repository.ErrSessionNotFound,
	repository.ErrLessonNotFound,
	repository.ErrStepNotFound,
	repository.ErrUserNotFound,
	repository.ErrClassNotFound,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}

	return false
}

// writeError maps a service or repository error to an HTTP response. Storage
// failures are logged and hidden behind a generic message.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case isAny(err, badRequestErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case isAny(err, notFoundErrs):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
