package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"buildbid/internal/middleware"
	"buildbid/internal/model"
	"buildbid/internal/repository"
	"buildbid/internal/workflow"
)

var (
	errForbidden   = errors.New("forbidden")
	errNotAssigned = errors.New("not assigned to you")
	errStorageOff  = errors.New("file storage is not configured")
	errValidation  = errors.New("invalid request")
)

// respondError maps repository and workflow errors to a status code and a JSON error body.
func respondError(c *gin.Context, err error) {
	var transition *workflow.TransitionError

	switch {
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error()})
	case errors.Is(err, workflow.ErrInvalidStatus),
		errors.Is(err, workflow.ErrInvalidHold),
		errors.Is(err, model.ErrInvalidTicketType),
		errors.Is(err, model.ErrTaskTypeRequired),
		errors.Is(err, model.ErrTaskTypeForbidden),
		errors.Is(err, model.ErrInvalidTaskType),
		errors.Is(err, errValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errForbidden), errors.Is(err, errNotAssigned):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case errors.Is(err, repository.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
	case errors.Is(err, repository.ErrColumnNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, repository.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Push subscription not found"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, repository.ErrColumnNotEmpty):
		c.JSON(http.StatusConflict, gin.H{"error": "Column still has tickets"})
	case errors.Is(err, repository.ErrNoColumns):
		c.JSON(http.StatusConflict, gin.H{"error": "Create a column before adding tickets"})
	case errors.Is(err, repository.ErrTimerRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "Timer is already running"})
	case errors.Is(err, repository.ErrTimerNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "Timer is not running"})
	case errors.Is(err, errStorageOff):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUser reads the authenticated identity set by the JWT middleware.
// It writes a 401 and returns false when there is none.
func currentUser(c *gin.Context) (uuid.UUID, model.Role, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, "", false
	}
	role, _ := middleware.CurrentRole(c)
	return userID, role, true
}

func parseIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func sameID(a *uuid.UUID, b uuid.UUID) bool {
	return a != nil && *a == b
}
