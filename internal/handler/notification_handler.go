package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"buildbid/internal/model"
	"buildbid/internal/notify"
	"buildbid/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type NotificationHandler struct {
	dispatcher *notify.Dispatcher
	hub        *notify.Hub
	subs       *repository.PushSubscriptionRepository
	logger     *zap.Logger
}

func NewNotificationHandler(
	dispatcher *notify.Dispatcher,
	hub *notify.Hub,
	subs *repository.PushSubscriptionRepository,
	logger *zap.Logger,
) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher, hub: hub, subs: subs, logger: logger}
}

type PushSubscriptionRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// List returns the caller's notifications, newest first.
// @Summary      List notifications
// @Tags         Notifications
// @Produce      json
// @Param        unread query bool false "Only unread"
// @Param        limit  query int  false "Maximum rows (default 50)"
// @Success      200 {array} model.Notification
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxNotificationLimit)
	}
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	notifications, err := h.dispatcher.List(c.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.dispatcher.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}
	c.JSON(http.StatusOK, UnreadCountResponse{Unread: count})
}

// @Summary      Mark notification read
// @Tags         Notifications
// @Param        id path string true "Notification ID"
// @Success      204
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.dispatcher.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.dispatcher.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// RegisterPush stores or refreshes a cloud messaging token for the caller.
// @Summary      Register push token
// @Tags         Notifications
// @Accept       json
// @Param        request body PushSubscriptionRequest true "Token"
// @Success      204
// @Security     BearerAuth
// @Router       /push/subscriptions [post]
func (h *NotificationHandler) RegisterPush(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	sub := &model.PushSubscription{
		UserID:      userID,
		Token:       strings.TrimSpace(req.Token),
		Platform:    req.Platform,
		RefreshedAt: time.Now().UTC(),
	}
	if err := h.subs.Upsert(c.Request.Context(), sub); err != nil {
		h.logger.Error("Failed to store push token", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register push token"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) DeletePush(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.subs.Delete(c.Request.Context(), userID, c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// WebSocket upgrades the request and streams the caller's notifications until the socket closes.
func (h *NotificationHandler) WebSocket(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.hub.Serve(c.Writer, c.Request, userID); err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
