package handlers

import (
	"net/http"

	"github.com/chirper-app/backend/internal/middleware"
	"github.com/chirper-app/backend/internal/models"
	"github.com/chirper-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.DELETE("/notifications", h.DeleteNotifications)
}

// GetNotifications returns the caller's notifications, newest first,
// with the actor's identity attached. Listing marks everything read as a
// side effect; there is no separate acknowledgment call.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	notifications, err := h.notificationRepository.GetByRecipient(ctx, currentUserID)
	if err != nil {
		return err
	}

	userCache := make(map[primitive.ObjectID]models.UserCompact)
	populated := make([]models.PopulatedNotification, len(notifications))
	for i, n := range notifications {
		actor, ok := userCache[n.From]
		if !ok {
			actor = models.UserCompact{ID: n.From}
			if user, err := h.userRepository.GetUserByID(ctx, n.From); err == nil {
				actor = user.ToCompact()
			}
			userCache[n.From] = actor
		}
		populated[i] = models.PopulatedNotification{Notification: n, From: actor}
	}

	if err := h.notificationRepository.MarkAllRead(ctx, currentUserID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, populated)
}

// DeleteNotifications removes every notification addressed to the
// caller. Succeeds even when there are none.
func (h *NotificationHandler) DeleteNotifications(c echo.Context) error {
	currentUserID := middleware.CurrentUserID(c)
	if err := h.notificationRepository.DeleteAllForRecipient(c.Request().Context(), currentUserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Notifications deleted successfully"})
}

// GetUnreadCount returns the caller's unread notification count without
// touching read state.
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := middleware.CurrentUserID(c)
	count, err := h.notificationRepository.CountUnread(c.Request().Context(), currentUserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}
