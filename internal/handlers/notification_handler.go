package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tikgram/backend/internal/services"
)

// NotificationHandler handles notification feed reads and read-state updates
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("", h.GetNotifications, auth)
	g.PATCH("/:id/read", h.MarkAsRead, auth)
	g.POST("/read", h.MarkAllAsRead, auth)
}

// GetNotifications returns the caller's newest notifications, enriched
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	items, err := h.notifications.List(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []services.NotificationView{}
	}
	return c.JSON(http.StatusOK, items)
}

// MarkAsRead marks one of the caller's notifications read. A foreign or
// unknown notification id is a no-op, not an error.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	if err := h.notifications.MarkOneRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// MarkAllAsRead marks all of the caller's unread notifications read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	if err := h.notifications.MarkAllRead(c.Request().Context(), userID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
