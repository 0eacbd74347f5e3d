package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	Store NotificationStore
	Log   *zap.Logger
}

func NewNotificationHandler(s NotificationStore, log *zap.Logger) *NotificationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationHandler{Store: s, Log: log}
}

// List handles GET /v1/notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	limit := queryInt(c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	ns, err := h.Store.ListByUser(ctx, uid, limit)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": toNotifications(ns)})
}

// UnreadCount handles GET /v1/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	n, err := h.Store.UnreadCount(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// MarkRead handles POST /v1/notifications/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	n, err := h.Store.MarkAllRead(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}
