package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/notification"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotificationResponse(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int                     `json:"unreadCount"`
}

type NotificationEnvelope struct {
	Notification *NotificationResponse `json:"notification"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// List godoc
// @Summary 自分の通知一覧
// @Tags notifications
// @Produce json
// @Success 200 {object} NotificationListResponse
// @Router /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	list, err := h.notificationService.List(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	out := make([]*NotificationResponse, len(list.Notifications))
	for i, n := range list.Notifications {
		out[i] = toNotificationResponse(n)
	}
	return c.JSON(http.StatusOK, NotificationListResponse{Notifications: out, UnreadCount: list.UnreadCount})
}

// MarkRead godoc
// @Summary 通知を既読にする
// @Tags notifications
// @Produce json
// @Param id path string true "通知ID"
// @Success 200 {object} NotificationEnvelope
// @Failure 404 {object} api.ErrorResponse
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	n, err := h.notificationService.MarkAsRead(c.Request().Context(), c.Param("id"), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NotificationEnvelope{Notification: toNotificationResponse(n)})
}

// MarkAllRead godoc
// @Summary 通知をすべて既読にする
// @Tags notifications
// @Produce json
// @Success 200 {object} MarkAllReadResponse
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	n, err := h.notificationService.MarkAllAsRead(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MarkAllReadResponse{Updated: n})
}

// Delete godoc
// @Summary 通知を削除
// @Tags notifications
// @Param id path string true "通知ID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.notificationService.Delete(c.Request().Context(), c.Param("id"), p.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
