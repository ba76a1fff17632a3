package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/service"
)

// NotificationHandler handles HTTP requests for in-app notifications.
type NotificationHandler struct {
	notifSvc *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifSvc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifSvc: notifSvc}
}

// notificationResponse is the JSON shape of a notification.
type notificationResponse struct {
	NotificationID string `json:"notification_id"`
	Message        string `json:"message"`
	Read           bool   `json:"read"`
	CreatedAt      string `json:"created_at"`
}

func buildNotificationResponse(n *domain.Notification) notificationResponse {
	return notificationResponse{
		NotificationID: n.NotificationID,
		Message:        n.Message,
		Read:           n.Read,
		CreatedAt:      n.CreatedAt.UTC().Format(timeLayout),
	}
}

// List handles GET /notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifs := h.notifSvc.ListMine(AccountFrom(r.Context()).UserID)
	result := make([]notificationResponse, len(notifs))
	for i, n := range notifs {
		result[i] = buildNotificationResponse(n)
	}
	WriteJSON(w, http.StatusOK, result)
}

// MarkRead handles POST /notifications/{notification_id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	err := h.notifSvc.MarkRead(AccountFrom(r.Context()).UserID, chi.URLParam(r, "notification_id"))
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// Delete handles DELETE /notifications/{notification_id}.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.notifSvc.Delete(AccountFrom(r.Context()).UserID, chi.URLParam(r, "notification_id"))
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
