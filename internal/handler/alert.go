package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/service"
)

// AlertHandler handles HTTP requests for rate alerts.
type AlertHandler struct {
	alertSvc *service.AlertService
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertSvc *service.AlertService) *AlertHandler {
	return &AlertHandler{alertSvc: alertSvc}
}

// createAlertRequest is the JSON request body for POST /alerts.
type createAlertRequest struct {
	TargetRate float64 `json:"target_rate"`
	Condition  string  `json:"condition"`
}

// alertResponse is the JSON shape of an alert.
type alertResponse struct {
	AlertID    string `json:"alert_id"`
	TargetRate string `json:"target_rate"`
	Condition  string `json:"condition"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
}

func buildAlertResponse(a *domain.Alert) alertResponse {
	return alertResponse{
		AlertID:    a.AlertID,
		TargetRate: a.TargetRate.String(),
		Condition:  string(a.Condition),
		Active:     a.Active,
		CreatedAt:  a.CreatedAt.UTC().Format(timeLayout),
	}
}

// Create handles POST /alerts.
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	alert, err := h.alertSvc.Create(AccountFrom(r.Context()).UserID, req.TargetRate, req.Condition)
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, buildAlertResponse(alert))
}

// List handles GET /alerts.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts := h.alertSvc.ListMine(AccountFrom(r.Context()).UserID)
	result := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		result[i] = buildAlertResponse(a)
	}
	WriteJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /alerts/{alert_id}.
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.alertSvc.Delete(AccountFrom(r.Context()).UserID, chi.URLParam(r, "alert_id"))
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
