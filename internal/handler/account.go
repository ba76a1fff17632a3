package handler

import (
	"net/http"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/service"
)

// AccountHandler handles HTTP requests for the authenticated user's
// own account: profile, preferences, balances, and audit trail.
type AccountHandler struct {
	accountSvc *service.AccountService
	auditSvc   *service.AuditService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService, auditSvc *service.AuditService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, auditSvc: auditSvc}
}

// prefsPayload is both the request and response shape for preferences.
type prefsPayload struct {
	TimeRangeDays int    `json:"time_range_days"`
	GraphInterval string `json:"graph_interval"`
}

// balanceResponse is one currency's figures in the balance listing.
type balanceResponse struct {
	Currency  string  `json:"currency"`
	Spendable float64 `json:"spendable"`
	Held      float64 `json:"held"`
	Total     float64 `json:"total"`
}

// auditEntryResponse is one entry in an audit log listing.
type auditEntryResponse struct {
	EntryID   string `json:"entry_id"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

func buildAuditResponses(entries []*domain.AuditEntry) []auditEntryResponse {
	result := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = auditEntryResponse{
			EntryID:   e.EntryID,
			UserID:    e.UserID,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt.UTC().Format(timeLayout),
		}
	}
	return result
}

// Me handles GET /me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, buildUserResponse(AccountFrom(r.Context())))
}

// GetPrefs handles GET /me/prefs.
func (h *AccountHandler) GetPrefs(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.accountSvc.GetPrefs(AccountFrom(r.Context()).UserID)
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, prefsPayload{
		TimeRangeDays: prefs.TimeRangeDays,
		GraphInterval: prefs.GraphInterval,
	})
}

// UpdatePrefs handles PUT /me/prefs.
func (h *AccountHandler) UpdatePrefs(w http.ResponseWriter, r *http.Request) {
	var req prefsPayload
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	prefs, err := h.accountSvc.UpdatePrefs(AccountFrom(r.Context()).UserID, domain.Preferences{
		TimeRangeDays: req.TimeRangeDays,
		GraphInterval: req.GraphInterval,
	})
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, prefsPayload{
		TimeRangeDays: prefs.TimeRangeDays,
		GraphInterval: prefs.GraphInterval,
	})
}

// Balances handles GET /me/balances.
func (h *AccountHandler) Balances(w http.ResponseWriter, r *http.Request) {
	views, err := h.accountSvc.Balances(AccountFrom(r.Context()).UserID)
	if err != nil {
		MapError(w, err)
		return
	}

	result := make([]balanceResponse, len(views))
	for i, v := range views {
		result[i] = balanceResponse{
			Currency:  v.Currency,
			Spendable: domain.FromMinor(v.Spendable),
			Held:      domain.FromMinor(v.Held),
			Total:     domain.FromMinor(v.Total),
		}
	}
	WriteJSON(w, http.StatusOK, result)
}

// Audit handles GET /me/audit.
func (h *AccountHandler) Audit(w http.ResponseWriter, r *http.Request) {
	entries := h.auditSvc.ListMine(AccountFrom(r.Context()).UserID)
	WriteJSON(w, http.StatusOK, buildAuditResponses(entries))
}
