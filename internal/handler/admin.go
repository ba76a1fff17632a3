package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cambial/cambio/internal/service"
)

// AdminHandler handles HTTP requests for the admin surface.
type AdminHandler struct {
	adminSvc *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts := h.adminSvc.ListUsers()
	result := make([]userResponse, len(accounts))
	for i, a := range accounts {
		result[i] = buildUserResponse(a)
	}
	WriteJSON(w, http.StatusOK, result)
}

// updateStatusRequest is the JSON request body for PUT
// /admin/users/{user_id}/status.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateUserStatus handles PUT /admin/users/{user_id}/status.
func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.adminSvc.UpdateUserStatus(chi.URLParam(r, "user_id"), req.Status); err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// statsResponseAdmin is the JSON shape of the platform stats summary.
type statsResponseAdmin struct {
	TotalUsers        int     `json:"total_users"`
	TotalTransactions int     `json:"total_transactions"`
	TotalVolumeUSD    float64 `json:"total_volume_usd"`
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s := h.adminSvc.Stats()
	WriteJSON(w, http.StatusOK, statsResponseAdmin{
		TotalUsers:        s.TotalUsers,
		TotalTransactions: s.TotalTransactions,
		TotalVolumeUSD:    s.TotalVolumeUSD,
	})
}

// activeUserResponse is one row in the reports listing.
type activeUserResponse struct {
	Email        string `json:"email"`
	Transactions int    `json:"transactions"`
}

// reportResponse is the JSON shape of the admin reports summary.
type reportResponse struct {
	TotalUSDVolume  float64              `json:"total_usd_volume"`
	OffersOpen      int                  `json:"offers_open"`
	OffersAccepted  int                  `json:"offers_accepted"`
	OffersCancelled int                  `json:"offers_cancelled"`
	MostActiveUsers []activeUserResponse `json:"most_active_users"`
}

// Reports handles GET /admin/reports.
func (h *AdminHandler) Reports(w http.ResponseWriter, r *http.Request) {
	report := h.adminSvc.Reports()

	users := make([]activeUserResponse, len(report.MostActiveUsers))
	for i, u := range report.MostActiveUsers {
		users[i] = activeUserResponse{Email: u.Email, Transactions: u.Transactions}
	}
	WriteJSON(w, http.StatusOK, reportResponse{
		TotalUSDVolume:  report.TotalUSDVolume,
		OffersOpen:      report.OffersOpen,
		OffersAccepted:  report.OffersAccepted,
		OffersCancelled: report.OffersCancelled,
		MostActiveUsers: users,
	})
}

// Audit handles GET /admin/audit. Accepts an optional limit query
// parameter (default 50).
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = n
	}
	WriteJSON(w, http.StatusOK, buildAuditResponses(h.adminSvc.Latest(limit)))
}

// Backup handles POST /admin/backup.
func (h *AdminHandler) Backup(w http.ResponseWriter, r *http.Request) {
	if err := h.adminSvc.Backup(); err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "backup_created"})
}

// Restore handles POST /admin/restore.
func (h *AdminHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.adminSvc.Restore(); err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "restored",
		"note":   "Restart the server to load the restored journal",
	})
}

// backupStatusResponse is the JSON shape of the backup status.
type backupStatusResponse struct {
	Available  bool    `json:"available"`
	LastBackup *string `json:"last_backup"`
}

// BackupStatus handles GET /admin/backup/status.
func (h *AdminHandler) BackupStatus(w http.ResponseWriter, r *http.Request) {
	status := h.adminSvc.BackupStatus()
	resp := backupStatusResponse{Available: status.Available}
	if status.LastBackup != nil {
		s := status.LastBackup.UTC().Format(timeLayout)
		resp.LastBackup = &s
	}
	WriteJSON(w, http.StatusOK, resp)
}
