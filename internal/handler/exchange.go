package handler

import (
	"log/slog"
	"net/http"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/service"
)

// ExchangeHandler handles HTTP requests for direct swaps and the
// transaction history surface.
type ExchangeHandler struct {
	exchangeSvc *service.ExchangeService
}

// NewExchangeHandler creates a new ExchangeHandler.
func NewExchangeHandler(exchangeSvc *service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchangeSvc: exchangeSvc}
}

// directSwapRequest is the JSON request body for POST /transactions.
type directSwapRequest struct {
	Direction string  `json:"direction"`
	Amount    float64 `json:"amount"`
}

// postingResponse is one balance movement inside a ledger record.
type postingResponse struct {
	UserID    string  `json:"user_id"`
	Currency  string  `json:"currency"`
	Delta     float64 `json:"delta"`
	Resulting float64 `json:"resulting"`
}

// recordResponse is the JSON shape of a ledger record. offer_id and
// hold_id are null for direct swaps.
type recordResponse struct {
	RecordID  string            `json:"record_id"`
	Type      string            `json:"type"`
	OfferID   *string           `json:"offer_id"`
	HoldID    *string           `json:"hold_id"`
	Postings  []postingResponse `json:"postings"`
	CreatedAt string            `json:"created_at"`
}

func buildRecordResponse(r *domain.LedgerRecord) recordResponse {
	postings := make([]postingResponse, len(r.Postings))
	for i, p := range r.Postings {
		postings[i] = postingResponse{
			UserID:    p.UserID,
			Currency:  p.Currency,
			Delta:     domain.FromMinor(p.Delta),
			Resulting: domain.FromMinor(p.Resulting),
		}
	}

	resp := recordResponse{
		RecordID:  r.RecordID,
		Type:      string(r.Type),
		Postings:  postings,
		CreatedAt: r.CreatedAt.UTC().Format(timeLayout),
	}
	if r.OfferID != "" {
		resp.OfferID = &r.OfferID
	}
	if r.HoldID != "" {
		resp.HoldID = &r.HoldID
	}
	return resp
}

func buildRecordResponses(records []*domain.LedgerRecord) []recordResponse {
	result := make([]recordResponse, len(records))
	for i, r := range records {
		result[i] = buildRecordResponse(r)
	}
	return result
}

// CreateDirectSwap handles POST /transactions.
func (h *ExchangeHandler) CreateDirectSwap(w http.ResponseWriter, r *http.Request) {
	var req directSwapRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	record, err := h.exchangeSvc.CreateDirectSwap(r.Context(), service.DirectSwapRequest{
		UserID:    AccountFrom(r.Context()).UserID,
		Direction: req.Direction,
		Amount:    req.Amount,
	})
	if err != nil {
		MapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildRecordResponse(record))
}

// ListTransactions handles GET /transactions.
func (h *ExchangeHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	records := h.exchangeSvc.ListMine(AccountFrom(r.Context()).UserID)
	WriteJSON(w, http.StatusOK, buildRecordResponses(records))
}

// ExportTransactions handles GET /transactions/export. Headers are
// already sent once streaming starts, so a mid-stream failure can only
// be logged; the client sees a truncated file.
func (h *ExchangeHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	userID := AccountFrom(r.Context()).UserID
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := h.exchangeSvc.ExportCSV(w, userID); err != nil {
		slog.Error("csv export failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
