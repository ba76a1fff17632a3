package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/service"
)

// WatchlistHandler handles HTTP requests for the user watchlist.
type WatchlistHandler struct {
	watchlistSvc *service.WatchlistService
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlistSvc *service.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlistSvc: watchlistSvc}
}

// addWatchlistRequest is the JSON request body for POST /watchlist.
type addWatchlistRequest struct {
	ItemType string `json:"item_type"`
	Value    string `json:"value"`
	Note     string `json:"note"`
}

// watchlistItemResponse is the JSON shape of a watchlist item.
type watchlistItemResponse struct {
	ItemID    string `json:"item_id"`
	ItemType  string `json:"item_type"`
	Value     string `json:"value"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}

func buildWatchlistItemResponse(item *domain.WatchlistItem) watchlistItemResponse {
	return watchlistItemResponse{
		ItemID:    item.ItemID,
		ItemType:  item.ItemType,
		Value:     item.Value,
		Note:      item.Note,
		CreatedAt: item.CreatedAt.UTC().Format(timeLayout),
	}
}

// Add handles POST /watchlist.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addWatchlistRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	item, err := h.watchlistSvc.Add(AccountFrom(r.Context()).UserID, req.ItemType, req.Value, req.Note)
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, buildWatchlistItemResponse(item))
}

// List handles GET /watchlist.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.watchlistSvc.ListMine(AccountFrom(r.Context()).UserID)
	result := make([]watchlistItemResponse, len(items))
	for i, item := range items {
		result[i] = buildWatchlistItemResponse(item)
	}
	WriteJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /watchlist/{item_id}.
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.watchlistSvc.Delete(AccountFrom(r.Context()).UserID, chi.URLParam(r, "item_id"))
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
