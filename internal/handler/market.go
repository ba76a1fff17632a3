package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/service"
)

// defaultOfferLimit caps the open-offer listing when the caller does
// not pass one.
const defaultOfferLimit = 50

// MarketHandler handles HTTP requests for the P2P offer marketplace.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// postOfferRequest is the JSON request body for POST /offers. Amount
// is major units of offer_currency; rate is want per unit of offer.
type postOfferRequest struct {
	OfferCurrency string  `json:"offer_currency"`
	WantCurrency  string  `json:"want_currency"`
	Amount        float64 `json:"amount"`
	Rate          float64 `json:"rate"`
}

// offerResponse is the JSON shape of an offer.
type offerResponse struct {
	OfferID         string  `json:"offer_id"`
	Maker           string  `json:"maker"`
	OfferCurrency   string  `json:"offer_currency"`
	WantCurrency    string  `json:"want_currency"`
	AmountOffered   float64 `json:"amount_offered"`
	AmountRequested float64 `json:"amount_requested"`
	Rate            string  `json:"rate"`
	State           string  `json:"state"`
	CreatedAt       string  `json:"created_at"`
	CancelledAt     *string `json:"cancelled_at"`
	AcceptedAt      *string `json:"accepted_at"`
	AcceptedBy      *string `json:"accepted_by"`
}

func buildOfferResponse(o *domain.Offer) offerResponse {
	// Snapshot under the offer lock: a racing accept or cancel must not
	// be observed mid-transition.
	v := o.Snapshot()

	resp := offerResponse{
		OfferID:         v.OfferID,
		Maker:           v.Maker,
		OfferCurrency:   v.OfferCurrency,
		WantCurrency:    v.WantCurrency,
		AmountOffered:   domain.FromMinor(v.AmountOffered),
		AmountRequested: domain.FromMinor(v.AmountRequested),
		Rate:            v.Rate.String(),
		State:           string(v.State),
		CreatedAt:       v.CreatedAt.UTC().Format(timeLayout),
	}
	if v.CancelledAt != nil {
		s := v.CancelledAt.UTC().Format(timeLayout)
		resp.CancelledAt = &s
	}
	if v.AcceptedAt != nil {
		s := v.AcceptedAt.UTC().Format(timeLayout)
		resp.AcceptedAt = &s
	}
	if v.AcceptedBy != "" {
		resp.AcceptedBy = &v.AcceptedBy
	}
	return resp
}

func buildOfferResponses(offers []*domain.Offer) []offerResponse {
	result := make([]offerResponse, len(offers))
	for i, o := range offers {
		result[i] = buildOfferResponse(o)
	}
	return result
}

// PostOffer handles POST /offers.
func (h *MarketHandler) PostOffer(w http.ResponseWriter, r *http.Request) {
	var req postOfferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	offer, err := h.marketSvc.PostOffer(r.Context(), service.PostOfferRequest{
		Maker:         AccountFrom(r.Context()).UserID,
		OfferCurrency: req.OfferCurrency,
		WantCurrency:  req.WantCurrency,
		Amount:        req.Amount,
		Rate:          req.Rate,
	})
	if err != nil {
		MapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOfferResponse(offer))
}

// ListOpen handles GET /offers. Accepts optional pair and limit query
// parameters.
func (h *MarketHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	limit := defaultOfferLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = n
	}

	offers, err := h.marketSvc.ListOpen(r.URL.Query().Get("pair"), limit)
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOfferResponses(offers))
}

// MyOffers handles GET /offers/mine.
func (h *MarketHandler) MyOffers(w http.ResponseWriter, r *http.Request) {
	offers := h.marketSvc.MyOffers(AccountFrom(r.Context()).UserID)
	WriteJSON(w, http.StatusOK, buildOfferResponses(offers))
}

// CancelOffer handles DELETE /offers/{offer_id}.
func (h *MarketHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.marketSvc.CancelOffer(r.Context(),
		chi.URLParam(r, "offer_id"), AccountFrom(r.Context()).UserID)
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOfferResponse(offer))
}

// acceptOfferResponse pairs the accepted offer with its settlement.
type acceptOfferResponse struct {
	Offer      offerResponse  `json:"offer"`
	Settlement recordResponse `json:"settlement"`
}

// AcceptOffer handles POST /offers/{offer_id}/accept.
func (h *MarketHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	offer, record, err := h.marketSvc.AcceptOffer(r.Context(),
		chi.URLParam(r, "offer_id"), AccountFrom(r.Context()).UserID)
	if err != nil {
		MapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, acceptOfferResponse{
		Offer:      buildOfferResponse(offer),
		Settlement: buildRecordResponse(record),
	})
}

// MyTrades handles GET /trades.
func (h *MarketHandler) MyTrades(w http.ResponseWriter, r *http.Request) {
	records := h.marketSvc.MyTrades(AccountFrom(r.Context()).UserID)
	WriteJSON(w, http.StatusOK, buildRecordResponses(records))
}
