package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/service"
)

// RateHandler handles HTTP requests for the live rate and its
// analytics.
type RateHandler struct {
	rateSvc *service.RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateSvc *service.RateService) *RateHandler {
	return &RateHandler{rateSvc: rateSvc}
}

// quoteResponse is the JSON shape of a live quote.
type quoteResponse struct {
	Buy       string `json:"buy"`
	Sell      string `json:"sell"`
	Mid       string `json:"mid"`
	Source    string `json:"source"`
	FetchedAt string `json:"fetched_at"`
}

// snapshotResponse is one stored quote in a history listing.
type snapshotResponse struct {
	Buy       string `json:"buy"`
	Sell      string `json:"sell"`
	Mid       string `json:"mid"`
	CreatedAt string `json:"created_at"`
}

// statsResponse is the JSON shape of rate statistics. Nullable fields
// are null when no snapshots fall in the window.
type statsResponse struct {
	Count         int      `json:"count"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	Avg           *float64 `json:"avg"`
	First         *float64 `json:"first"`
	Last          *float64 `json:"last"`
	PercentChange *float64 `json:"percent_change"`
	StdDev        *float64 `json:"std_dev"`
	TrendPerHour  *float64 `json:"trend_per_hour"`
}

// Current handles GET /rate.
func (h *RateHandler) Current(w http.ResponseWriter, r *http.Request) {
	quote, err := h.rateSvc.Current(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, "rate_unavailable", "Could not fetch the current rate")
		return
	}
	WriteJSON(w, http.StatusOK, quoteResponse{
		Buy:       quote.Buy.String(),
		Sell:      quote.Sell.String(),
		Mid:       quote.Mid.String(),
		Source:    quote.Source,
		FetchedAt: quote.FetchedAt.UTC().Format(timeLayout),
	})
}

// window parses the optional days query parameter (default 7, max 365)
// into a [from, to] range ending now.
func window(r *http.Request) (time.Time, time.Time, bool) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			return time.Time{}, time.Time{}, false
		}
		days = n
	}
	to := time.Now().UTC()
	return to.AddDate(0, 0, -days), to, true
}

// Stats handles GET /rate/stats.
func (h *RateHandler) Stats(w http.ResponseWriter, r *http.Request) {
	from, to, ok := window(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "validation_error", "days must be an integer between 1 and 365")
		return
	}

	s := h.rateSvc.Stats(from, to)
	WriteJSON(w, http.StatusOK, statsResponse{
		Count:         s.Count,
		Min:           s.Min,
		Max:           s.Max,
		Avg:           s.Avg,
		First:         s.First,
		Last:          s.Last,
		PercentChange: s.PercentChange,
		StdDev:        s.StdDev,
		TrendPerHour:  s.TrendPerHour,
	})
}

// Snapshots handles GET /rate/snapshots.
func (h *RateHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	from, to, ok := window(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "validation_error", "days must be an integer between 1 and 365")
		return
	}

	snaps := h.rateSvc.Snapshots(from, to)
	result := make([]snapshotResponse, len(snaps))
	for i, s := range snaps {
		result[i] = buildSnapshotResponse(s)
	}
	WriteJSON(w, http.StatusOK, result)
}

func buildSnapshotResponse(s *domain.RateSnapshot) snapshotResponse {
	return snapshotResponse{
		Buy:       s.Buy.String(),
		Sell:      s.Sell.String(),
		Mid:       s.Mid.String(),
		CreatedAt: s.CreatedAt.UTC().Format(timeLayout),
	}
}
