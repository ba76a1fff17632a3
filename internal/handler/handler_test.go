package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/auth"
	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/engine"
	"github.com/cambial/cambio/internal/service"
	"github.com/cambial/cambio/internal/store"
)

// stubFetcher serves a fixed quote so handler tests never reach the
// network.
type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context) (*domain.RateQuote, error) {
	buy := decimal.NewFromInt(89_000)
	sell := decimal.NewFromInt(90_000)
	return &domain.RateQuote{
		Buy:       buy,
		Sell:      sell,
		Mid:       buy.Add(sell).Div(decimal.NewFromInt(2)),
		Source:    "stub",
		FetchedAt: time.Now().UTC(),
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	accounts := store.NewAccountStore()
	holds := store.NewHoldStore()
	offers := store.NewOfferStore()
	log := store.NewLedgerLog(nil)

	audit := service.NewAuditService(store.NewAuditStore())
	notifs := service.NewNotificationService(store.NewNotificationStore())
	alerts := service.NewAlertService(store.NewAlertStore(), notifs, audit)
	rates := service.NewRateService(stubFetcher{}, store.NewSnapshotStore(), alerts)

	tokens := auth.NewManager("test-secret", time.Hour)
	seed := map[string]int64{
		domain.CurrencyUSD: 100_000,    // 1,000.00 USD
		domain.CurrencyLBP: 90_000_000, // 900,000.00 LBP
	}
	accountSvc := service.NewAccountService(accounts, holds, tokens, audit, seed)

	treasury := &domain.Account{
		UserID: "treasury",
		Email:  "treasury@test.local",
		Status: domain.AccountStatusActive,
		Balances: map[string]int64{
			domain.CurrencyUSD: 1_000_000_000,
			domain.CurrencyLBP: 100_000_000_000,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := accounts.Create(treasury); err != nil {
		t.Fatalf("create treasury: %v", err)
	}

	swaps := engine.NewSwapEngine(accounts, log)
	escrow := engine.NewEscrowManager(accounts, holds, log)
	book := engine.NewOfferBook()
	ctrl := engine.NewOfferController(offers, escrow, book)

	svcs := Services{
		Accounts:      accountSvc,
		Exchange:      service.NewExchangeService(swaps, rates, log, audit, treasury.UserID),
		Market:        service.NewMarketService(ctrl, offers, book, log, notifs, audit),
		Rates:         rates,
		Alerts:        alerts,
		Watchlist:     service.NewWatchlistService(store.NewWatchlistStore()),
		Notifications: notifs,
		Audit:         audit,
		Admin:         service.NewAdminService(accounts, offers, log, audit, nil, "", treasury.UserID),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(svcs, tokens, accounts, RouterConfig{RateLimitRPS: 1000, RateLimitBurst: 1000}, logger)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// do sends a request with an optional bearer token and JSON body and
// decodes the JSON response into out when out is non-nil.
func do(t *testing.T, srv *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// registerUser creates an account over HTTP and returns its token.
func registerUser(t *testing.T, srv *httptest.Server, email string, admin bool) string {
	t.Helper()
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	status := do(t, srv, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    email,
		"password": "secret1",
		"admin":    admin,
	}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, status)
	}
	if resp.AccessToken == "" {
		t.Fatalf("register %s: empty token", email)
	}
	return resp.AccessToken
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	var resp map[string]string
	if status := do(t, srv, http.MethodGet, "/healthz", "", nil, &resp); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp["status"] != "ok" {
		t.Errorf("body = %v", resp)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice@test.local", false)

	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if status := do(t, srv, http.MethodGet, "/me", token, nil, &me); status != http.StatusOK {
		t.Fatalf("/me status = %d", status)
	}
	if me.Email != "alice@test.local" || me.Role != "USER" {
		t.Errorf("me = %+v", me)
	}

	if status := do(t, srv, http.MethodGet, "/me", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", status)
	}
	if status := do(t, srv, http.MethodGet, "/me", "not-a-jwt", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", status)
	}

	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	status := do(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "alice@test.local", "password": "secret1",
	}, &login)
	if status != http.StatusOK || login.TokenType != "bearer" || login.AccessToken == "" {
		t.Errorf("login: status %d, body %+v", status, login)
	}

	if status := do(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "alice@test.local", "password": "wrong",
	}, nil); status != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", status)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "dup@test.local", false)

	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	status := do(t, srv, http.MethodPost, "/auth/register", "", map[string]any{
		"email": "dup@test.local", "password": "secret1",
	}, &errResp)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if errResp.Error.Code != "validation_error" {
		t.Errorf("code = %q", errResp.Error.Code)
	}
}

func TestContentTypeRequired(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/register",
		bytes.NewReader([]byte(`{"email":"a@test.local","password":"secret1"}`)))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAdminAccessControl(t *testing.T) {
	srv := newTestServer(t)
	userToken := registerUser(t, srv, "user@test.local", false)
	adminToken := registerUser(t, srv, "admin@test.local", true)

	if status := do(t, srv, http.MethodGet, "/admin/stats", userToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("non-admin: status = %d, want 403", status)
	}

	var stats struct {
		TotalUsers int `json:"total_users"`
	}
	if status := do(t, srv, http.MethodGet, "/admin/stats", adminToken, nil, &stats); status != http.StatusOK {
		t.Fatalf("admin: status = %d", status)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("total_users = %d, want 2", stats.TotalUsers)
	}
}

func TestDirectSwapOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice@test.local", false)

	var record struct {
		Type     string `json:"type"`
		Postings []struct {
			Currency string  `json:"currency"`
			Delta    float64 `json:"delta"`
		} `json:"postings"`
	}
	status := do(t, srv, http.MethodPost, "/transactions", token, map[string]any{
		"direction": "USD_TO_LBP", "amount": 100,
	}, &record)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if record.Type != "direct_swap" {
		t.Errorf("type = %q", record.Type)
	}

	// Only the caller's postings are exposed.
	var balances []struct {
		Currency  string  `json:"currency"`
		Spendable float64 `json:"spendable"`
	}
	if status := do(t, srv, http.MethodGet, "/me/balances", token, nil, &balances); status != http.StatusOK {
		t.Fatalf("balances status = %d", status)
	}
	for _, b := range balances {
		if b.Currency == domain.CurrencyUSD && b.Spendable != 900 {
			t.Errorf("USD spendable = %v, want 900", b.Spendable)
		}
	}

	if status := do(t, srv, http.MethodPost, "/transactions", token, map[string]any{
		"direction": "USD_TO_LBP", "amount": 1_000_000,
	}, nil); status != http.StatusBadRequest {
		t.Errorf("insufficient funds: status = %d, want 400", status)
	}
}

func TestOfferLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	makerToken := registerUser(t, srv, "maker@test.local", false)
	takerToken := registerUser(t, srv, "taker@test.local", false)

	var offer struct {
		OfferID string `json:"offer_id"`
		State   string `json:"state"`
	}
	status := do(t, srv, http.MethodPost, "/offers", makerToken, map[string]any{
		"offer_currency": "USD", "want_currency": "LBP", "amount": 10, "rate": 89_500,
	}, &offer)
	if status != http.StatusCreated {
		t.Fatalf("post offer: status = %d", status)
	}
	if offer.State != "OPEN" {
		t.Errorf("state = %q, want OPEN", offer.State)
	}

	var listed []struct {
		OfferID string `json:"offer_id"`
	}
	if status := do(t, srv, http.MethodGet, "/offers", takerToken, nil, &listed); status != http.StatusOK {
		t.Fatalf("list offers: status = %d", status)
	}
	if len(listed) != 1 || listed[0].OfferID != offer.OfferID {
		t.Errorf("listed = %+v", listed)
	}

	// Accepting your own offer is rejected.
	acceptPath := fmt.Sprintf("/offers/%s/accept", offer.OfferID)
	if status := do(t, srv, http.MethodPost, acceptPath, makerToken, nil, nil); status != http.StatusBadRequest {
		t.Errorf("self-accept: status = %d, want 400", status)
	}

	var accepted struct {
		Offer struct {
			State string `json:"state"`
		} `json:"offer"`
		Settlement struct {
			Type string `json:"type"`
		} `json:"settlement"`
	}
	if status := do(t, srv, http.MethodPost, acceptPath, takerToken, nil, &accepted); status != http.StatusOK {
		t.Fatalf("accept: status = %d", status)
	}
	if accepted.Offer.State != "ACCEPTED" || accepted.Settlement.Type != "escrow_release" {
		t.Errorf("accepted = %+v", accepted)
	}

	// A second accept hits a closed offer.
	if status := do(t, srv, http.MethodPost, acceptPath, takerToken, nil, nil); status != http.StatusConflict {
		t.Errorf("double accept: status = %d, want 409", status)
	}

	var trades []struct {
		Type string `json:"type"`
	}
	if status := do(t, srv, http.MethodGet, "/trades", takerToken, nil, &trades); status != http.StatusOK {
		t.Fatalf("trades: status = %d", status)
	}
	if len(trades) != 1 {
		t.Errorf("trades = %d, want 1", len(trades))
	}

	// Both parties were notified.
	var notifs []struct {
		Message string `json:"message"`
	}
	if status := do(t, srv, http.MethodGet, "/notifications", makerToken, nil, &notifs); status != http.StatusOK {
		t.Fatalf("notifications: status = %d", status)
	}
	if len(notifs) != 1 {
		t.Errorf("maker notifications = %d, want 1", len(notifs))
	}
}

func TestCancelOfferOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	makerToken := registerUser(t, srv, "maker@test.local", false)
	otherToken := registerUser(t, srv, "other@test.local", false)

	var offer struct {
		OfferID string `json:"offer_id"`
	}
	if status := do(t, srv, http.MethodPost, "/offers", makerToken, map[string]any{
		"offer_currency": "USD", "want_currency": "LBP", "amount": 10, "rate": 89_500,
	}, &offer); status != http.StatusCreated {
		t.Fatalf("post offer: status = %d", status)
	}

	path := "/offers/" + offer.OfferID
	if status := do(t, srv, http.MethodDelete, path, otherToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("foreign cancel: status = %d, want 403", status)
	}
	if status := do(t, srv, http.MethodDelete, path, makerToken, nil, nil); status != http.StatusOK {
		t.Errorf("cancel: status = %d, want 200", status)
	}
	if status := do(t, srv, http.MethodDelete, path, makerToken, nil, nil); status != http.StatusConflict {
		t.Errorf("double cancel: status = %d, want 409", status)
	}
	if status := do(t, srv, http.MethodDelete, "/offers/ghost", makerToken, nil, nil); status != http.StatusNotFound {
		t.Errorf("unknown offer: status = %d, want 404", status)
	}
}

func TestRateEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var quote struct {
		Buy  string `json:"buy"`
		Sell string `json:"sell"`
		Mid  string `json:"mid"`
	}
	if status := do(t, srv, http.MethodGet, "/rate", "", nil, &quote); status != http.StatusOK {
		t.Fatalf("/rate: status = %d", status)
	}
	if quote.Mid != "89500" {
		t.Errorf("mid = %q, want 89500", quote.Mid)
	}

	// The fetch above recorded a snapshot, so stats have one point.
	var stats struct {
		Count int `json:"count"`
	}
	if status := do(t, srv, http.MethodGet, "/rate/stats?days=7", "", nil, &stats); status != http.StatusOK {
		t.Fatalf("/rate/stats: status = %d", status)
	}
	if stats.Count != 1 {
		t.Errorf("count = %d, want 1", stats.Count)
	}

	if status := do(t, srv, http.MethodGet, "/rate/stats?days=0", "", nil, nil); status != http.StatusBadRequest {
		t.Errorf("bad days: status = %d, want 400", status)
	}
}

func TestNotificationsAndWatchlistCRUD(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "alice@test.local", false)

	var item struct {
		ItemID string `json:"item_id"`
	}
	if status := do(t, srv, http.MethodPost, "/watchlist", token, map[string]any{
		"item_type": "PAIR", "value": "USD/LBP", "note": "main market",
	}, &item); status != http.StatusCreated {
		t.Fatalf("add watchlist: status = %d", status)
	}

	var items []struct {
		ItemID string `json:"item_id"`
	}
	if status := do(t, srv, http.MethodGet, "/watchlist", token, nil, &items); status != http.StatusOK || len(items) != 1 {
		t.Fatalf("list watchlist: status = %d, items = %d", status, len(items))
	}
	if status := do(t, srv, http.MethodDelete, "/watchlist/"+item.ItemID, token, nil, nil); status != http.StatusOK {
		t.Errorf("delete watchlist: status = %d", status)
	}
	if status := do(t, srv, http.MethodDelete, "/watchlist/"+item.ItemID, token, nil, nil); status != http.StatusNotFound {
		t.Errorf("double delete: status = %d, want 404", status)
	}
}
