package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/auth"
	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/engine"
	"github.com/cambial/cambio/internal/store"
)

// stubFetcher serves a canned quote so tests never touch the network.
type stubFetcher struct {
	quote *domain.RateQuote
	err   error
}

func (s *stubFetcher) Fetch(ctx context.Context) (*domain.RateQuote, error) {
	if s.err != nil {
		return nil, s.err
	}
	q := *s.quote
	q.FetchedAt = time.Now().UTC()
	return &q, nil
}

func stubQuote(buy, sell int64) *stubFetcher {
	b := decimal.NewFromInt(buy)
	s := decimal.NewFromInt(sell)
	return &stubFetcher{quote: &domain.RateQuote{
		Buy:    b,
		Sell:   s,
		Mid:    b.Add(s).Div(decimal.NewFromInt(2)),
		Source: "stub",
	}}
}

// fixture wires the full service stack over in-memory stores with a
// stubbed rate feed and a pre-created treasury account.
type fixture struct {
	accounts   *store.AccountStore
	holds      *store.HoldStore
	offers     *store.OfferStore
	log        *store.LedgerLog
	notifStore *store.NotificationStore

	accountSvc *AccountService
	exchange   *ExchangeService
	market     *MarketService
	rates      *RateService
	alerts     *AlertService
	notifs     *NotificationService
	audit      *AuditService
	admin      *AdminService

	treasuryID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	accounts := store.NewAccountStore()
	holds := store.NewHoldStore()
	offers := store.NewOfferStore()
	log := store.NewLedgerLog(nil)
	notifStore := store.NewNotificationStore()

	audit := NewAuditService(store.NewAuditStore())
	notifs := NewNotificationService(notifStore)
	alerts := NewAlertService(store.NewAlertStore(), notifs, audit)
	rates := NewRateService(stubQuote(89_000, 90_000), store.NewSnapshotStore(), alerts)

	tokens := auth.NewManager("test-secret", time.Hour)
	seed := map[string]int64{
		domain.CurrencyUSD: 100_000,    // 1,000.00 USD
		domain.CurrencyLBP: 90_000_000, // 900,000.00 LBP
	}
	accountSvc := NewAccountService(accounts, holds, tokens, audit, seed)

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

	exchange := NewExchangeService(swaps, rates, log, audit, treasury.UserID)
	market := NewMarketService(ctrl, offers, book, log, notifs, audit)
	admin := NewAdminService(accounts, offers, log, audit, nil, "", treasury.UserID)

	return &fixture{
		accounts:   accounts,
		holds:      holds,
		offers:     offers,
		log:        log,
		notifStore: notifStore,
		accountSvc: accountSvc,
		exchange:   exchange,
		market:     market,
		rates:      rates,
		alerts:     alerts,
		notifs:     notifs,
		audit:      audit,
		admin:      admin,
		treasuryID: treasury.UserID,
	}
}

// register creates a user and returns its ID.
func (f *fixture) register(t *testing.T, email string) string {
	t.Helper()
	_, account, err := f.accountSvc.Register(RegisterRequest{Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return account.UserID
}
