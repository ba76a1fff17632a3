package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

type marketFixture struct {
	ctrl     *OfferController
	accounts *store.AccountStore
	offers   *store.OfferStore
	holds    *store.HoldStore
	book     *OfferBook
	log      *store.LedgerLog
}

func newMarketFixture(t *testing.T) *marketFixture {
	t.Helper()
	accounts := store.NewAccountStore()
	holds := store.NewHoldStore()
	offers := store.NewOfferStore()
	log := store.NewLedgerLog(nil)
	book := NewOfferBook()
	escrow := NewEscrowManager(accounts, holds, log)
	return &marketFixture{
		ctrl:     NewOfferController(offers, escrow, book),
		accounts: accounts,
		offers:   offers,
		holds:    holds,
		book:     book,
		log:      log,
	}
}

func usdForLBP(maker string, usd, lbp int64) PostOfferParams {
	return PostOfferParams{
		Maker:           maker,
		OfferCurrency:   domain.CurrencyUSD,
		WantCurrency:    domain.CurrencyLBP,
		AmountOffered:   usd,
		AmountRequested: lbp,
		Rate:            decimal.NewFromInt(90000),
	}
}

func TestPost_CreatesOpenOfferWithHold(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 0))

	offer, err := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.State != domain.OfferStateOpen {
		t.Errorf("state = %q, want OPEN", offer.State)
	}
	if offer.HoldID == "" {
		t.Error("offer has no hold")
	}
	if got := balance(t, f.accounts, "maker", domain.CurrencyUSD); got != 0 {
		t.Errorf("maker spendable = %d, want 0", got)
	}
	if got := f.holds.ActiveTotal("maker", domain.CurrencyUSD); got != 10_000 {
		t.Errorf("held = %d, want 10000", got)
	}
	if f.book.Len() != 1 {
		t.Errorf("book len = %d, want 1", f.book.Len())
	}
}

func TestPost_InsufficientFunds(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 5_000, 0))

	_, err := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	if f.log.Count() != 0 {
		t.Errorf("log count = %d, want 0", f.log.Count())
	}
}

func TestCancel_RefundsAndCloses(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 0))

	offer, _ := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))

	cancelled, err := f.ctrl.Cancel(context.Background(), offer.OfferID, "maker")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.State != domain.OfferStateCancelled {
		t.Errorf("state = %q, want CANCELLED", cancelled.State)
	}
	if cancelled.CancelledAt == nil {
		t.Error("CancelledAt not set")
	}
	if got := balance(t, f.accounts, "maker", domain.CurrencyUSD); got != 10_000 {
		t.Errorf("maker spendable = %d, want 10000 after refund", got)
	}
	if f.book.Len() != 0 {
		t.Errorf("book len = %d, want 0", f.book.Len())
	}
}

func TestCancel_Twice(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 0))

	offer, _ := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))
	if _, err := f.ctrl.Cancel(context.Background(), offer.OfferID, "maker"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	_, err := f.ctrl.Cancel(context.Background(), offer.OfferID, "maker")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("error = %v, want ErrInvalidState", err)
	}
	if got := balance(t, f.accounts, "maker", domain.CurrencyUSD); got != 10_000 {
		t.Errorf("maker spendable = %d, want 10000 (no double refund)", got)
	}
}

func TestCancel_NotMaker(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 0))
	mustCreate(t, f.accounts, newTestAccount("other", 0, 0))

	offer, _ := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))

	_, err := f.ctrl.Cancel(context.Background(), offer.OfferID, "other")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestAccept_SettlesBothSides(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 0))
	mustCreate(t, f.accounts, newTestAccount("taker", 0, 9_000_000))

	offer, _ := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))

	accepted, record, err := f.ctrl.Accept(context.Background(), offer.OfferID, "taker")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.State != domain.OfferStateAccepted {
		t.Errorf("state = %q, want ACCEPTED", accepted.State)
	}
	if accepted.AcceptedBy != "taker" {
		t.Errorf("AcceptedBy = %q, want taker", accepted.AcceptedBy)
	}
	if record.Type != domain.RecordEscrowRelease {
		t.Errorf("record type = %q, want %q", record.Type, domain.RecordEscrowRelease)
	}
	if record.OfferID != offer.OfferID {
		t.Errorf("record offer = %q, want %q", record.OfferID, offer.OfferID)
	}

	if got := balance(t, f.accounts, "taker", domain.CurrencyUSD); got != 10_000 {
		t.Errorf("taker USD = %d, want 10000", got)
	}
	if got := balance(t, f.accounts, "maker", domain.CurrencyLBP); got != 9_000_000 {
		t.Errorf("maker LBP = %d, want 9000000", got)
	}
	if f.book.Len() != 0 {
		t.Errorf("book len = %d, want 0", f.book.Len())
	}
}

func TestAccept_OwnOffer(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 9_000_000))

	offer, _ := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))

	_, _, err := f.ctrl.Accept(context.Background(), offer.OfferID, "maker")
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestAccept_AfterCancel(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 0))
	mustCreate(t, f.accounts, newTestAccount("taker", 0, 9_000_000))

	offer, _ := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))
	if _, err := f.ctrl.Cancel(context.Background(), offer.OfferID, "maker"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, _, err := f.ctrl.Accept(context.Background(), offer.OfferID, "taker")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("error = %v, want ErrInvalidState", err)
	}
}

func TestAccept_ConcurrentTakersExactlyOneWins(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 0))

	const takers = 8
	for i := 0; i < takers; i++ {
		mustCreate(t, f.accounts, newTestAccount(takerID(i), 0, 9_000_000))
	}

	offer, _ := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))

	var wg sync.WaitGroup
	errs := make([]error, takers)
	for i := 0; i < takers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.ctrl.Accept(context.Background(), offer.OfferID, takerID(i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
			if got := balance(t, f.accounts, takerID(i), domain.CurrencyUSD); got != 10_000 {
				t.Errorf("winner USD = %d, want 10000", got)
			}
		case errors.Is(err, domain.ErrInvalidState):
			if got := balance(t, f.accounts, takerID(i), domain.CurrencyLBP); got != 9_000_000 {
				t.Errorf("loser LBP = %d, want unchanged 9000000", got)
			}
		default:
			t.Errorf("taker %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
	if got := balance(t, f.accounts, "maker", domain.CurrencyLBP); got != 9_000_000 {
		t.Errorf("maker LBP = %d, want 9000000 (paid once)", got)
	}
	// One lock record plus one settlement record.
	if f.log.Count() != 2 {
		t.Errorf("log count = %d, want 2", f.log.Count())
	}
}

func takerID(i int) string {
	return string(rune('a'+i)) + "-taker"
}

func TestListOpen_SnapshotDuringAccept(t *testing.T) {
	f := newMarketFixture(t)
	mustCreate(t, f.accounts, newTestAccount("maker", 10_000, 0))
	mustCreate(t, f.accounts, newTestAccount("taker", 0, 9_000_000))

	offer, _ := f.ctrl.Post(context.Background(), usdForLBP("maker", 10_000, 9_000_000))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, _, err := f.ctrl.Accept(context.Background(), offer.OfferID, "taker"); err != nil {
			t.Errorf("accept: %v", err)
		}
	}()

	// Readers listing the book while the accept runs take snapshots,
	// never a half-applied transition.
	for i := 0; i < 100; i++ {
		for _, o := range f.book.ListOpen(offer.Pair(), 0) {
			v := o.Snapshot()
			if v.State == domain.OfferStateAccepted && v.AcceptedBy == "" {
				t.Fatal("observed accepted offer without taker")
			}
		}
	}
	wg.Wait()
}
