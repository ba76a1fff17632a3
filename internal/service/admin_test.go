package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cambial/cambio/internal/domain"
)

func TestAdmin_ListUsersExcludesTreasury(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@test.local")
	f.register(t, "bob@test.local")

	users := f.admin.ListUsers()
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	for _, u := range users {
		if u.UserID == f.treasuryID {
			t.Error("treasury leaked into the user list")
		}
	}
}

func TestAdmin_UpdateUserStatus(t *testing.T) {
	f := newFixture(t)
	userID := f.register(t, "alice@test.local")

	if err := f.admin.UpdateUserStatus(userID, "SUSPENDED"); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	account, err := f.accounts.Get(userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if account.Status != domain.AccountStatusSuspended {
		t.Errorf("status = %q, want SUSPENDED", account.Status)
	}

	var validationErr *domain.ValidationError
	if err := f.admin.UpdateUserStatus(userID, "BANNED"); !errors.As(err, &validationErr) {
		t.Errorf("bad status: error = %v, want ValidationError", err)
	}
	if err := f.admin.UpdateUserStatus(f.treasuryID, "SUSPENDED"); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("treasury: error = %v, want ErrInvalidOperation", err)
	}
	if err := f.admin.UpdateUserStatus("nope", "ACTIVE"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown user: error = %v, want ErrNotFound", err)
	}
}

func TestAdmin_UpdateUserStatus_ConcurrentWithReads(t *testing.T) {
	f := newFixture(t)
	userID := f.register(t, "alice@test.local")
	account, err := f.accounts.Get(userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		status := "SUSPENDED"
		if i%2 == 0 {
			status = "ACTIVE"
		}
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := f.admin.UpdateUserStatus(userID, status); err != nil {
					t.Errorf("update: %v", err)
					return
				}
			}
		}(status)
	}
	// Mirror the auth middleware reading status on every request.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch account.CurrentStatus() {
				case domain.AccountStatusActive, domain.AccountStatusSuspended:
				default:
					t.Error("observed invalid status")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestAdmin_StatsAndReports(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@test.local")
	bob := f.register(t, "bob@test.local")

	for _, userID := range []string{alice, alice, bob} {
		if _, err := f.exchange.CreateDirectSwap(context.Background(), DirectSwapRequest{
			UserID: userID, Direction: DirectionUSDToLBP, Amount: 100,
		}); err != nil {
			t.Fatalf("swap: %v", err)
		}
	}
	open := postOffer(t, f, alice, 10, 89_500)
	cancelled := postOffer(t, f, alice, 10, 89_500)
	if _, err := f.market.CancelOffer(context.Background(), cancelled.OfferID, alice); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_ = open

	stats := f.admin.Stats()
	if stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", stats.TotalUsers)
	}
	if stats.TotalTransactions != 3 {
		t.Errorf("TotalTransactions = %d, want 3", stats.TotalTransactions)
	}
	if stats.TotalVolumeUSD != 300 {
		t.Errorf("TotalVolumeUSD = %v, want 300", stats.TotalVolumeUSD)
	}

	report := f.admin.Reports()
	if report.OffersOpen != 1 || report.OffersCancelled != 1 || report.OffersAccepted != 0 {
		t.Errorf("offer counts = %d/%d/%d", report.OffersOpen, report.OffersAccepted, report.OffersCancelled)
	}
	if report.TotalUSDVolume != 300 {
		t.Errorf("TotalUSDVolume = %v, want 300", report.TotalUSDVolume)
	}
	if len(report.MostActiveUsers) != 2 {
		t.Fatalf("MostActiveUsers = %d, want 2", len(report.MostActiveUsers))
	}
	if report.MostActiveUsers[0].Email != "alice@test.local" || report.MostActiveUsers[0].Transactions != 2 {
		t.Errorf("top user = %+v", report.MostActiveUsers[0])
	}
}

func TestAdmin_BackupRequiresJournal(t *testing.T) {
	f := newFixture(t)

	if err := f.admin.Backup(); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("Backup: error = %v, want ErrInvalidOperation", err)
	}
	if err := f.admin.Restore(); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("Restore: error = %v, want ErrInvalidOperation", err)
	}
	if status := f.admin.BackupStatus(); status.Available {
		t.Error("no backup should be reported")
	}
}
