package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/domain"
)

func TestAlert_CreateValidation(t *testing.T) {
	f := newFixture(t)
	userID := f.register(t, "alice@test.local")

	var validationErr *domain.ValidationError
	if _, err := f.alerts.Create(userID, 0, "ABOVE"); !errors.As(err, &validationErr) {
		t.Errorf("zero rate: error = %v, want ValidationError", err)
	}
	if _, err := f.alerts.Create(userID, 90_000, "SIDEWAYS"); !errors.As(err, &validationErr) {
		t.Errorf("bad condition: error = %v, want ValidationError", err)
	}

	alert, err := f.alerts.Create(userID, 90_000, "ABOVE")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !alert.Active {
		t.Error("new alert should be active")
	}
}

func TestAlert_DeleteOwnership(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@test.local")
	bob := f.register(t, "bob@test.local")

	alert, err := f.alerts.Create(alice, 90_000, "BELOW")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.alerts.Delete(bob, alert.AlertID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign delete: error = %v, want ErrNotFound", err)
	}
	if err := f.alerts.Delete(alice, alert.AlertID); err != nil {
		t.Errorf("own delete: %v", err)
	}
	if err := f.alerts.Delete(alice, alert.AlertID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

func TestAlert_SweepFiresOnce(t *testing.T) {
	f := newFixture(t)
	userID := f.register(t, "alice@test.local")

	if _, err := f.alerts.Create(userID, 90_000, "ABOVE"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Below the target: nothing fires.
	f.alerts.Sweep(decimal.NewFromInt(89_000))
	if notifs := f.notifs.ListMine(userID); len(notifs) != 0 {
		t.Fatalf("notifications = %d, want 0", len(notifs))
	}

	// Crosses the target: fires and deactivates.
	f.alerts.Sweep(decimal.NewFromInt(91_000))
	if notifs := f.notifs.ListMine(userID); len(notifs) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifs))
	}
	f.alerts.Sweep(decimal.NewFromInt(95_000))
	if notifs := f.notifs.ListMine(userID); len(notifs) != 1 {
		t.Errorf("alert fired twice")
	}

	alerts := f.alerts.ListMine(userID)
	if len(alerts) != 1 || alerts[0].Active {
		t.Error("triggered alert should be deactivated but kept")
	}
}
