package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

// AlertService manages one-shot rate alerts and their notifications.
type AlertService struct {
	alerts *store.AlertStore
	notifs *NotificationService
	audit  *AuditService
}

// NewAlertService creates an AlertService.
func NewAlertService(alerts *store.AlertStore, notifs *NotificationService, audit *AuditService) *AlertService {
	return &AlertService{alerts: alerts, notifs: notifs, audit: audit}
}

// Create validates and stores a new active alert.
func (s *AlertService) Create(userID string, targetRate float64, condition string) (*domain.Alert, error) {
	if targetRate <= 0 {
		return nil, &domain.ValidationError{Message: "target_rate must be greater than 0"}
	}
	cond := domain.AlertCondition(condition)
	if cond != domain.AlertAbove && cond != domain.AlertBelow {
		return nil, &domain.ValidationError{Message: "condition must be 'ABOVE' or 'BELOW'"}
	}

	alert := &domain.Alert{
		AlertID:    uuid.New().String(),
		UserID:     userID,
		TargetRate: decimal.NewFromFloat(targetRate),
		Condition:  cond,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	s.alerts.Create(alert)

	s.audit.Record(userID, "ALERT_CREATED",
		fmt.Sprintf("Set %s alert for %s", cond, alert.TargetRate))
	return alert, nil
}

// ListMine returns the user's alerts, newest first.
func (s *AlertService) ListMine(userID string) []*domain.Alert {
	return s.alerts.ListByUser(userID)
}

// Delete removes one of the user's alerts. Returns domain.ErrNotFound
// for unknown IDs or alerts owned by someone else.
func (s *AlertService) Delete(userID, alertID string) error {
	alert, err := s.alerts.Get(alertID)
	if err != nil || alert.UserID != userID {
		return domain.ErrNotFound
	}
	return s.alerts.Delete(alertID)
}

// Sweep evaluates every active alert against the given mid rate.
// Triggered alerts notify their owner and deactivate; alerts fire at
// most once.
func (s *AlertService) Sweep(mid decimal.Decimal) {
	for _, alert := range s.alerts.Active() {
		if !alert.Triggered(mid) {
			continue
		}
		alertsTriggeredTotal.Inc()
		s.notifs.Notify(alert.UserID, fmt.Sprintf(
			"ALERT TRIGGERED: Rate went %s %s LBP (Current: %s)",
			alert.Condition, alert.TargetRate, mid))
		s.alerts.Deactivate(alert.AlertID)
	}
}
