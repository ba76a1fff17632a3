package service

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cambial/cambio/internal/auth"
	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidGraphIntervals lists accepted preference values.
var ValidGraphIntervals = map[string]bool{
	"HOURLY": true,
	"DAILY":  true,
	"WEEKLY": true,
}

const minPasswordLength = 6

// RegisterRequest represents the input for account registration.
type RegisterRequest struct {
	Email    string
	Password string
	Admin    bool
}

// BalanceView is one currency's figures for the balance endpoint.
// Spendable excludes escrowed funds; Total includes them. Both are
// exposed so held funds stay visible without ever looking spendable.
type BalanceView struct {
	Currency  string
	Spendable int64
	Held      int64
	Total     int64
}

// AccountService handles registration, login, preferences, and
// balance queries.
type AccountService struct {
	accounts *store.AccountStore
	holds    *store.HoldStore
	tokens   *auth.Manager
	audit    *AuditService
	seed     map[string]int64 // currency → starting balance in minor units
}

// NewAccountService creates an AccountService. seed maps currencies to
// the starting balances granted at registration.
func NewAccountService(
	accounts *store.AccountStore,
	holds *store.HoldStore,
	tokens *auth.Manager,
	audit *AuditService,
	seed map[string]int64,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		holds:    holds,
		tokens:   tokens,
		audit:    audit,
		seed:     seed,
	}
}

// Register validates the request, creates an account with seeded
// balances, and returns an access token.
func (s *AccountService) Register(req RegisterRequest) (string, *domain.Account, error) {
	if !emailRegex.MatchString(req.Email) {
		return "", nil, &domain.ValidationError{Message: "email must be a valid address"}
	}
	if len(req.Password) < minPasswordLength {
		return "", nil, &domain.ValidationError{
			Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", nil, err
	}

	role := domain.RoleUser
	if req.Admin {
		role = domain.RoleAdmin
	}

	balances := make(map[string]int64, len(s.seed))
	for currency, amount := range s.seed {
		balances[currency] = amount
	}

	account := &domain.Account{
		UserID:       uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.AccountStatusActive,
		Prefs:        domain.Preferences{TimeRangeDays: 7, GraphInterval: "DAILY"},
		Balances:     balances,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.Create(account); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.IssueToken(account.UserID)
	if err != nil {
		return "", nil, err
	}

	s.audit.Record(account.UserID, "USER_REGISTERED", "Account created")
	return token, account, nil
}

// Login verifies credentials and returns an access token. Failed
// attempts are audited; suspended accounts are rejected.
func (s *AccountService) Login(email, password string) (string, *domain.Account, error) {
	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		s.audit.Record("", "LOGIN_FAILED", fmt.Sprintf("Failed attempt for email: %s", email))
		return "", nil, domain.ErrUnauthorized
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		s.audit.Record(account.UserID, "LOGIN_FAILED", fmt.Sprintf("Failed attempt for email: %s", email))
		return "", nil, domain.ErrUnauthorized
	}
	if account.CurrentStatus() == domain.AccountStatusSuspended {
		return "", nil, domain.ErrForbidden
	}

	token, err := s.tokens.IssueToken(account.UserID)
	if err != nil {
		return "", nil, err
	}

	s.audit.Record(account.UserID, "LOGIN_SUCCESS", "User logged in successfully")
	return token, account, nil
}

// Get retrieves an account by user ID.
func (s *AccountService) Get(userID string) (*domain.Account, error) {
	return s.accounts.Get(userID)
}

// GetPrefs returns the user's preferences.
func (s *AccountService) GetPrefs(userID string) (domain.Preferences, error) {
	account, err := s.accounts.Get(userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	return account.Preferences(), nil
}

// UpdatePrefs validates and stores new preferences.
func (s *AccountService) UpdatePrefs(userID string, prefs domain.Preferences) (domain.Preferences, error) {
	if prefs.TimeRangeDays < 1 || prefs.TimeRangeDays > 365 {
		return domain.Preferences{}, &domain.ValidationError{Message: "time_range_days must be between 1 and 365"}
	}
	if !ValidGraphIntervals[prefs.GraphInterval] {
		return domain.Preferences{}, &domain.ValidationError{
			Message: "graph_interval must be one of: HOURLY, DAILY, WEEKLY",
		}
	}

	account, err := s.accounts.Get(userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	account.SetPreferences(prefs)

	s.audit.Record(userID, "PREFS_UPDATED",
		fmt.Sprintf("Updated defaults: %d days, %s", prefs.TimeRangeDays, prefs.GraphInterval))
	return prefs, nil
}

// Balances returns one view per currency the user has touched, sorted
// by currency code.
func (s *AccountService) Balances(userID string) ([]BalanceView, error) {
	account, err := s.accounts.Get(userID)
	if err != nil {
		return nil, err
	}

	account.Mu.Lock()
	spendable := make(map[string]int64, len(account.Balances))
	for currency, amount := range account.Balances {
		spendable[currency] = amount
	}
	account.Mu.Unlock()

	views := make([]BalanceView, 0, len(spendable))
	for currency, amount := range spendable {
		held := s.holds.ActiveTotal(userID, currency)
		views = append(views, BalanceView{
			Currency:  currency,
			Spendable: amount,
			Held:      held,
			Total:     amount + held,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Currency < views[j].Currency })
	return views, nil
}
