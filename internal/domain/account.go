package domain

import (
	"sync"
	"time"
)

// Role controls access to the admin surface.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AccountStatus gates authentication. Suspended accounts are rejected
// at the auth middleware before any ledger operation runs.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Preferences holds per-user display defaults for the rate graph.
type Preferences struct {
	TimeRangeDays int
	GraphInterval string
}

// Account represents a registered user and their wallet. Balances hold
// spendable minor units per currency; escrowed funds are debited out of
// Balances at lock time and tracked on Hold records, so the value here
// is always the spendable figure.
type Account struct {
	UserID       string
	Email        string
	PasswordHash string
	Role         Role
	Status       AccountStatus
	Prefs        Preferences
	Balances     map[string]int64 // currency → spendable minor units
	CreatedAt    time.Time
	Mu           sync.Mutex // guards Status, Prefs, and Balances
}

// CurrentStatus returns the account status. Admin actions write Status
// while the auth middleware reads it on every request, so both sides
// go through Mu.
func (a *Account) CurrentStatus() AccountStatus {
	a.Mu.Lock()
	defer a.Mu.Unlock()
	return a.Status
}

// SetStatus updates the account status under Mu.
func (a *Account) SetStatus(status AccountStatus) {
	a.Mu.Lock()
	a.Status = status
	a.Mu.Unlock()
}

// Preferences returns a copy of the account preferences under Mu.
func (a *Account) Preferences() Preferences {
	a.Mu.Lock()
	defer a.Mu.Unlock()
	return a.Prefs
}

// SetPreferences replaces the account preferences under Mu.
func (a *Account) SetPreferences(prefs Preferences) {
	a.Mu.Lock()
	a.Prefs = prefs
	a.Mu.Unlock()
}

// Balance returns the spendable balance for the given currency, zero
// for unseen currencies. Caller must hold Mu.
func (a *Account) Balance(currency string) int64 {
	return a.Balances[currency]
}

// IsAdmin reports whether the account carries the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
