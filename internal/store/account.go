package store

import (
	"sync"

	"github.com/cambial/cambio/internal/domain"
)

// AccountStore is a thread-safe in-memory store for accounts, with a
// primary index by user_id and a secondary index by email.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]*domain.Account),
	}
}

// Create adds an account to the store. It returns domain.ErrEmailTaken
// if an account with the same email already exists.
func (s *AccountStore) Create(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[a.Email]; exists {
		return domain.ErrEmailTaken
	}
	s.byID[a.UserID] = a
	s.byEmail[a.Email] = a
	return nil
}

// Get retrieves an account by user ID. It returns domain.ErrNotFound
// if the account does not exist.
func (s *AccountStore) Get(id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// GetByEmail retrieves an account by email. It returns
// domain.ErrNotFound if no account uses that email.
func (s *AccountStore) GetByEmail(email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// List returns all accounts in unspecified order.
func (s *AccountStore) List() []*domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(s.byID))
	for _, a := range s.byID {
		accounts = append(accounts, a)
	}
	return accounts
}

// Count returns the number of stored accounts.
func (s *AccountStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Balance returns the committed spendable balance for one
// (user, currency) pair. It is never negative and is zero for unseen
// pairs. Returns domain.ErrNotFound for unknown users.
func (s *AccountStore) Balance(userID, currency string) (int64, error) {
	a, err := s.Get(userID)
	if err != nil {
		return 0, err
	}
	a.Mu.Lock()
	defer a.Mu.Unlock()
	return a.Balance(currency), nil
}
