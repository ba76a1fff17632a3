package engine

import (
	"sort"

	"github.com/cambial/cambio/internal/domain"
)

// lockAccounts acquires the per-account mutex of every distinct account
// in ascending user-id order and returns the matching unlock function.
// Ordered acquisition means two atomic units touching overlapping
// account sets can never deadlock; units on disjoint accounts proceed
// independently.
func lockAccounts(accounts ...*domain.Account) func() {
	seen := make(map[string]bool, len(accounts))
	uniq := make([]*domain.Account, 0, len(accounts))
	for _, a := range accounts {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			uniq = append(uniq, a)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].UserID < uniq[j].UserID })

	for _, a := range uniq {
		a.Mu.Lock()
	}
	return func() {
		for i := len(uniq) - 1; i >= 0; i-- {
			uniq[i].Mu.Unlock()
		}
	}
}

// stagedPosting pairs a pending posting with the account it applies to.
type stagedPosting struct {
	acct    *domain.Account
	posting domain.Posting
}

// unit stages the balance changes of one atomic unit. Deltas are
// validated and resulting balances computed against a scratch view;
// nothing touches the accounts until apply, which the caller invokes
// only after the ledger record has been durably appended. The caller
// must hold the locks of every involved account for the whole staging
// and apply sequence.
type unit struct {
	staged  []stagedPosting
	scratch map[string]int64 // userID+currency → running balance
}

func newUnit() *unit {
	return &unit{scratch: make(map[string]int64)}
}

func (u *unit) key(a *domain.Account, currency string) string {
	return a.UserID + "\x00" + currency
}

// stage records a delta for one (account, currency) pair. It returns
// domain.ErrInsufficientFunds if the running balance would go negative.
func (u *unit) stage(a *domain.Account, currency string, delta int64) error {
	if delta == 0 {
		return nil
	}
	k := u.key(a, currency)
	cur, ok := u.scratch[k]
	if !ok {
		cur = a.Balance(currency)
	}
	cur += delta
	if cur < 0 {
		return domain.ErrInsufficientFunds
	}
	u.scratch[k] = cur
	u.staged = append(u.staged, stagedPosting{
		acct: a,
		posting: domain.Posting{
			UserID:    a.UserID,
			Currency:  currency,
			Delta:     delta,
			Resulting: cur,
		},
	})
	return nil
}

// postings returns the staged postings in staging order.
func (u *unit) postings() []domain.Posting {
	result := make([]domain.Posting, len(u.staged))
	for i, sp := range u.staged {
		result[i] = sp.posting
	}
	return result
}

// apply commits every staged delta to the live balances. Postings for
// the same pair apply in staging order, so writing each Resulting value
// leaves the final balance correct.
func (u *unit) apply() {
	for _, sp := range u.staged {
		if sp.acct.Balances == nil {
			sp.acct.Balances = make(map[string]int64)
		}
		sp.acct.Balances[sp.posting.Currency] = sp.posting.Resulting
	}
}
