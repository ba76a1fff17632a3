package store

import (
	"iter"
	"sync"
	"time"

	"github.com/cambial/cambio/internal/domain"
)

// RecordFilter selects ledger records in a Query call. Zero values
// match everything.
type RecordFilter struct {
	UserID string            // match records involving this user
	Type   domain.RecordType // match records of this type
	From   time.Time         // inclusive lower bound on CreatedAt
	To     time.Time         // inclusive upper bound on CreatedAt
}

func (f RecordFilter) matches(r *domain.LedgerRecord) bool {
	if f.UserID != "" && !r.Involves(f.UserID) {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && r.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.CreatedAt.After(f.To) {
		return false
	}
	return true
}

// LedgerLog is the append-only transaction log. Records live in memory
// in insertion order; when a Journal is attached every append is also
// written through to sqlite before it becomes visible, and a journal
// failure aborts the append with a PersistenceError.
type LedgerLog struct {
	mu      sync.RWMutex
	records []*domain.LedgerRecord
	journal *Journal
}

// NewLedgerLog creates a LedgerLog. journal may be nil for a purely
// in-memory log (tests, ephemeral deployments).
func NewLedgerLog(journal *Journal) *LedgerLog {
	return &LedgerLog{
		records: make([]*domain.LedgerRecord, 0),
		journal: journal,
	}
}

// Append adds one immutable record. It fails only on a storage-layer
// failure, surfaced as *domain.PersistenceError; in that case the
// record is not visible in memory either.
func (l *LedgerLog) Append(r *domain.LedgerRecord) error {
	if l.journal != nil {
		if err := l.journal.Append(r); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()
	return nil
}

// Preload installs previously journaled records without writing them
// back. Called once at startup, before the log is shared.
func (l *LedgerLog) Preload(records []*domain.LedgerRecord) {
	l.mu.Lock()
	l.records = append(l.records, records...)
	l.mu.Unlock()
}

// Query returns a lazy, restartable sequence of records in insertion
// order matching the filter. The sequence iterates over a snapshot
// taken at call time, so it is safe against concurrent appends and can
// be ranged over more than once.
func (l *LedgerLog) Query(f RecordFilter) iter.Seq[*domain.LedgerRecord] {
	l.mu.RLock()
	snapshot := make([]*domain.LedgerRecord, len(l.records))
	copy(snapshot, l.records)
	l.mu.RUnlock()

	return func(yield func(*domain.LedgerRecord) bool) {
		for _, r := range snapshot {
			if !f.matches(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Count returns the number of appended records.
func (l *LedgerLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// NetDelta sums every record's deltas for one (user, currency) pair.
// For any account this reconciles exactly with its current spendable
// balance minus its seeded balance, counting ACTIVE holds as spent.
func (l *LedgerLog) NetDelta(userID, currency string) int64 {
	var total int64
	for r := range l.Query(RecordFilter{UserID: userID}) {
		total += r.DeltaFor(userID, currency)
	}
	return total
}
