package store

import (
	"testing"
	"time"

	"github.com/cambial/cambio/internal/domain"
)

func record(id string, typ domain.RecordType, at time.Time, postings ...domain.Posting) *domain.LedgerRecord {
	return &domain.LedgerRecord{
		RecordID:  id,
		Type:      typ,
		Postings:  postings,
		CreatedAt: at,
	}
}

func posting(userID, currency string, delta int64) domain.Posting {
	return domain.Posting{UserID: userID, Currency: currency, Delta: delta}
}

func collect(log *LedgerLog, f RecordFilter) []*domain.LedgerRecord {
	var out []*domain.LedgerRecord
	for r := range log.Query(f) {
		out = append(out, r)
	}
	return out
}

func TestLedgerLog_AppendAndQueryOrder(t *testing.T) {
	log := NewLedgerLog(nil)
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		if err := log.Append(record(id, domain.RecordDirectSwap, t0.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	got := collect(log, RecordFilter{})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"r1", "r2", "r3"} {
		if got[i].RecordID != want {
			t.Errorf("position %d = %q, want %q", i, got[i].RecordID, want)
		}
	}
	if log.Count() != 3 {
		t.Errorf("Count = %d, want 3", log.Count())
	}
}

func TestLedgerLog_QueryFilters(t *testing.T) {
	log := NewLedgerLog(nil)
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	log.Append(record("r1", domain.RecordDirectSwap, t0, posting("alice", "USD", -100)))
	log.Append(record("r2", domain.RecordEscrowLock, t0.Add(time.Hour), posting("alice", "USD", -50)))
	log.Append(record("r3", domain.RecordDirectSwap, t0.Add(2*time.Hour), posting("bob", "USD", -10)))

	if got := collect(log, RecordFilter{UserID: "alice"}); len(got) != 2 {
		t.Errorf("UserID filter: len = %d, want 2", len(got))
	}
	if got := collect(log, RecordFilter{Type: domain.RecordDirectSwap}); len(got) != 2 {
		t.Errorf("Type filter: len = %d, want 2", len(got))
	}
	if got := collect(log, RecordFilter{UserID: "alice", Type: domain.RecordEscrowLock}); len(got) != 1 || got[0].RecordID != "r2" {
		t.Errorf("combined filter: got %v", got)
	}

	// Time bounds are inclusive.
	got := collect(log, RecordFilter{From: t0.Add(time.Hour), To: t0.Add(2 * time.Hour)})
	if len(got) != 2 || got[0].RecordID != "r2" || got[1].RecordID != "r3" {
		t.Errorf("time filter: got %d records", len(got))
	}
}

func TestLedgerLog_QueryIsRestartable(t *testing.T) {
	log := NewLedgerLog(nil)
	log.Append(record("r1", domain.RecordDirectSwap, time.Now().UTC()))
	log.Append(record("r2", domain.RecordDirectSwap, time.Now().UTC()))

	seq := log.Query(RecordFilter{})

	first := 0
	for range seq {
		first++
		break // early exit must not exhaust the sequence
	}
	second := 0
	for range seq {
		second++
	}
	if first != 1 || second != 2 {
		t.Errorf("first pass = %d, second pass = %d; want 1 and 2", first, second)
	}
}

func TestLedgerLog_QuerySnapshotIgnoresLaterAppends(t *testing.T) {
	log := NewLedgerLog(nil)
	log.Append(record("r1", domain.RecordDirectSwap, time.Now().UTC()))

	seq := log.Query(RecordFilter{})
	log.Append(record("r2", domain.RecordDirectSwap, time.Now().UTC()))

	n := 0
	for range seq {
		n++
	}
	if n != 1 {
		t.Errorf("snapshot saw %d records, want 1", n)
	}
}

func TestLedgerLog_NetDelta(t *testing.T) {
	log := NewLedgerLog(nil)
	t0 := time.Now().UTC()

	log.Append(record("r1", domain.RecordDirectSwap, t0,
		posting("alice", "USD", -10_000), posting("alice", "LBP", 9_000_000)))
	log.Append(record("r2", domain.RecordEscrowLock, t0, posting("alice", "USD", -500)))
	log.Append(record("r3", domain.RecordEscrowRefund, t0, posting("alice", "USD", 500)))

	if got := log.NetDelta("alice", "USD"); got != -10_000 {
		t.Errorf("NetDelta(alice, USD) = %d, want -10000", got)
	}
	if got := log.NetDelta("alice", "LBP"); got != 9_000_000 {
		t.Errorf("NetDelta(alice, LBP) = %d, want 9000000", got)
	}
	if got := log.NetDelta("bob", "USD"); got != 0 {
		t.Errorf("NetDelta(bob, USD) = %d, want 0", got)
	}
}

func TestLedgerLog_Preload(t *testing.T) {
	log := NewLedgerLog(nil)
	log.Preload([]*domain.LedgerRecord{
		record("r1", domain.RecordDirectSwap, time.Now().UTC()),
		record("r2", domain.RecordDirectSwap, time.Now().UTC()),
	})

	if log.Count() != 2 {
		t.Errorf("Count = %d, want 2", log.Count())
	}
}
