package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

// SystemStats is the admin stats summary.
type SystemStats struct {
	TotalUsers        int
	TotalTransactions int
	TotalVolumeUSD    float64
}

// ActiveUser is one row in the most-active-users report.
type ActiveUser struct {
	Email        string
	Transactions int
}

// Report is the admin reports summary.
type Report struct {
	TotalUSDVolume  float64
	OffersOpen      int
	OffersAccepted  int
	OffersCancelled int
	MostActiveUsers []ActiveUser
}

// BackupStatus describes the current journal backup, if any.
type BackupStatus struct {
	Available  bool
	LastBackup *time.Time
}

// AdminService serves the admin surface: user management, platform
// stats, reports, and journal backup/restore.
type AdminService struct {
	accounts   *store.AccountStore
	offers     *store.OfferStore
	log        *store.LedgerLog
	audit      *AuditService
	journal    *store.Journal
	backupPath string
	treasuryID string
}

// NewAdminService creates an AdminService. journal may be nil when
// persistence is not configured; backup endpoints then fail with
// domain.ErrInvalidOperation.
func NewAdminService(
	accounts *store.AccountStore,
	offers *store.OfferStore,
	log *store.LedgerLog,
	audit *AuditService,
	journal *store.Journal,
	backupPath string,
	treasuryID string,
) *AdminService {
	return &AdminService{
		accounts:   accounts,
		offers:     offers,
		log:        log,
		audit:      audit,
		journal:    journal,
		backupPath: backupPath,
		treasuryID: treasuryID,
	}
}

// ListUsers returns every registered account except the treasury,
// sorted by creation time.
func (s *AdminService) ListUsers() []*domain.Account {
	accounts := make([]*domain.Account, 0)
	for _, a := range s.accounts.List() {
		if a.UserID == s.treasuryID {
			continue
		}
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts
}

// UpdateUserStatus sets a user's account status.
func (s *AdminService) UpdateUserStatus(userID, status string) error {
	st := domain.AccountStatus(status)
	if st != domain.AccountStatusActive && st != domain.AccountStatusSuspended {
		return &domain.ValidationError{Message: "status must be 'ACTIVE' or 'SUSPENDED'"}
	}
	if userID == s.treasuryID {
		return domain.ErrInvalidOperation
	}

	account, err := s.accounts.Get(userID)
	if err != nil {
		return err
	}
	account.SetStatus(st)

	s.audit.Record(userID, "STATUS_UPDATED", fmt.Sprintf("User status updated to %s", st))
	return nil
}

// Stats returns platform-wide totals. Volume counts the USD side of
// every direct swap once.
func (s *AdminService) Stats() SystemStats {
	stats := SystemStats{TotalUsers: s.accounts.Count() - 1}
	for r := range s.log.Query(store.RecordFilter{Type: domain.RecordDirectSwap}) {
		stats.TotalTransactions++
		stats.TotalVolumeUSD += s.usdVolume(r)
	}
	return stats
}

// Reports returns offer counts by state, total volume, and the five
// most active users by direct swap count.
func (s *AdminService) Reports() Report {
	report := Report{
		OffersOpen:      s.offers.CountByState(domain.OfferStateOpen),
		OffersAccepted:  s.offers.CountByState(domain.OfferStateAccepted),
		OffersCancelled: s.offers.CountByState(domain.OfferStateCancelled),
	}

	counts := make(map[string]int)
	for r := range s.log.Query(store.RecordFilter{Type: domain.RecordDirectSwap}) {
		report.TotalUSDVolume += s.usdVolume(r)
		seen := make(map[string]bool)
		for _, p := range r.Postings {
			if p.UserID == s.treasuryID || seen[p.UserID] {
				continue
			}
			seen[p.UserID] = true
			counts[p.UserID]++
		}
	}

	type userCount struct {
		userID string
		count  int
	}
	ranked := make([]userCount, 0, len(counts))
	for userID, count := range counts {
		ranked = append(ranked, userCount{userID, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].userID < ranked[j].userID
	})

	for i := 0; i < len(ranked) && i < 5; i++ {
		account, err := s.accounts.Get(ranked[i].userID)
		if err != nil {
			continue
		}
		report.MostActiveUsers = append(report.MostActiveUsers, ActiveUser{
			Email:        account.Email,
			Transactions: ranked[i].count,
		})
	}
	return report
}

// usdVolume returns the USD amount a direct swap moved, counted once
// from the non-treasury side.
func (s *AdminService) usdVolume(r *domain.LedgerRecord) float64 {
	for _, p := range r.Postings {
		if p.Currency != domain.CurrencyUSD || p.UserID == s.treasuryID {
			continue
		}
		delta := p.Delta
		if delta < 0 {
			delta = -delta
		}
		return domain.FromMinor(delta)
	}
	return 0
}

// Latest returns the newest n audit entries across all users.
func (s *AdminService) Latest(n int) []*domain.AuditEntry {
	return s.audit.Latest(n)
}

// Backup writes a consistent copy of the journal to the backup path.
func (s *AdminService) Backup() error {
	if s.journal == nil {
		return domain.ErrInvalidOperation
	}
	return s.journal.Backup(s.backupPath)
}

// Restore copies the backup over the live journal file. The restored
// state takes effect on the next restart.
func (s *AdminService) Restore() error {
	if s.journal == nil {
		return domain.ErrInvalidOperation
	}
	return s.journal.Restore(s.backupPath)
}

// BackupStatus reports whether a backup exists and when it was taken.
func (s *AdminService) BackupStatus() BackupStatus {
	mtime, ok := store.BackupInfo(s.backupPath)
	if !ok {
		return BackupStatus{}
	}
	return BackupStatus{Available: true, LastBackup: &mtime}
}
