package domain

import "time"

// WatchlistItem is a user-curated bookmark (a rate level, a currency,
// or free-form note) with no behavior attached.
type WatchlistItem struct {
	ItemID    string
	UserID    string
	ItemType  string
	Value     string
	Note      string
	CreatedAt time.Time
}

// Notification is an in-app message delivered to one user.
type Notification struct {
	NotificationID string
	UserID         string
	Message        string
	Read           bool
	CreatedAt      time.Time
}

// AuditEntry records one user-visible action for the audit trail.
// UserID may be empty for failed logins against unknown emails.
type AuditEntry struct {
	EntryID   string
	UserID    string
	Action    string
	Details   string
	CreatedAt time.Time
}
