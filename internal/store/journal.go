package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cambial/cambio/internal/domain"
)

// Journal is the durable sqlite sink behind the LedgerLog. It stores
// one row per record with the postings serialized as JSON, enough to
// replay balances after a restart.
type Journal struct {
	db   *sql.DB
	path string
}

// OpenJournal opens (creating if needed) the sqlite journal at path.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "journal.open", Err: err}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS ledger_records (
	record_id  TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	offer_id   TEXT NOT NULL DEFAULT '',
	hold_id    TEXT NOT NULL DEFAULT '',
	postings   TEXT NOT NULL,
	created_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &domain.PersistenceError{Op: "journal.migrate", Err: err}
	}

	return &Journal{db: db, path: path}, nil
}

// Close closes the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append writes one record. Failures surface as *domain.PersistenceError.
func (j *Journal) Append(r *domain.LedgerRecord) error {
	postings, err := json.Marshal(r.Postings)
	if err != nil {
		return &domain.PersistenceError{Op: "journal.append", Err: err}
	}

	_, err = j.db.Exec(
		`INSERT INTO ledger_records (record_id, type, offer_id, hold_id, postings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.RecordID, string(r.Type), r.OfferID, r.HoldID, string(postings),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return &domain.PersistenceError{Op: "journal.append", Err: err}
	}
	return nil
}

// Load reads every record in insertion order. Used to rebuild the
// in-memory log (and, through replay, balances) after a restart.
func (j *Journal) Load() ([]*domain.LedgerRecord, error) {
	rows, err := j.db.Query(
		`SELECT record_id, type, offer_id, hold_id, postings, created_at
		 FROM ledger_records ORDER BY rowid ASC`)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "journal.load", Err: err}
	}
	defer rows.Close()

	var records []*domain.LedgerRecord
	for rows.Next() {
		var (
			r         domain.LedgerRecord
			typ       string
			postings  string
			createdAt string
		)
		if err := rows.Scan(&r.RecordID, &typ, &r.OfferID, &r.HoldID, &postings, &createdAt); err != nil {
			return nil, &domain.PersistenceError{Op: "journal.load", Err: err}
		}
		r.Type = domain.RecordType(typ)
		if err := json.Unmarshal([]byte(postings), &r.Postings); err != nil {
			return nil, &domain.PersistenceError{Op: "journal.load", Err: err}
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "journal.load", Err: err}
		}
		r.CreatedAt = t
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "journal.load", Err: err}
	}
	return records, nil
}

// Backup writes a consistent copy of the journal to dst using sqlite's
// VACUUM INTO. An existing file at dst is replaced.
func (j *Journal) Backup(dst string) error {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return &domain.PersistenceError{Op: "journal.backup", Err: err}
	}
	if _, err := j.db.Exec("VACUUM INTO ?", dst); err != nil {
		return &domain.PersistenceError{Op: "journal.backup", Err: err}
	}
	return nil
}

// Restore copies the backup at src over the live journal file. The
// open handle still sees the old data; the caller must restart the
// process to pick up the restored state.
func (j *Journal) Restore(src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ErrNotFound
		}
		return &domain.PersistenceError{Op: "journal.restore", Err: err}
	}
	if err := os.WriteFile(j.path, data, 0o644); err != nil {
		return &domain.PersistenceError{Op: "journal.restore", Err: err}
	}
	return nil
}

// BackupInfo reports whether a backup exists at path and its mtime.
func BackupInfo(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
