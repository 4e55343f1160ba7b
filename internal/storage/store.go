package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for history data operations.
type Store interface {
	AddVisit(ctx context.Context, record *HistoryRecord) error
	GetVisit(ctx context.Context, id string) (*HistoryRecord, error)
	ListHistory(ctx context.Context) ([]HistoryRecord, error)
	RecentHistory(ctx context.Context, limit, offset int) ([]HistoryRecord, error)
	DeleteVisit(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) (int64, error)
	GetStats(ctx context.Context) (*Stats, error)
	Subscribe(onChange func()) (cancel func())
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertVisit *sql.Stmt
	getVisit    *sql.Stmt
	deleteVisit *sql.Stmt

	changes notifier
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertVisit, err = s.db.Prepare(`
		INSERT INTO history (id, page_url, page_title, domain, visit_date)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getVisit, err = s.db.Prepare(`
		SELECT id, page_url, page_title, domain, visit_date
		FROM history WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.deleteVisit, err = s.db.Prepare(`DELETE FROM history WHERE id = ?`)
	if err != nil {
		return err
	}

	return nil
}

// timestampLayout is fixed-width so visit_date sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// extractDomain pulls the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// AddVisit appends a history record. ID and Domain are populated
// automatically; a zero VisitDate becomes now. Subscribers are notified
// after the insert commits.
func (s *SQLiteStore) AddVisit(ctx context.Context, record *HistoryRecord) error {
	if record.PageURL == "" {
		return fmt.Errorf("page URL is required")
	}

	record.ID = uuid.NewString()
	record.Domain = extractDomain(record.PageURL)

	if record.VisitDate.IsZero() {
		record.VisitDate = time.Now()
	}

	_, err := s.insertVisit.ExecContext(ctx,
		record.ID, record.PageURL, record.PageTitle, record.Domain,
		record.VisitDate.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}

	s.changes.notify()
	return nil
}

// GetVisit retrieves a single history record by ID.
func (s *SQLiteStore) GetVisit(ctx context.Context, id string) (*HistoryRecord, error) {
	var r HistoryRecord
	var tsStr string

	err := s.getVisit.QueryRowContext(ctx, id).Scan(
		&r.ID, &r.PageURL, &r.PageTitle, &r.Domain, &tsStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("visit %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get visit: %w", err)
	}

	r.VisitDate, _ = parseTimestamp(tsStr)
	return &r, nil
}

// ListHistory returns every record in store-iteration order, which is
// insertion order.
func (s *SQLiteStore) ListHistory(ctx context.Context) ([]HistoryRecord, error) {
	return s.scanRecords(ctx, `
		SELECT id, page_url, page_title, domain, visit_date
		FROM history ORDER BY rowid ASC
	`)
}

// RecentHistory returns records newest first, for history listings.
func (s *SQLiteStore) RecentHistory(ctx context.Context, limit, offset int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.scanRecords(ctx, `
		SELECT id, page_url, page_title, domain, visit_date
		FROM history ORDER BY visit_date DESC, rowid DESC LIMIT ? OFFSET ?
	`, limit, offset)
}

// scanRecords executes a query and scans results into HistoryRecord slices.
func (s *SQLiteStore) scanRecords(ctx context.Context, query string, args ...interface{}) ([]HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var r HistoryRecord
		var tsStr string
		if err := rows.Scan(&r.ID, &r.PageURL, &r.PageTitle, &r.Domain, &tsStr); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		r.VisitDate, _ = parseTimestamp(tsStr)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Return empty slice rather than nil
	if records == nil {
		records = []HistoryRecord{}
	}

	return records, nil
}

// DeleteVisit removes a single record by ID.
func (s *SQLiteStore) DeleteVisit(ctx context.Context, id string) error {
	res, err := s.deleteVisit.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("visit %s: %w", id, ErrNotFound)
	}

	s.changes.notify()
	return nil
}

// ClearHistory deletes every record and returns how many were removed.
// Subscribers are notified whenever at least one record was deleted.
func (s *SQLiteStore) ClearHistory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.changes.notify()
	}
	return n, nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT page_url) FROM history",
	).Scan(&stats.TotalVisits, &stats.UniqueURLs)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalVisits > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx, "SELECT MIN(visit_date), MAX(visit_date) FROM history").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("visit time range: %w", err)
		}
		stats.OldestVisit, _ = parseTimestamp(oldestStr)
		stats.NewestVisit, _ = parseTimestamp(newestStr)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.DatabaseSizeBytes = pageCount * pageSize
		}
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT domain, COUNT(*) AS cnt FROM history GROUP BY domain ORDER BY cnt DESC, domain ASC LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

// Subscribe registers onChange to be called once after every committed
// insertion or deletion. The returned cancel func is idempotent.
func (s *SQLiteStore) Subscribe(onChange func()) (cancel func()) {
	return s.changes.subscribe(onChange)
}

// NotifyChange fires subscribers for writes made outside this store,
// such as another process appending to the same database file.
func (s *SQLiteStore) NotifyChange() {
	s.changes.notify()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.insertVisit, s.getVisit, s.deleteVisit}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
