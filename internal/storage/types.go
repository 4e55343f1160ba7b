package storage

import (
	"errors"
	"time"
)

// ErrStoreUnavailable is returned when the history database cannot be
// opened or migrated.
var ErrStoreUnavailable = errors.New("history store unavailable")

// ErrNotFound is returned when a history record does not exist.
var ErrNotFound = errors.New("history record not found")

// HistoryRecord is one completed page visit. Records are append-only:
// a new one is written per visit and never updated in place.
type HistoryRecord struct {
	ID        string
	PageURL   string
	PageTitle string
	Domain    string
	VisitDate time.Time
}

// Stats holds aggregate statistics about the history database.
type Stats struct {
	TotalVisits       int64
	UniqueURLs        int64
	OldestVisit       time.Time
	NewestVisit       time.Time
	DatabaseSizeBytes int64
	TopDomains        []DomainCount
}

// DomainCount pairs a domain with its visit count.
type DomainCount struct {
	Domain string
	Count  int64
}
