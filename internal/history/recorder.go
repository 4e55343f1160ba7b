package history

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/omnibar/internal/storage"
)

// ErrNotRecorded is returned when a visit is deliberately skipped.
var ErrNotRecorded = errors.New("visit not recorded")

// Writer appends visits to the persisted log.
type Writer interface {
	AddVisit(ctx context.Context, record *storage.HistoryRecord) error
}

// Recorder logs page visits subject to the user's track-history preference.
type Recorder struct {
	w                Writer
	track            bool
	excludeLocalhost bool
	logger           *zap.Logger
	now              func() time.Time
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w Writer, track, excludeLocalhost bool, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		w:                w,
		track:            track,
		excludeLocalhost: excludeLocalhost,
		logger:           logger,
		now:              time.Now,
	}
}

// RecordVisit appends a record for a completed page load. Skipped visits
// return an error wrapping ErrNotRecorded.
func (r *Recorder) RecordVisit(ctx context.Context, pageURL, pageTitle string) (*storage.HistoryRecord, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrNotRecorded)
	}
	// Pages we serve ourselves never enter history.
	if r.excludeLocalhost && isLocal(pageURL) {
		return nil, fmt.Errorf("%w: local page %s", ErrNotRecorded, pageURL)
	}
	if !r.track {
		return nil, fmt.Errorf("%w: history tracking disabled", ErrNotRecorded)
	}

	rec := &storage.HistoryRecord{
		PageURL:   pageURL,
		PageTitle: pageTitle,
		VisitDate: r.now(),
	}
	if err := r.w.AddVisit(ctx, rec); err != nil {
		r.logger.Error("record visit", zap.String("url", pageURL), zap.Error(err))
		return nil, fmt.Errorf("record visit: %w", err)
	}

	r.logger.Debug("visit recorded", zap.String("id", rec.ID), zap.String("url", pageURL))
	return rec, nil
}

func isLocal(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
