// Package history adapts the persisted visit log for the suggestion
// engine and gates what gets written to it.
package history

import (
	"context"

	"go.uber.org/zap"

	"github.com/runnerr0/omnibar/internal/storage"
)

// Source is the persisted log a Log reads from.
type Source interface {
	ListHistory(ctx context.Context) ([]storage.HistoryRecord, error)
	Subscribe(onChange func()) (cancel func())
}

// Log is a read model over the history store. It never fails: an
// unavailable store or a failed query reads as empty history.
type Log struct {
	src    Source
	track  bool
	logger *zap.Logger
}

// NewLog wraps src. A nil src means the store could not be opened.
// When track is false the log reads as empty.
func NewLog(src Source, track bool, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	if src == nil {
		logger.Warn("history store unavailable, suggestions limited to corpus",
			zap.Error(storage.ErrStoreUnavailable))
	}
	return &Log{src: src, track: track, logger: logger}
}

// Records returns the full current history in store-iteration order.
func (l *Log) Records(ctx context.Context) []storage.HistoryRecord {
	if l.src == nil || !l.track {
		return nil
	}
	records, err := l.src.ListHistory(ctx)
	if err != nil {
		l.logger.Warn("history query failed, treating history as empty", zap.Error(err))
		return nil
	}
	return records
}

// Subscribe registers onChange for every history insertion or deletion.
// The returned cancel func must be called on teardown; it is idempotent.
func (l *Log) Subscribe(onChange func()) (cancel func()) {
	if l.src == nil {
		return func() {}
	}
	return l.src.Subscribe(onChange)
}
