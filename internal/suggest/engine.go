// Package suggest merges the bundled top-domains corpus with browsing
// history into a deduplicated, ordered index and answers address-bar
// autocomplete queries against it.
package suggest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/omnibar/internal/metrics"
	"github.com/runnerr0/omnibar/internal/storage"
)

// HistorySource is the live history read model the engine observes.
// Records never fails; an unavailable store reads as empty.
type HistorySource interface {
	Records(ctx context.Context) []storage.HistoryRecord
	Subscribe(onChange func()) (cancel func())
}

// State is the engine lifecycle state.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Stats describes the currently published index.
type Stats struct {
	State   State
	Entries int
	Corpus  int
	History int
}

// Engine serves suggestions from an immutable index snapshot. Rebuilds
// construct a new index and swap it in atomically, so queries from any
// goroutine never observe a partial rebuild.
type Engine struct {
	corpus []string
	source HistorySource
	logger *zap.Logger

	snapshot  atomic.Pointer[index]
	rebuildMu sync.Mutex

	cancel    func()
	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates an engine over corpus and source, subscribes to history
// changes, and performs the initial build. source may be nil. Close must
// be called on teardown to release the history subscription.
func New(ctx context.Context, corpus []string, source HistorySource, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		corpus: append([]string(nil), corpus...),
		source: source,
		logger: logger,
	}

	// Subscribe before the first build so no change slips between them.
	if source != nil {
		e.cancel = source.Subscribe(e.onHistoryChange)
	}
	e.Rebuild(ctx)

	return e
}

func (e *Engine) onHistoryChange() {
	if e.closed.Load() {
		return
	}
	e.Rebuild(context.Background())
}

// Rebuild regenerates the index from the corpus (file order) followed by
// history (store order) and publishes it. Rebuilds are serialized.
func (e *Engine) Rebuild(ctx context.Context) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	start := time.Now()

	ix := newIndex(len(e.corpus))
	for _, domain := range e.corpus {
		ix.insert(Entry{URL: domain})
	}
	ix.corpus = ix.len()

	var records []storage.HistoryRecord
	if e.source != nil {
		records = e.source.Records(ctx)
	}
	for _, r := range records {
		title := r.PageTitle
		ix.insert(Entry{URL: r.PageURL, Title: &title})
	}

	e.snapshot.Store(ix)

	elapsed := time.Since(start)
	metrics.RebuildsTotal.Inc()
	metrics.RebuildDuration.Observe(elapsed.Seconds())
	metrics.IndexEntries.WithLabelValues("corpus").Set(float64(ix.corpus))
	metrics.IndexEntries.WithLabelValues("history").Set(float64(ix.len() - ix.corpus))

	e.logger.Debug("suggestion index rebuilt",
		zap.Int("entries", ix.len()),
		zap.Int("corpus", ix.corpus),
		zap.Int("history_records", len(records)),
		zap.Duration("elapsed", elapsed),
	)
}

// Query returns every entry whose URL contains text, after stripping one
// leading "https://" or "http://". Matching is case-sensitive and
// unanchored; results are in index order and unlimited.
func (e *Engine) Query(text string) []Entry {
	ix := e.snapshot.Load()
	if ix == nil {
		return []Entry{}
	}

	results := ix.filter(stripScheme(text))
	if len(results) == 0 {
		metrics.QueriesTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.QueriesTotal.WithLabelValues("hit").Inc()
	}
	return results
}

// TitleFor returns the title recorded for url, or nil when url is not
// indexed or has no title.
func (e *Engine) TitleFor(url string) *string {
	ix := e.snapshot.Load()
	if ix == nil {
		return nil
	}
	return ix.title(url)
}

// Stats reports on the published index.
func (e *Engine) Stats() Stats {
	ix := e.snapshot.Load()
	if ix == nil {
		return Stats{State: Uninitialized}
	}
	return Stats{
		State:   Ready,
		Entries: ix.len(),
		Corpus:  ix.corpus,
		History: ix.len() - ix.corpus,
	}
}

// Close cancels the history subscription. Safe to call multiple times.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.cancel != nil {
			e.cancel()
		}
	})
}

func stripScheme(text string) string {
	if rest, ok := strings.CutPrefix(text, "https://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(text, "http://"); ok {
		return rest
	}
	return text
}
