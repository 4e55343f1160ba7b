package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/runnerr0/omnibar/internal/storage"
)

func openTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type failingSource struct{ subscribed int }

func (f *failingSource) ListHistory(context.Context) ([]storage.HistoryRecord, error) {
	return nil, errors.New("disk I/O error")
}

func (f *failingSource) Subscribe(func()) func() {
	f.subscribed++
	return func() {}
}

// --- Log ---

func TestLog_RecordsInStoreOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddVisit(ctx, &storage.HistoryRecord{PageURL: "b.com", PageTitle: "B"}))
	require.NoError(t, store.AddVisit(ctx, &storage.HistoryRecord{PageURL: "a.com", PageTitle: "A"}))

	log := NewLog(store, true, nil)
	records := log.Records(ctx)
	require.Len(t, records, 2)
	assert.Equal(t, "b.com", records[0].PageURL)
	assert.Equal(t, "a.com", records[1].PageURL)
}

func TestLog_TrackingDisabledReadsEmpty(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddVisit(ctx, &storage.HistoryRecord{PageURL: "a.com"}))

	log := NewLog(store, false, nil)
	assert.Empty(t, log.Records(ctx))
}

func TestLog_UnavailableStore(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := NewLog(nil, true, zap.New(core))

	assert.Empty(t, log.Records(context.Background()))
	assert.Equal(t, 1, logs.FilterMessageSnippet("unavailable").Len())

	cancel := log.Subscribe(func() { t.Fatal("must not fire") })
	assert.NotPanics(t, func() {
		cancel()
		cancel()
	})
}

func TestLog_QueryFailureReadsEmpty(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := &failingSource{}
	log := NewLog(src, true, zap.New(core))

	assert.Empty(t, log.Records(context.Background()))
	assert.Equal(t, 1, logs.Len())
}

func TestLog_SubscribeForwardsToStore(t *testing.T) {
	store := openTestStore(t)
	log := NewLog(store, true, nil)

	calls := 0
	cancel := log.Subscribe(func() { calls++ })

	require.NoError(t, store.AddVisit(context.Background(), &storage.HistoryRecord{PageURL: "a.com"}))
	assert.Equal(t, 1, calls)

	cancel()
	require.NoError(t, store.AddVisit(context.Background(), &storage.HistoryRecord{PageURL: "b.com"}))
	assert.Equal(t, 1, calls)
}

// --- Recorder ---

func TestRecorder_RecordsVisit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)

	rec := NewRecorder(store, true, true, nil)
	rec.now = func() time.Time { return fixed }

	got, err := rec.RecordVisit(ctx, "https://golang.org/doc", "Documentation")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)

	stored, err := store.GetVisit(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Documentation", stored.PageTitle)
	assert.True(t, fixed.Equal(stored.VisitDate))
}

func TestRecorder_TrackingDisabled(t *testing.T) {
	store := openTestStore(t)
	rec := NewRecorder(store, false, true, nil)

	_, err := rec.RecordVisit(context.Background(), "https://golang.org", "Go")
	assert.True(t, errors.Is(err, ErrNotRecorded))

	records, err := store.ListHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecorder_SkipsLocalPages(t *testing.T) {
	store := openTestStore(t)
	rec := NewRecorder(store, true, true, nil)

	for _, u := range []string{
		"http://localhost:6571/errors/error.html",
		"http://127.0.0.1/",
		"http://[::1]:8080/x",
	} {
		_, err := rec.RecordVisit(context.Background(), u, "")
		assert.True(t, errors.Is(err, ErrNotRecorded), u)
	}

	_, err := rec.RecordVisit(context.Background(), "https://localhost.example.com/", "")
	assert.NoError(t, err)
}

func TestRecorder_LocalPagesAllowedWhenNotExcluded(t *testing.T) {
	store := openTestStore(t)
	rec := NewRecorder(store, true, false, nil)

	_, err := rec.RecordVisit(context.Background(), "http://localhost/", "Local")
	assert.NoError(t, err)
}

func TestRecorder_EmptyURL(t *testing.T) {
	rec := NewRecorder(openTestStore(t), true, true, nil)
	_, err := rec.RecordVisit(context.Background(), "", "Untitled")
	assert.True(t, errors.Is(err, ErrNotRecorded))
}
