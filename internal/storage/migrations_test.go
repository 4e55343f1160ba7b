package storage

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	err := runner.Run()
	require.NoError(t, err)

	for _, table := range []string{"history", "schema_migrations"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	expectedIndexes := []string{
		"idx_history_visit_date",
		"idx_history_domain",
		"idx_history_page_url",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
		assert.Equal(t, idx, name)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	require.NoError(t, runner.Run())
	require.NoError(t, runner.Run())

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "should have exactly 1 migration recorded after double-run")
}

func TestMigrationRunner_SchemaMigrationsTracking(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var version int
	var name string
	err := db.QueryRow("SELECT version, name FROM schema_migrations WHERE version = 1").Scan(&version, &name)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "initial_schema", name)
}

func TestMigrationRunner_WALMode(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	// In-memory databases report "memory" regardless of the requested mode.
	assert.Contains(t, []string{"wal", "memory"}, journalMode)
}

func TestMigrationRunner_RejectsUnknownJournalMode(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db).WithJournalMode("bogus; DROP TABLE x")
	assert.Error(t, runner.Run())
}

func TestMigrationRunner_HistoryTableColumns(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	_, err := db.Exec(`
		INSERT INTO history (id, page_url, page_title, domain, visit_date)
		VALUES ('test-uuid', 'https://example.com', 'Example', 'example.com', CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	var id, pageURL, title, domain string
	err = db.QueryRow("SELECT id, page_url, page_title, domain FROM history WHERE id = 'test-uuid'").
		Scan(&id, &pageURL, &title, &domain)
	require.NoError(t, err)
	assert.Equal(t, "test-uuid", id)
	assert.Equal(t, "https://example.com", pageURL)
	assert.Equal(t, "Example", title)
	assert.Equal(t, "example.com", domain)

	// id is unique
	_, err = db.Exec(`INSERT INTO history (id, page_url) VALUES ('test-uuid', 'https://other.com')`)
	assert.Error(t, err)
}
