package cli

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/omnibar/internal/config"
	"github.com/runnerr0/omnibar/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// newTestRuntime returns a runtime over a migrated in-memory store and a
// small corpus file.
func newTestRuntime(t *testing.T) *runtime {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.NewMigrationRunner(db).Run())

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.Corpus.Path = writeCorpus(t, t.TempDir())

	return &runtime{
		cfg:    cfg,
		logger: zap.NewNop(),
		dbPath: ":memory:",
		store:  store,
	}
}

func writeCorpus(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "topdomains.txt")
	require.NoError(t, os.WriteFile(path, []byte("example.com\ntest.org\ngolang.org\n"), 0644))
	return path
}

// writeConfig writes a config file into dir pointing storage and corpus
// at dir, and returns its path.
func writeConfig(t *testing.T, dir string, extra string) string {
	t.Helper()
	corpusPath := writeCorpus(t, dir)
	content := "corpus:\n  path: " + corpusPath + "\n" +
		"storage:\n  path: " + dir + "\n  watch: false\n" +
		"daemon:\n  port: 1\n" +
		"logging:\n  level: error\n" + extra
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
