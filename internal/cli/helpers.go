package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/runnerr0/omnibar/internal/config"
	"github.com/runnerr0/omnibar/internal/corpus"
	"github.com/runnerr0/omnibar/internal/history"
	"github.com/runnerr0/omnibar/internal/logger"
	"github.com/runnerr0/omnibar/internal/storage"
	"github.com/runnerr0/omnibar/internal/suggest"
)

// runtime bundles what every command needs: resolved config, a logger,
// and (once opened) the history store.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	dbPath string

	db    *sql.DB
	store *storage.SQLiteStore
}

// loadRuntime resolves config and logging from the global flags. The
// store is opened separately so commands can decide whether a missing
// store is fatal.
func loadRuntime(globals *GlobalFlags) (*runtime, error) {
	var (
		cfg *config.Config
		err error
	)
	if globals.Config != "" {
		path, perr := config.ExpandPath(globals.Config)
		if perr != nil {
			return nil, perr
		}
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if globals.Verbose {
		level = "debug"
	}
	log, err := logger.New(cfg.Logging.Format, level)
	if err != nil {
		return nil, err
	}

	dbPath := globals.DBPath
	if dbPath == "" {
		dbPath, err = cfg.DBPath()
	} else {
		dbPath, err = config.ExpandPath(dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}

	return &runtime{cfg: cfg, logger: log, dbPath: dbPath}, nil
}

// openStore opens the history database, runs migrations, and prepares the store.
func (rt *runtime) openStore() error {
	dir := filepath.Dir(rt.dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", rt.dbPath+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db).WithJournalMode(rt.cfg.Storage.SQLiteJournalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("init store: %w", err)
	}

	rt.db = db
	rt.store = store
	return nil
}

// requireStore opens the store, failing with ErrStoreUnavailable.
func (rt *runtime) requireStore() error {
	if rt.store != nil {
		return nil
	}
	if err := rt.openStore(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// tryStore opens the store but only logs on failure; suggestions still
// work from the corpus alone.
func (rt *runtime) tryStore() {
	if rt.store != nil {
		return
	}
	if err := rt.openStore(); err != nil {
		rt.logger.Warn("history store unavailable", zap.String("path", rt.dbPath), zap.Error(err))
	}
}

// historySource returns the store as a history.Source, or a nil
// interface when no store is open.
func (rt *runtime) historySource() history.Source {
	if rt.store == nil {
		return nil
	}
	return rt.store
}

// newEngine builds a suggestion engine over the configured corpus and
// whatever history is available.
func (rt *runtime) newEngine(ctx context.Context) *suggest.Engine {
	domains := corpus.Resolve(rt.cfg.Corpus.Path, rt.logger)
	log := history.NewLog(rt.historySource(), rt.cfg.History.Track, rt.logger)
	return suggest.New(ctx, domains, log, rt.logger)
}

func (rt *runtime) newRecorder() *history.Recorder {
	return history.NewRecorder(rt.store, rt.cfg.History.Track, rt.cfg.History.ExcludeLocalhost, rt.logger)
}

// setLogLevel swaps in a logger at level, flushing the one it replaces.
// On error the current logger is kept.
func (rt *runtime) setLogLevel(level string) error {
	l, err := logger.New(rt.cfg.Logging.Format, level)
	if err != nil {
		return err
	}
	_ = rt.logger.Sync()
	rt.logger = l
	return nil
}

// Close releases the store, database and logger.
func (rt *runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.logger.Sync()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
