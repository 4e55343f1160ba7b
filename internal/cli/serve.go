package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/omnibar/internal/metrics"
	"github.com/runnerr0/omnibar/internal/server"
	"github.com/runnerr0/omnibar/internal/storage"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	rt, err := loadRuntime(c.globals)
	if err != nil {
		return err
	}
	defer rt.Close()

	if c.LogLevel != "" {
		if err := rt.setLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.Port != 0 {
		rt.cfg.Daemon.Port = c.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.serve(ctx, rt)
}

// serve runs the daemon until ctx is cancelled, then shuts down gracefully.
func (c *ServeCommand) serve(ctx context.Context, rt *runtime) error {
	metrics.RegisterSuggestMetrics()
	metrics.RegisterHTTPMetrics()

	rt.tryStore()
	engine := rt.newEngine(ctx)
	defer engine.Close()

	if rt.store != nil && rt.cfg.Storage.Watch && !c.NoWatch {
		if w := c.startWatcher(rt); w != nil {
			defer w.Stop()
		}
	}

	var (
		rec     server.VisitRecorder
		editor  server.HistoryEditor
	)
	if rt.store != nil {
		rec = rt.newRecorder()
		editor = rt.store
	}
	api := server.New(engine, rec, editor, server.Options{
		Version:    c.version,
		MaxResults: rt.cfg.Daemon.MaxResults,
	}, rt.logger)

	ln, err := net.Listen("tcp", rt.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", rt.cfg.Addr(), err)
	}

	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	st := engine.Stats()
	rt.logger.Info("suggestion daemon listening",
		zap.String("addr", ln.Addr().String()),
		zap.Int("corpus", st.Corpus),
		zap.Int("history", st.History),
	)
	if c.ready != nil {
		c.ready(ln.Addr().String())
	}

	select {
	case <-ctx.Done():
		rt.logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	timeout := time.Duration(rt.cfg.Daemon.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.logger.Error("error during shutdown", zap.Error(err))
		return err
	}

	rt.logger.Info("daemon stopped gracefully")
	return nil
}

// startWatcher forwards writes made by other processes to the store's
// subscribers. Failure is logged; the daemon still sees its own writes.
func (c *ServeCommand) startWatcher(rt *runtime) *storage.Watcher {
	debounce := time.Duration(rt.cfg.Storage.WatchDebounceMS) * time.Millisecond
	w, err := storage.NewWatcher(rt.dbPath, debounce, rt.logger)
	if err != nil {
		rt.logger.Warn("database watcher unavailable", zap.Error(err))
		return nil
	}
	if err := w.Watch(rt.store.NotifyChange); err != nil {
		rt.logger.Warn("database watcher unavailable", zap.Error(err))
		w.Stop()
		return nil
	}
	return w
}
