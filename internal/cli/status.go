package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/runnerr0/omnibar/internal/storage"
	"github.com/runnerr0/omnibar/internal/suggest"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	StoreAvailable    bool              `json:"store_available"`
	TrackHistory      bool              `json:"track_history"`
	TotalVisits       int64             `json:"total_visits"`
	UniqueURLs        int64             `json:"unique_urls"`
	OldestVisit       string            `json:"oldest_visit,omitempty"`
	NewestVisit       string            `json:"newest_visit,omitempty"`
	IndexEntries      int               `json:"index_entries"`
	CorpusEntries     int               `json:"corpus_entries"`
	HistoryEntries    int               `json:"history_entries"`
	TopDomains        []domainCountJSON `json:"top_domains"`
	DaemonRunning     bool              `json:"daemon_running"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// statusReport collects everything status prints.
type statusReport struct {
	dbPath        string
	dbSize        int64
	track         bool
	stats         *storage.Stats // nil when the store is unavailable
	index         suggest.Stats
	daemonRunning bool
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	rt, err := loadRuntime(c.globals)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.tryStore()
	ctx := context.Background()
	engine := rt.newEngine(ctx)
	defer engine.Close()

	report := statusReport{
		dbPath:        rt.dbPath,
		track:         rt.cfg.History.Track,
		index:         engine.Stats(),
		daemonRunning: checkDaemon("http://" + rt.cfg.Addr() + "/status"),
	}
	if rt.store != nil {
		stats, err := rt.store.GetStats(ctx)
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		report.stats = stats
		report.dbSize = databaseSize(rt.dbPath, stats)
	}

	return c.print(report)
}

func (c *StatusCommand) print(r statusReport) error {
	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(r)
	}
	return c.printStatusHuman(r)
}

func (c *StatusCommand) printStatusHuman(r statusReport) error {
	fmt.Println("Omnibar Status")
	fmt.Println("==============")
	fmt.Printf("Version:       %s\n", c.version)

	if r.stats == nil {
		fmt.Printf("Database:      %s (unavailable)\n", r.dbPath)
	} else {
		fmt.Printf("Database:      %s (%s)\n", r.dbPath, formatBytes(r.dbSize))
		fmt.Printf("Visits:        %s (%s unique URLs)\n", formatNumber(r.stats.TotalVisits), formatNumber(r.stats.UniqueURLs))
		if r.stats.TotalVisits > 0 {
			fmt.Printf("Oldest:        %s\n", r.stats.OldestVisit.Local().Format("2006-01-02"))
			fmt.Printf("Newest:        %s\n", r.stats.NewestVisit.Local().Format("2006-01-02"))
		}
	}

	if r.track {
		fmt.Println("Tracking:      on")
	} else {
		fmt.Println("Tracking:      off")
	}

	fmt.Println()
	fmt.Printf("Index:         %s entries (%s corpus, %s history)\n",
		formatNumber(int64(r.index.Entries)), formatNumber(int64(r.index.Corpus)), formatNumber(int64(r.index.History)))

	if r.stats != nil && len(r.stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range r.stats.TopDomains {
			fmt.Printf("  %-20s %s\n", d.Domain, formatNumber(d.Count))
		}
	}

	fmt.Println()
	if r.daemonRunning {
		fmt.Println("Daemon:        running")
	} else {
		fmt.Println("Daemon:        not running")
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(r statusReport) error {
	out := statusJSON{
		Version:        c.version,
		DatabasePath:   r.dbPath,
		StoreAvailable: r.stats != nil,
		TrackHistory:   r.track,
		IndexEntries:   r.index.Entries,
		CorpusEntries:  r.index.Corpus,
		HistoryEntries: r.index.History,
		TopDomains:     []domainCountJSON{},
		DaemonRunning:  r.daemonRunning,
	}

	if r.stats != nil {
		out.DatabaseSizeBytes = r.dbSize
		out.TotalVisits = r.stats.TotalVisits
		out.UniqueURLs = r.stats.UniqueURLs
		if r.stats.TotalVisits > 0 {
			out.OldestVisit = r.stats.OldestVisit.UTC().Format(time.RFC3339)
			out.NewestVisit = r.stats.NewestVisit.UTC().Format(time.RFC3339)
		}
		for _, d := range r.stats.TopDomains {
			out.TopDomains = append(out.TopDomains, domainCountJSON{Domain: d.Domain, Count: d.Count})
		}
	}

	return printJSON(out)
}

// databaseSize prefers the on-disk file size and falls back to SQLite's
// page accounting for in-memory databases.
func databaseSize(dbPath string, stats *storage.Stats) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}
	return stats.DatabaseSizeBytes
}

// checkDaemon reports whether a daemon answers at url within 1 second.
func checkDaemon(url string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
