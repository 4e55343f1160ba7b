package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			Track:            true,
			ExcludeLocalhost: true,
		},
		Corpus: CorpusConfig{
			Path: "",
		},
		Storage: StorageConfig{
			Path:              "~/.config/omnibar",
			SQLiteFile:        "history.db",
			SQLiteJournalMode: "wal",
			Watch:             true,
			WatchDebounceMS:   100,
		},
		Daemon: DaemonConfig{
			Host:                   "127.0.0.1",
			Port:                   8731,
			MaxResults:             20,
			ShutdownTimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
