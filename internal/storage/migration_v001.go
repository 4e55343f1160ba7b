package storage

import "database/sql"

// migrateV001 creates the initial history schema. Every statement uses
// IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		// rowid order is the store-iteration order suggestions are built in.
		`CREATE TABLE IF NOT EXISTS history (
			id         TEXT NOT NULL UNIQUE,
			page_url   TEXT NOT NULL,
			page_title TEXT NOT NULL DEFAULT '',
			domain     TEXT NOT NULL DEFAULT '',
			visit_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_history_visit_date ON history(visit_date)`,
		`CREATE INDEX IF NOT EXISTS idx_history_domain     ON history(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_history_page_url   ON history(page_url)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
