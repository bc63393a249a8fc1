package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion tracks the database schema version
const CurrentSchemaVersion = "1.0.0"

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{Version: "1.0.0", Up: migrationV1Up},
}

const migrationV1Up = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    provider_version TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    kind TEXT NOT NULL,
    qualified_name TEXT NOT NULL,
    file_path TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, id)
);

CREATE TABLE IF NOT EXISTS edges (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    source_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    confidence REAL NOT NULL,
    PRIMARY KEY (snapshot_id, source_id, target_id, kind)
);

CREATE TABLE IF NOT EXISTS chunks (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    symbol_id TEXT NOT NULL,
    text TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    modality TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, id)
);

CREATE TABLE IF NOT EXISTS embeddings (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    chunk_id TEXT NOT NULL,
    vector BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    provider_version TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, chunk_id)
);

CREATE TABLE IF NOT EXISTS degraded_chunks (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    chunk_id TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, chunk_id)
);

CREATE TABLE IF NOT EXISTS file_refs (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    file_path TEXT NOT NULL,
    from_qualified_name TEXT NOT NULL,
    target_hint TEXT NOT NULL,
    kind TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_file_refs_file ON file_refs(snapshot_id, file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(snapshot_id, file_path);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(snapshot_id, target_id);
CREATE INDEX IF NOT EXISTS idx_chunks_symbol ON chunks(snapshot_id, symbol_id);
`

// ApplyMigrations brings the schema up to the current version
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	for _, m := range AllMigrations {
		if applied, err := migrationApplied(ctx, db, m.Version); err != nil {
			return err
		} else if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}
	}
	return nil
}

func migrationApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}
	var count int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
