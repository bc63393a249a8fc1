package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lattice-dev/lattice/pkg/types"
)

// SQLiteStore implements Store on SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// NewSQLiteStore creates a snapshot store backed by the given database file
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot writes one snapshot in a single transaction. A previous
// snapshot with the same id is replaced.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", snap.ID); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}
	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (id, provider_version, created_at) VALUES (?, ?, ?)",
		snap.ID, snap.ProviderVersion, createdAt); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, sym := range snap.Symbols {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO symbols (snapshot_id, id, kind, qualified_name, file_path, start_line, end_line)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, sym.ID, string(sym.Kind), sym.QualifiedName, sym.FilePath,
			sym.Span.Start, sym.Span.End); err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", sym.ID, err)
		}
	}
	for _, e := range snap.Edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (snapshot_id, source_id, target_id, kind, confidence)
			 VALUES (?, ?, ?, ?, ?)`,
			snap.ID, e.SourceID, e.TargetID, string(e.Kind), e.Confidence); err != nil {
			return fmt.Errorf("failed to insert edge: %w", err)
		}
	}
	for _, c := range snap.Chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (snapshot_id, id, symbol_id, text, start_line, end_line, modality)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, c.ID, c.SymbolID, c.Text, c.Span.Start, c.Span.End, c.Modality); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}
	for _, r := range snap.Embeddings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO embeddings (snapshot_id, chunk_id, vector, dimension, provider_version)
			 VALUES (?, ?, ?, ?, ?)`,
			snap.ID, r.ChunkID, serializeVector(r.Vector), len(r.Vector), r.ProviderVersion); err != nil {
			return fmt.Errorf("failed to insert embedding %s: %w", r.ChunkID, err)
		}
	}
	for _, chunkID := range snap.DegradedChunks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO degraded_chunks (snapshot_id, chunk_id) VALUES (?, ?)",
			snap.ID, chunkID); err != nil {
			return fmt.Errorf("failed to insert degraded chunk %s: %w", chunkID, err)
		}
	}
	for _, fr := range snap.FileRefs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO file_refs (snapshot_id, file_path, from_qualified_name, target_hint, kind)
			 VALUES (?, ?, ?, ?, ?)`,
			snap.ID, fr.FilePath, fr.Ref.FromQualifiedName, fr.Ref.TargetHint, string(fr.Ref.Kind)); err != nil {
			return fmt.Errorf("failed to insert file ref: %w", err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot reads a snapshot by id. Loaded state is validated; a
// snapshot failing invariant checks returns ErrCorrupt and must not be
// trusted partially.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	snap := &Snapshot{ID: id}

	err := s.db.QueryRowContext(ctx,
		"SELECT provider_version, created_at FROM snapshots WHERE id = ?", id).
		Scan(&snap.ProviderVersion, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadSymbols(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadEdges(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadEmbeddings(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadDegraded(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadFileRefs(ctx, snap); err != nil {
		return nil, err
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// LatestSnapshot reads the most recently saved snapshot
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.LoadSnapshot(ctx, id)
}

func (s *SQLiteStore) loadSymbols(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, qualified_name, file_path, start_line, end_line
		 FROM symbols WHERE snapshot_id = ? ORDER BY id`, snap.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var sym types.Symbol
		var kind string
		if err := rows.Scan(&sym.ID, &kind, &sym.QualifiedName, &sym.FilePath,
			&sym.Span.Start, &sym.Span.End); err != nil {
			return err
		}
		sym.Kind = types.SymbolKind(kind)
		snap.Symbols = append(snap.Symbols, sym)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadEdges(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, target_id, kind, confidence
		 FROM edges WHERE snapshot_id = ? ORDER BY source_id, target_id, kind`, snap.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e types.Edge
		var kind string
		if err := rows.Scan(&e.SourceID, &e.TargetID, &kind, &e.Confidence); err != nil {
			return err
		}
		e.Kind = types.EdgeKind(kind)
		snap.Edges = append(snap.Edges, e)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadChunks(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol_id, text, start_line, end_line, modality
		 FROM chunks WHERE snapshot_id = ? ORDER BY id`, snap.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c types.Chunk
		if err := rows.Scan(&c.ID, &c.SymbolID, &c.Text, &c.Span.Start, &c.Span.End, &c.Modality); err != nil {
			return err
		}
		snap.Chunks = append(snap.Chunks, c)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadEmbeddings(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id, vector, dimension, provider_version
		 FROM embeddings WHERE snapshot_id = ? ORDER BY chunk_id`, snap.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r types.EmbeddingRecord
		var blob []byte
		var dimension int
		if err := rows.Scan(&r.ChunkID, &blob, &dimension, &r.ProviderVersion); err != nil {
			return err
		}
		vec, err := deserializeVector(blob)
		if err != nil || len(vec) != dimension {
			return ErrCorrupt
		}
		r.Vector = vec
		snap.Embeddings = append(snap.Embeddings, r)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadDegraded(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_id FROM degraded_chunks WHERE snapshot_id = ? ORDER BY chunk_id", snap.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var chunkID string
		if err := rows.Scan(&chunkID); err != nil {
			return err
		}
		snap.DegradedChunks = append(snap.DegradedChunks, chunkID)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadFileRefs(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path, from_qualified_name, target_hint, kind
		 FROM file_refs WHERE snapshot_id = ?
		 ORDER BY file_path, from_qualified_name, target_hint, kind`, snap.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var fr FileRef
		var kind string
		if err := rows.Scan(&fr.FilePath, &fr.Ref.FromQualifiedName, &fr.Ref.TargetHint, &kind); err != nil {
			return err
		}
		fr.Ref.Kind = types.EdgeKind(kind)
		snap.FileRefs = append(snap.FileRefs, fr)
	}
	return rows.Err()
}
