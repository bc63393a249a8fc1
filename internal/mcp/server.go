package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/lattice-dev/lattice/internal/embedder"
	"github.com/lattice-dev/lattice/internal/indexer"
	"github.com/lattice-dev/lattice/internal/parser"
	"github.com/lattice-dev/lattice/internal/resolver"
	"github.com/lattice-dev/lattice/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "lattice"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for snapshot databases
	DefaultDBPath = "~/.lattice/indices"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    storage.Store
	engine   *indexer.Engine
	resolver *resolver.Resolver
	registry *parser.Registry
}

// NewServer creates a new MCP server instance. If the snapshot database
// holds a previous snapshot it is restored on startup; a corrupt snapshot
// is discarded wholesale and the server starts with an empty index.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".lattice", "indices")
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbFile := filepath.Join(dbPath, "lattice.db")

	store, err := storage.NewSQLiteStore(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv(nil)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	registry := parser.DefaultRegistry()
	engine, err := indexer.New(indexer.Config{
		Registry: registry,
		Embedder: emb,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		engine:   engine,
		resolver: resolver.New(engine, emb),
		registry: registry,
	}

	if err := s.restoreLatest(context.Background()); err != nil {
		log.Printf("Snapshot restore skipped: %v", err)
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.engine.Close()
		_ = s.store.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// restoreLatest loads the most recent snapshot, if any. A missing snapshot
// is normal on first start; a corrupt one is never partially applied.
func (s *Server) restoreLatest(ctx context.Context) error {
	snap, err := s.store.LatestSnapshot(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.engine.Restore(snap)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexPathTool(), s.handleIndexPath)
	s.mcp.AddTool(updateFileTool(), s.handleUpdateFile)
	s.mcp.AddTool(queryTool(), s.handleQuery)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(saveSnapshotTool(), s.handleSaveSnapshot)
	s.mcp.AddTool(loadSnapshotTool(), s.handleLoadSnapshot)
}
