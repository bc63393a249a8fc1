package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lattice-dev/lattice/internal/indexer"
	"github.com/lattice-dev/lattice/internal/resolver"
	"github.com/lattice-dev/lattice/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeNoSupportedFiles = -32001 // Directory holds no file with a registered parser
	ErrorCodeEmptyQuery       = -32002 // Neither query text nor a seed symbol given
	ErrorCodeSnapshotNotFound = -32003 // No persisted snapshot matches
	ErrorCodeSnapshotCorrupt  = -32004 // Persisted snapshot failed invariant checks
)

// handleIndexPath handles the index_path tool invocation
func (s *Server) handleIndexPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validateDir(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	files, err := s.collectFiles(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read source files", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if len(files) == 0 {
		return nil, newMCPError(ErrorCodeNoSupportedFiles, "directory contains no supported source files", map[string]interface{}{
			"extensions": s.registry.Extensions(),
		})
	}

	stats, err := s.engine.IndexFiles(ctx, files)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"indexed":           true,
		"files_scanned":     stats.FilesScanned,
		"files_with_errors": stats.FilesWithErrors,
		"symbols_added":     stats.SymbolsAdded,
		"symbols_removed":   stats.SymbolsRemoved,
		"edges_resolved":    stats.EdgesResolved,
		"chunks_embedded":   stats.ChunksEmbedded,
		"chunks_degraded":   stats.ChunksDegraded,
		"duration_ms":       stats.Duration.Milliseconds(),
	})), nil
}

// handleUpdateFile handles the update_file tool invocation. A missing file
// is treated as a deletion.
func (s *Server) handleUpdateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if !filepath.IsAbs(path) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": ErrPathNotAbsolute.Error(),
		})
	}

	content, err := os.ReadFile(path)
	removed := false
	var stats *indexer.Stats
	switch {
	case err == nil:
		stats, err = s.engine.UpdateFile(ctx, path, content)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "update failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	case os.IsNotExist(err):
		removed = true
		stats, err = s.engine.RemoveFile(ctx, path)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "removal failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	default:
		return nil, newMCPError(ErrorCodeInternalError, "failed to read file", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"path":            path,
		"removed":         removed,
		"symbols_added":   stats.SymbolsAdded,
		"symbols_removed": stats.SymbolsRemoved,
		"edges_resolved":  stats.EdgesResolved,
		"chunks_embedded": stats.ChunksEmbedded,
		"chunks_degraded": stats.ChunksDegraded,
		"duration_ms":     stats.Duration.Milliseconds(),
	})), nil
}

// handleQuery handles the query tool invocation
func (s *Server) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query := getStringDefault(args, "query", "")
	seed := getStringDefault(args, "seed_symbol_id", "")
	if query == "" && seed == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query or seed_symbol_id is required", nil)
	}

	topK := getIntDefault(args, "top_k", resolver.DefaultTopK)
	if topK < 1 || topK > resolver.MaxTopK {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}
	weight := getFloatDefault(args, "structural_weight", 0.5)
	if weight < 0 || weight > 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "structural_weight must be in [0,1]", map[string]interface{}{
			"param": "structural_weight",
			"value": weight,
		})
	}

	resp, err := s.resolver.Resolve(ctx, resolver.Request{
		Query:            query,
		SeedSymbolID:     seed,
		TopK:             topK,
		MaxDepth:         getIntDefault(args, "max_depth", resolver.DefaultMaxDepth),
		StructuralWeight: weight,
		UseCache:         true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "query failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, res := range resp.Results {
		results = append(results, map[string]interface{}{
			"symbol_id":        res.SymbolID,
			"file_path":        res.FilePath,
			"start_line":       res.Span.Start,
			"end_line":         res.Span.End,
			"combined_score":   res.CombinedScore,
			"structural_score": res.StructuralScore,
			"semantic_score":   res.SemanticScore,
			"depth":            res.Depth,
			"explanation":      string(res.ExplanationTag),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results":     results,
		"degraded":    resp.Degraded,
		"version":     resp.Version,
		"cache_hit":   resp.CacheHit,
		"duration_ms": resp.Duration.Milliseconds(),
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.engine.Status()
	cycles := s.engine.Cycles()

	response := map[string]interface{}{
		"version":         st.Version,
		"symbols":         st.Symbols,
		"edges":           st.Edges,
		"chunks":          st.Chunks,
		"embedded":        st.Embedded,
		"degraded_chunks": st.DegradedChunks,
		"cycles":          len(cycles),
	}
	if len(st.ParseErrors) > 0 {
		errsByFile := make(map[string]interface{}, len(st.ParseErrors))
		for path, errs := range st.ParseErrors {
			msgs := make([]string, 0, len(errs))
			for _, pe := range errs {
				msgs = append(msgs, pe.Message)
			}
			errsByFile[path] = msgs
		}
		response["parse_errors"] = errsByFile
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSaveSnapshot handles the save_snapshot tool invocation
func (s *Server) handleSaveSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.engine.Snapshot()
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save snapshot", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"snapshot_id": snap.ID,
		"symbols":     len(snap.Symbols),
		"edges":       len(snap.Edges),
		"chunks":      len(snap.Chunks),
		"embeddings":  len(snap.Embeddings),
	})), nil
}

// handleLoadSnapshot handles the load_snapshot tool invocation
func (s *Server) handleLoadSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	id := getStringDefault(args, "snapshot_id", "")

	var snap *storage.Snapshot
	var err error
	if id == "" {
		snap, err = s.store.LatestSnapshot(ctx)
	} else {
		snap, err = s.store.LoadSnapshot(ctx, id)
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, newMCPError(ErrorCodeSnapshotNotFound, "no matching snapshot", map[string]interface{}{
			"snapshot_id": id,
		})
	case errors.Is(err, storage.ErrCorrupt):
		return nil, newMCPError(ErrorCodeSnapshotCorrupt, "snapshot failed validation and was not applied", map[string]interface{}{
			"snapshot_id": id,
			"error":       err.Error(),
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "failed to load snapshot", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := s.engine.Restore(snap); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to restore snapshot", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"snapshot_id": snap.ID,
		"symbols":     len(snap.Symbols),
		"edges":       len(snap.Edges),
	})), nil
}

// collectFiles walks a directory reading every file with a registered
// parser extension. Hidden directories and common dependency trees are
// skipped.
func (s *Server) collectFiles(root string) (map[string][]byte, error) {
	files := make(map[string][]byte)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || name == "__pycache__") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := s.registry.ForFile(path); !ok {
			return nil
		}
		content, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		files[path] = content
		return nil
	})
	return files, err
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateDir checks if a directory exists and is accessible
func validateDir(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
