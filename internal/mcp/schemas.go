package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexPathTool returns the tool definition for index_path
func indexPathTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_path",
		Description: "Index all supported source files under a directory, building the dependency graph and semantic index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a directory containing source files",
				},
			},
			Required: []string{"path"},
		},
	}
}

// updateFileTool returns the tool definition for update_file
func updateFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_file",
		Description: "Incrementally re-index one file. A file that no longer exists is removed from the index, cascading its edges and embeddings.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the changed or deleted file",
				},
			},
			Required: []string{"path"},
		},
	}
}

// queryTool returns the tool definition for query
func queryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query",
		Description: "Hybrid search combining graph traversal from a seed symbol with semantic similarity over embedded chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free-text query; also resolves the traversal seed when seed_symbol_id is omitted",
				},
				"seed_symbol_id": map[string]interface{}{
					"type":        "string",
					"description": "Symbol id rooting the structural traversal",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Traversal depth bound from the seed symbol",
					"default":     3,
					"minimum":     1,
				},
				"structural_weight": map[string]interface{}{
					"type":        "number",
					"description": "Weight of the structural score in [0,1]; the semantic score gets the complement",
					"default":     0.5,
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics, degraded chunks, parse errors, and dependency cycles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// saveSnapshotTool returns the tool definition for save_snapshot
func saveSnapshotTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_snapshot",
		Description: "Persist the current index state as a snapshot",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// loadSnapshotTool returns the tool definition for load_snapshot
func loadSnapshotTool() mcp.Tool {
	return mcp.Tool{
		Name:        "load_snapshot",
		Description: "Replace the index state with a persisted snapshot (latest when no id is given)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"snapshot_id": map[string]interface{}{
					"type":        "string",
					"description": "Snapshot id; defaults to the most recently saved snapshot",
				},
			},
		},
	}
}
