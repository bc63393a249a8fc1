// Package mcp exposes the index over the Model Context Protocol.
//
// The server speaks MCP on stdio and registers six tools: index_path
// (bulk index a directory), update_file (incremental update or removal),
// query (hybrid structural + semantic search), get_status, save_snapshot,
// and load_snapshot. Handlers validate parameters up front and return
// structured MCP errors with machine-readable codes; tool output is
// indented JSON.
//
// On startup the server restores the most recent persisted snapshot when
// one exists. A snapshot that fails validation is rejected wholesale and
// the server starts empty rather than trusting partial state.
package mcp
