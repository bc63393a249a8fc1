package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.engine.Close()
		_ = s.store.Close()
	})
	return s
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func writeFixtureProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"),
		[]byte("import b\n\ndef login(user):\n    return validate(user)\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"),
		[]byte("def validate(user):\n    return user\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not source code"), 0644))
	return dir
}

func TestServerInitialization(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.store)
	assert.NotNil(t, s.engine)
	assert.NotNil(t, s.resolver)
	assert.NotNil(t, s.registry)
}

func TestIndexPathTool(t *testing.T) {
	s := newTestServer(t)
	dir := writeFixtureProject(t)

	result, err := s.handleIndexPath(context.Background(), toolRequest("index_path", map[string]interface{}{
		"path": dir,
	}))
	require.NoError(t, err)
	require.NotNil(t, result)

	st := s.engine.Status()
	assert.Greater(t, st.Symbols, 0)
	assert.Greater(t, st.Edges, 0)
}

func TestIndexPathRequiresPath(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleIndexPath(context.Background(), toolRequest("index_path", map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestIndexPathRejectsRelative(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleIndexPath(context.Background(), toolRequest("index_path", map[string]interface{}{
		"path": "relative/dir",
	}))
	require.Error(t, err)
}

func TestIndexPathNoSupportedFiles(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("docs"), 0644))

	_, err := s.handleIndexPath(context.Background(), toolRequest("index_path", map[string]interface{}{
		"path": dir,
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNoSupportedFiles, mcpErr.Code)
}

func TestQueryToolRequiresInput(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleQuery(context.Background(), toolRequest("query", map[string]interface{}{}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
}

func TestQueryToolEndToEnd(t *testing.T) {
	s := newTestServer(t)
	dir := writeFixtureProject(t)

	_, err := s.handleIndexPath(context.Background(), toolRequest("index_path", map[string]interface{}{
		"path": dir,
	}))
	require.NoError(t, err)

	result, err := s.handleQuery(context.Background(), toolRequest("query", map[string]interface{}{
		"query":             "validate user credentials",
		"top_k":             float64(5),
		"structural_weight": 0.5,
	}))
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestQueryToolValidatesBounds(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleQuery(context.Background(), toolRequest("query", map[string]interface{}{
		"query": "anything",
		"top_k": float64(500),
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)

	_, err = s.handleQuery(context.Background(), toolRequest("query", map[string]interface{}{
		"query":             "anything",
		"structural_weight": 1.5,
	}))
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestUpdateFileToolHandlesDeletion(t *testing.T) {
	s := newTestServer(t)
	dir := writeFixtureProject(t)

	_, err := s.handleIndexPath(context.Background(), toolRequest("index_path", map[string]interface{}{
		"path": dir,
	}))
	require.NoError(t, err)

	target := filepath.Join(dir, "b.py")
	require.NoError(t, os.Remove(target))

	before := s.engine.Status().Symbols
	_, err = s.handleUpdateFile(context.Background(), toolRequest("update_file", map[string]interface{}{
		"path": target,
	}))
	require.NoError(t, err)
	assert.Less(t, s.engine.Status().Symbols, before)
}

func TestSnapshotToolsRoundtrip(t *testing.T) {
	s := newTestServer(t)
	dir := writeFixtureProject(t)
	ctx := context.Background()

	_, err := s.handleIndexPath(ctx, toolRequest("index_path", map[string]interface{}{"path": dir}))
	require.NoError(t, err)

	_, err = s.handleSaveSnapshot(ctx, toolRequest("save_snapshot", nil))
	require.NoError(t, err)

	_, err = s.handleLoadSnapshot(ctx, toolRequest("load_snapshot", map[string]interface{}{}))
	require.NoError(t, err)
	assert.Greater(t, s.engine.Status().Symbols, 0)
}

func TestLoadSnapshotMissing(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleLoadSnapshot(context.Background(), toolRequest("load_snapshot", map[string]interface{}{
		"snapshot_id": "does-not-exist",
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeSnapshotNotFound, mcpErr.Code)
}

func TestGetStatusTool(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleGetStatus(context.Background(), toolRequest("get_status", nil))
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestParamHelpers(t *testing.T) {
	args := map[string]interface{}{
		"n": float64(7),
		"f": 0.25,
		"s": "text",
	}
	assert.Equal(t, 7, getIntDefault(args, "n", 1))
	assert.Equal(t, 1, getIntDefault(args, "missing", 1))
	assert.Equal(t, 0.25, getFloatDefault(args, "f", 0.5))
	assert.Equal(t, 0.5, getFloatDefault(args, "missing", 0.5))
	assert.Equal(t, "text", getStringDefault(args, "s", "d"))
	assert.Equal(t, "d", getStringDefault(args, "missing", "d"))
}

func TestValidateDir(t *testing.T) {
	assert.ErrorIs(t, validateDir(""), ErrPathRequired)
	assert.ErrorIs(t, validateDir("relative"), ErrPathNotAbsolute)
	assert.ErrorIs(t, validateDir("/definitely/not/here"), ErrPathNotFound)

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.ErrorIs(t, validateDir(file), ErrNotDirectory)

	assert.NoError(t, validateDir(t.TempDir()))
}
