package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-dev/lattice/internal/embedder"
	"github.com/lattice-dev/lattice/pkg/types"
)

const (
	fileA = "import b\n\ndef login(user):\n    return validate(user)\n"
	fileB = "def validate(user):\n    return user\n"
)

// failingEmbedder simulates a provider outage after retry exhaustion
type failingEmbedder struct{}

func (f *failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}
func (f *failingEmbedder) Dimension() int          { return 8 }
func (f *failingEmbedder) ProviderVersion() string { return "test/failing" }
func (f *failingEmbedder) Close() error            { return nil }

func newTestEngine(t *testing.T, emb embedder.Embedder) *Engine {
	t.Helper()
	if emb == nil {
		emb = embedder.NewLocalProvider(32)
	}
	e, err := New(Config{Embedder: emb, Workers: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func indexFixture(t *testing.T, e *Engine) *Stats {
	t.Helper()
	stats, err := e.IndexFiles(context.Background(), map[string][]byte{
		"a.py": []byte(fileA),
		"b.py": []byte(fileB),
	})
	require.NoError(t, err)
	return stats
}

func mustSeed(t *testing.T, e *Engine, name string) types.Symbol {
	t.Helper()
	sym, ok := e.FindSeed(name)
	require.True(t, ok, "seed %q not found", name)
	return sym
}

func TestIndexFilesBuildsGraph(t *testing.T) {
	e := newTestEngine(t, nil)
	stats := indexFixture(t, e)

	assert.Equal(t, 2, stats.FilesScanned)
	assert.Zero(t, stats.FilesWithErrors)
	assert.Greater(t, stats.SymbolsAdded, 0)
	assert.Greater(t, stats.EdgesResolved, 0)
	assert.Greater(t, stats.ChunksEmbedded, 0)
	assert.Zero(t, stats.ChunksDegraded)

	login := mustSeed(t, e, "a.login")
	callees := e.Callees(login.ID)
	require.Len(t, callees, 1)

	target, ok := e.Symbol(callees[0].TargetID)
	require.True(t, ok)
	assert.Equal(t, "b.validate", target.QualifiedName)
	assert.Equal(t, 1.0, callees[0].Confidence)
}

func TestReindexIsIdempotent(t *testing.T) {
	e := newTestEngine(t, nil)
	indexFixture(t, e)
	before := e.Status()

	stats := indexFixture(t, e)
	assert.Zero(t, stats.SymbolsAdded)
	assert.Zero(t, stats.SymbolsRemoved)

	after := e.Status()
	assert.Equal(t, before.Symbols, after.Symbols)
	assert.Equal(t, before.Edges, after.Edges)
	assert.Equal(t, before.Chunks, after.Chunks)
	assert.Equal(t, before.Embedded, after.Embedded)
}

func TestUpdateFileReplacesChangedSymbol(t *testing.T) {
	e := newTestEngine(t, nil)
	indexFixture(t, e)

	oldValidate := mustSeed(t, e, "b.validate")
	login := mustSeed(t, e, "a.login")

	changed := "def validate(user):\n    return user is not None\n"
	stats, err := e.UpdateFile(context.Background(), "b.py", []byte(changed))
	require.NoError(t, err)
	assert.Greater(t, stats.SymbolsAdded, 0)
	assert.Greater(t, stats.SymbolsRemoved, 0)

	// The old id is gone along with its chunks and embeddings
	_, ok := e.Symbol(oldValidate.ID)
	assert.False(t, ok)

	// Unchanged a.py was re-resolved against the replacement
	newValidate := mustSeed(t, e, "b.validate")
	assert.NotEqual(t, oldValidate.ID, newValidate.ID)

	callees := e.Callees(login.ID)
	require.Len(t, callees, 1)
	assert.Equal(t, newValidate.ID, callees[0].TargetID)
}

func TestUpdateFileUnchangedContentIsNoop(t *testing.T) {
	e := newTestEngine(t, nil)
	indexFixture(t, e)
	before := e.Status()

	stats, err := e.UpdateFile(context.Background(), "b.py", []byte(fileB))
	require.NoError(t, err)
	assert.Zero(t, stats.SymbolsAdded)
	assert.Zero(t, stats.SymbolsRemoved)

	after := e.Status()
	assert.Equal(t, before.Symbols, after.Symbols)
	assert.Equal(t, before.Edges, after.Edges)
}

func TestRemoveFileLeavesNoDanglingRefs(t *testing.T) {
	e := newTestEngine(t, nil)
	indexFixture(t, e)

	login := mustSeed(t, e, "a.login")
	validate := mustSeed(t, e, "b.validate")

	_, err := e.RemoveFile(context.Background(), "b.py")
	require.NoError(t, err)

	_, ok := e.Symbol(validate.ID)
	assert.False(t, ok)
	assert.Empty(t, e.Callees(login.ID))

	// Every surviving edge endpoint still resolves to a live symbol
	for _, sym := range e.Snapshot().Symbols {
		for _, edge := range e.Callees(sym.ID) {
			_, ok := e.Symbol(edge.TargetID)
			assert.True(t, ok, "dangling edge to %s", edge.TargetID)
		}
	}
}

func TestRemoveUnknownFileIsNoop(t *testing.T) {
	e := newTestEngine(t, nil)
	indexFixture(t, e)
	before := e.Status()

	_, err := e.RemoveFile(context.Background(), "ghost.py")
	require.NoError(t, err)
	assert.Equal(t, before.Symbols, e.Status().Symbols)
}

func TestEmbeddingFailureDegradesSemanticOnly(t *testing.T) {
	e := newTestEngine(t, &failingEmbedder{})
	stats := indexFixture(t, e)

	assert.Greater(t, stats.ChunksDegraded, 0)
	assert.Zero(t, stats.ChunksEmbedded)
	assert.True(t, e.Degraded())

	// Structural side is fully usable
	login := mustSeed(t, e, "a.login")
	hops, err := e.Reachable(context.Background(), login.ID, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, hops)

	// Degraded chunks never reach the vector index
	hits, err := e.QueryVectors(make([]float32, 8), 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSnapshotRestoreRoundtrip(t *testing.T) {
	e := newTestEngine(t, nil)
	indexFixture(t, e)
	before := e.Status()

	snap := e.Snapshot()
	require.NotEmpty(t, snap.ID)
	require.NoError(t, snap.Validate())

	restored := newTestEngine(t, nil)
	require.NoError(t, restored.Restore(snap))

	after := restored.Status()
	assert.Equal(t, before.Symbols, after.Symbols)
	assert.Equal(t, before.Edges, after.Edges)
	assert.Equal(t, before.Chunks, after.Chunks)
	assert.Equal(t, before.Embedded, after.Embedded)

	// The graph survives: same traversal results
	login := mustSeed(t, restored, "a.login")
	hops, err := restored.Reachable(context.Background(), login.ID, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, hops)
}

func TestRestoreProviderMismatchDegradesEmbeddings(t *testing.T) {
	e := newTestEngine(t, nil)
	indexFixture(t, e)
	snap := e.Snapshot()
	require.NotEmpty(t, snap.Embeddings)

	other, err := New(Config{Embedder: embedder.NewLocalProvider(8)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })

	// Same texts, different provider dimension: vectors cannot be trusted
	snap.ProviderVersion = "someone/else-v9"
	require.NoError(t, other.Restore(snap))

	st := other.Status()
	assert.Zero(t, st.Embedded)
	assert.NotEmpty(t, st.DegradedChunks)
	assert.True(t, other.Degraded())
}

func TestIncrementalMatchesFullReindex(t *testing.T) {
	ctx := context.Background()

	full := newTestEngine(t, nil)
	incremental := newTestEngine(t, nil)

	// Incremental path: index, then apply two edits file by file
	_, err := incremental.IndexFiles(ctx, map[string][]byte{
		"a.py": []byte(fileA),
		"b.py": []byte(fileB),
	})
	require.NoError(t, err)

	editedB := "def validate(user):\n    return bool(user)\n"
	_, err = incremental.UpdateFile(ctx, "b.py", []byte(editedB))
	require.NoError(t, err)
	_, err = incremental.UpdateFile(ctx, "c.py", []byte("def audit(x):\n    return validate(x)\n"))
	require.NoError(t, err)

	// Full path: one shot over the final file set
	_, err = full.IndexFiles(ctx, map[string][]byte{
		"a.py": []byte(fileA),
		"b.py": []byte(editedB),
		"c.py": []byte("def audit(x):\n    return validate(x)\n"),
	})
	require.NoError(t, err)

	fullSnap := full.Snapshot()
	incSnap := incremental.Snapshot()
	assert.Equal(t, fullSnap.Symbols, incSnap.Symbols)
	assert.Equal(t, fullSnap.Edges, incSnap.Edges)

	chunkIDs := func(s []types.Chunk) []string {
		out := make([]string, len(s))
		for i, c := range s {
			out[i] = c.ID
		}
		return out
	}
	assert.Equal(t, chunkIDs(fullSnap.Chunks), chunkIDs(incSnap.Chunks))
}
