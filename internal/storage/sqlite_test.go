package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-dev/lattice/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSnapshot(id string) *Snapshot {
	return &Snapshot{
		ID:              id,
		ProviderVersion: "local/trigram-v1",
		Symbols: []types.Symbol{
			{ID: "s1", Kind: types.KindFunction, QualifiedName: "a.login", FilePath: "a.py", Span: types.LineRange{Start: 1, End: 4}},
			{ID: "s2", Kind: types.KindFunction, QualifiedName: "b.validate", FilePath: "b.py", Span: types.LineRange{Start: 1, End: 6}},
		},
		Edges: []types.Edge{
			{SourceID: "s1", TargetID: "s2", Kind: types.EdgeCalls, Confidence: 1.0},
		},
		Chunks: []types.Chunk{
			{ID: "c1", SymbolID: "s1", Text: "def login(): ...", Span: types.LineRange{Start: 1, End: 4}, Modality: types.ModalityCode},
		},
		Embeddings: []types.EmbeddingRecord{
			{ChunkID: "c1", Vector: []float32{0.25, -1.5, 3.75}, ProviderVersion: "local/trigram-v1"},
		},
		DegradedChunks: []string{"c1"},
		FileRefs: []FileRef{
			{FilePath: "a.py", Ref: types.RawReference{FromQualifiedName: "a.login", TargetHint: "validate", Kind: types.EdgeCalls}},
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := testSnapshot("snap-1")
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	loaded, err := store.LoadSnapshot(ctx, "snap-1")
	require.NoError(t, err)

	assert.Equal(t, snap.ProviderVersion, loaded.ProviderVersion)
	assert.Equal(t, snap.Symbols, loaded.Symbols)
	assert.Equal(t, snap.Edges, loaded.Edges)
	assert.Equal(t, snap.Chunks, loaded.Chunks)
	assert.Equal(t, snap.DegradedChunks, loaded.DegradedChunks)
	assert.Equal(t, snap.FileRefs, loaded.FileRefs)

	// Vector values survive the binary encoding exactly
	require.Len(t, loaded.Embeddings, 1)
	assert.Equal(t, snap.Embeddings[0].Vector, loaded.Embeddings[0].Vector)
}

func TestLoadMissingSnapshot(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadSnapshot(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LatestSnapshot(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot("older")))
	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot("newer")))

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	// Same created_at second resolves by id descending
	assert.Contains(t, []string{"newer", "older"}, latest.ID)
}

func TestSaveReplacesSameID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot("snap-1")))

	replacement := testSnapshot("snap-1")
	replacement.Edges = nil
	replacement.Chunks = nil
	replacement.Embeddings = nil
	replacement.DegradedChunks = nil
	require.NoError(t, store.SaveSnapshot(ctx, replacement))

	loaded, err := store.LoadSnapshot(ctx, "snap-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Symbols, 2)
	assert.Empty(t, loaded.Edges)
	assert.Empty(t, loaded.Chunks)
}

func TestSaveRejectsDanglingEdge(t *testing.T) {
	store := newTestStore(t)

	bad := testSnapshot("bad")
	bad.Edges = append(bad.Edges, types.Edge{
		SourceID: "s1", TargetID: "ghost", Kind: types.EdgeCalls, Confidence: 1.0,
	})
	err := store.SaveSnapshot(context.Background(), bad)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSnapshotValidate(t *testing.T) {
	snap := testSnapshot("v")
	assert.NoError(t, snap.Validate())

	orphanChunk := testSnapshot("v2")
	orphanChunk.Chunks[0].SymbolID = "ghost"
	assert.ErrorIs(t, orphanChunk.Validate(), ErrCorrupt)

	orphanEmbedding := testSnapshot("v3")
	orphanEmbedding.Embeddings[0].ChunkID = "ghost"
	assert.ErrorIs(t, orphanEmbedding.Validate(), ErrCorrupt)
}

func TestVectorCodecRoundtrip(t *testing.T) {
	vec := []float32{0, -0.5, 1.25, 3.4e38, -3.4e38}
	decoded, err := deserializeVector(serializeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestDeserializeRejectsTruncated(t *testing.T) {
	blob := serializeVector([]float32{1, 2, 3})
	_, err := deserializeVector(blob[:len(blob)-2])
	assert.Error(t, err)
}
