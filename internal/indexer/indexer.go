package indexer

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lattice-dev/lattice/internal/chunker"
	"github.com/lattice-dev/lattice/internal/embedder"
	"github.com/lattice-dev/lattice/internal/graph"
	"github.com/lattice-dev/lattice/internal/parser"
	"github.com/lattice-dev/lattice/internal/symtab"
	"github.com/lattice-dev/lattice/internal/vecindex"
	"github.com/lattice-dev/lattice/pkg/types"
)

// Config contains configuration for the engine
type Config struct {
	Registry      *parser.Registry // nil selects DefaultRegistry
	Embedder      embedder.Embedder
	Vectors       vecindex.Index // nil selects an in-memory index
	MaxChunkRunes int            // zero selects the chunker default
	Workers       int            // parse/embed parallelism (default NumCPU)
	BatchSize     int            // texts per provider call (default embedder.DefaultBatchSize)
}

// Stats describes one indexing operation
type Stats struct {
	FilesScanned    int
	FilesWithErrors int
	SymbolsAdded    int
	SymbolsRemoved  int
	EdgesResolved   int
	ChunksEmbedded  int
	ChunksDegraded  int
	Duration        time.Duration
}

// Engine owns the full index state: symbol table, dependency graph, chunk
// bookkeeping, and the vector index. Scanning and embedding are
// file-parallel; every state mutation funnels through the engine's single
// writer lock, because edge resolution depends on a consistent symbol
// table. Readers share an RLock and never block each other.
type Engine struct {
	registry *parser.Registry
	embed    embedder.Embedder
	vectors  vecindex.Index
	chunks   *chunker.Chunker
	table    *symtab.Table
	graph    *graph.Graph
	builder  *graph.Builder

	workers   int
	batchSize int
	pool      *ants.Pool

	mu             sync.RWMutex
	fileRefs       map[string][]types.RawReference
	refFilesByBase map[string]map[string]struct{}
	symbolChunks   map[string][]string
	chunkOwner     map[string]types.Chunk
	embeddings     map[string]types.EmbeddingRecord
	degraded       map[string]struct{}
	parseErrors    map[string][]types.ParseError

	version atomic.Uint64
}

// New creates an engine. The embedder is required; everything else has
// defaults.
func New(cfg Config) (*Engine, error) {
	if cfg.Embedder == nil {
		return nil, embedder.ErrNoProviderEnabled
	}
	if cfg.Registry == nil {
		cfg.Registry = parser.DefaultRegistry()
	}
	if cfg.Vectors == nil {
		cfg.Vectors = vecindex.NewMemory(cfg.Embedder.Dimension())
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = embedder.DefaultBatchSize
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		registry:       cfg.Registry,
		embed:          cfg.Embedder,
		vectors:        cfg.Vectors,
		chunks:         chunker.New(cfg.MaxChunkRunes),
		table:          symtab.New(),
		graph:          graph.New(),
		workers:        cfg.Workers,
		batchSize:      cfg.BatchSize,
		pool:           pool,
		fileRefs:       make(map[string][]types.RawReference),
		refFilesByBase: make(map[string]map[string]struct{}),
		symbolChunks:   make(map[string][]string),
		chunkOwner:     make(map[string]types.Chunk),
		embeddings:     make(map[string]types.EmbeddingRecord),
		degraded:       make(map[string]struct{}),
		parseErrors:    make(map[string][]types.ParseError),
	}
	e.builder = graph.NewBuilder(e.table, e.graph)
	return e, nil
}

// Close releases the worker pool and the embedder
func (e *Engine) Close() error {
	e.pool.Release()
	return e.embed.Close()
}

// Version returns the snapshot version, incremented on every published
// mutation. Queries read it to reconcile graph and vector state.
func (e *Engine) Version() uint64 {
	return e.version.Load()
}

// scan is the parsed output for one file, buffered until the serialized
// apply step
type scan struct {
	path      string
	result    *types.ParseResult
	content   []byte
	removeAll bool
}

// IndexFiles parses the given files concurrently and applies the results
// through the single-writer apply step. Files without a registered parser
// are skipped. Parse errors are recorded per file and never abort the
// batch.
func (e *Engine) IndexFiles(ctx context.Context, files map[string][]byte) (*Stats, error) {
	start := time.Now()

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	// File-parallel parse with a bounded worker pool; no ordering
	// guarantee between files
	var scanMu sync.Mutex
	scans := make([]scan, 0, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, ok := e.registry.ForFile(path)
			if !ok {
				return nil
			}
			result := p.Parse(path, files[path])
			scanMu.Lock()
			scans = append(scans, scan{path: path, result: result, content: files[path]})
			scanMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(scans, func(i, j int) bool { return scans[i].path < scans[j].path })
	stats, work := e.apply(scans)
	e.embedChunks(ctx, work, stats)

	stats.Duration = time.Since(start)
	return stats, nil
}

// apply is the serialized graph-update step: symbol diffs, reference
// bookkeeping, and edge re-resolution all happen under the writer lock so
// concurrent scans cannot observe a half-applied table. Returns the chunks
// that still need embedding.
func (e *Engine) apply(scans []scan) (*Stats, []types.Chunk) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := &Stats{}
	var work []types.Chunk
	affectedBases := make(map[string]struct{})
	scanned := make(map[string]struct{}, len(scans))

	for _, sc := range scans {
		scanned[sc.path] = struct{}{}
		chunks := e.applyFileLocked(sc, stats, affectedBases)
		work = append(work, chunks...)
	}

	// Re-resolve every scanned file plus any unchanged file whose
	// references might now resolve differently: candidate sets share the
	// target's base name, so the base-name index is a sufficient trigger.
	resolve := make(map[string]struct{}, len(scanned))
	for path := range scanned {
		if _, ok := e.fileRefs[path]; ok {
			resolve[path] = struct{}{}
		}
	}
	for base := range affectedBases {
		for path := range e.refFilesByBase[base] {
			resolve[path] = struct{}{}
		}
	}
	resolvePaths := make([]string, 0, len(resolve))
	for path := range resolve {
		resolvePaths = append(resolvePaths, path)
	}
	sort.Strings(resolvePaths)
	for _, path := range resolvePaths {
		for _, sym := range e.table.FileSymbols(path) {
			e.graph.RemoveOutEdges(sym.ID)
		}
		stats.EdgesResolved += e.builder.ResolveFile(path, e.fileRefs[path])
	}

	e.version.Add(1)
	return stats, work
}

// applyFileLocked diffs one file's new parse result against the table's
// prior snapshot for that file and applies the symbol-level changes.
// Returns the chunks of added or changed symbols. Caller holds the write
// lock.
func (e *Engine) applyFileLocked(sc scan, stats *Stats, affectedBases map[string]struct{}) []types.Chunk {
	stats.FilesScanned++

	newSyms := map[string]types.Symbol{}
	var result *types.ParseResult
	if !sc.removeAll && sc.result != nil {
		result = sc.result
		for _, sym := range result.Symbols {
			newSyms[sym.QualifiedName] = sym
		}
		if result.HasErrors() {
			stats.FilesWithErrors++
			e.parseErrors[sc.path] = result.Errors
		} else {
			delete(e.parseErrors, sc.path)
		}
	} else {
		delete(e.parseErrors, sc.path)
	}

	// Removed or changed symbols lose their edges, chunks, and embeddings
	for _, old := range e.table.FileSymbols(sc.path) {
		replacement, kept := newSyms[old.QualifiedName]
		if kept && replacement.ID == old.ID {
			continue
		}
		e.cascadeRemoveLocked(old.ID)
		stats.SymbolsRemoved++
		affectedBases[qualifiedBase(old.QualifiedName)] = struct{}{}
	}

	// Reference bookkeeping for the base-name re-resolution index
	e.dropRefIndexLocked(sc.path)
	if result == nil || sc.removeAll {
		delete(e.fileRefs, sc.path)
		return nil
	}
	e.fileRefs[sc.path] = result.References
	e.addRefIndexLocked(sc.path, result.References)

	// Upsert new and changed symbols; unchanged ids are idempotent
	added := make(map[string]struct{})
	for _, sym := range result.Symbols {
		if !e.table.Has(sym.ID) {
			added[sym.ID] = struct{}{}
			stats.SymbolsAdded++
			affectedBases[qualifiedBase(sym.QualifiedName)] = struct{}{}
		}
		_ = e.table.Upsert(sym)
	}

	// Chunk only the added/changed symbols; existing chunks stay put
	var work []types.Chunk
	for _, chunk := range e.chunks.ChunkFile(result, sc.content) {
		if _, isNew := added[chunk.SymbolID]; !isNew {
			continue
		}
		e.symbolChunks[chunk.SymbolID] = append(e.symbolChunks[chunk.SymbolID], chunk.ID)
		e.chunkOwner[chunk.ID] = chunk
		work = append(work, chunk)
	}
	return work
}

// cascadeRemoveLocked deletes a symbol and everything hanging off it:
// edges in both directions, chunks, embedding records, degraded markers.
// Caller holds the write lock.
func (e *Engine) cascadeRemoveLocked(id string) {
	e.graph.RemoveSymbol(id)
	e.table.Remove(id)
	for _, chunkID := range e.symbolChunks[id] {
		e.vectors.Delete(chunkID)
		delete(e.chunkOwner, chunkID)
		delete(e.embeddings, chunkID)
		delete(e.degraded, chunkID)
	}
	delete(e.symbolChunks, id)
}

func (e *Engine) addRefIndexLocked(path string, refs []types.RawReference) {
	for _, ref := range refs {
		base := qualifiedBase(ref.TargetHint)
		files, ok := e.refFilesByBase[base]
		if !ok {
			files = make(map[string]struct{})
			e.refFilesByBase[base] = files
		}
		files[path] = struct{}{}
	}
}

func (e *Engine) dropRefIndexLocked(path string) {
	for _, ref := range e.fileRefs[path] {
		base := qualifiedBase(ref.TargetHint)
		if files, ok := e.refFilesByBase[base]; ok {
			delete(files, path)
			if len(files) == 0 {
				delete(e.refFilesByBase, base)
			}
		}
	}
}

func qualifiedBase(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
