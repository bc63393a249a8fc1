package resolver

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lattice-dev/lattice/internal/embedder"
	"github.com/lattice-dev/lattice/internal/indexer"
	"github.com/lattice-dev/lattice/pkg/types"
)

const (
	// DefaultTopK bounds result count when the request doesn't
	DefaultTopK = 10
	// MaxTopK is the hard result cap
	MaxTopK = 100
	// DefaultMaxDepth bounds structural traversal when the request doesn't
	DefaultMaxDepth = 3
	// DefaultCacheTTL expires cached responses
	DefaultCacheTTL = time.Hour

	queryCacheSize = 1000
)

// Request contains parameters for one hybrid query
type Request struct {
	// Query is free text; embedded for the semantic pass and used for
	// seed resolution when SeedSymbolID is empty
	Query string
	// SeedSymbolID roots the structural pass directly
	SeedSymbolID string

	TopK     int
	MaxDepth int
	// StructuralWeight is clamped to [0,1]; the semantic weight is its
	// complement
	StructuralWeight float64

	UseCache bool
	CacheTTL time.Duration
}

// Response contains ranked results and query metadata
type Response struct {
	Results []types.QueryResult
	// Degraded is the explicit indicator that semantic inputs were
	// incomplete: provider failure on the query, or chunks excluded
	// after retry exhaustion
	Degraded bool
	Version  uint64
	Duration time.Duration
	CacheHit bool

	StructuralCandidates int
	SemanticCandidates   int
}

type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Resolver executes hybrid queries: a structural traversal pass and a
// semantic similarity pass, merged by weighted score. Resolution is
// read-only and fully concurrent with itself; the engine isolates it from
// updater writes.
type Resolver struct {
	engine  *indexer.Engine
	embed   embedder.Embedder
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.Mutex
}

// New creates a Resolver over an engine and the embedding provider used
// for query text
func New(engine *indexer.Engine, embed embedder.Embedder) *Resolver {
	cache, err := lru.New[[32]byte, *cacheEntry](queryCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create query cache: %v", err))
	}
	return &Resolver{engine: engine, embed: embed, cache: cache}
}

// Resolve executes one hybrid query. When neither pass yields candidates
// the response carries an empty result set; that is not an error.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	normalizeRequest(&req)

	if req.Query == "" && req.SeedSymbolID == "" {
		return &Response{Duration: time.Since(start), Version: r.engine.Version()}, nil
	}

	version := r.engine.Version()
	if req.UseCache {
		if cached := r.checkCache(req, version); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(start)
			return cached, nil
		}
	}

	structural, depths, err := r.structuralPass(ctx, req)
	if err != nil {
		return nil, err
	}
	semantic, semDegraded := r.semanticPass(ctx, req)

	results := r.merge(req, structural, depths, semantic)
	resp := &Response{
		Results:              results,
		Degraded:             semDegraded || r.engine.Degraded(),
		Version:              version,
		Duration:             time.Since(start),
		StructuralCandidates: len(structural),
		SemanticCandidates:   len(semantic),
	}

	if req.UseCache && len(results) > 0 {
		r.storeCache(req, version, resp)
	}
	return resp, nil
}

// structuralPass roots a bounded traversal at the seed symbol and
// normalizes path weights so the best structural hit scores 1.0
func (r *Resolver) structuralPass(ctx context.Context, req Request) (map[string]float64, map[string]int, error) {
	seed := req.SeedSymbolID
	if seed == "" {
		sym, ok := r.engine.FindSeed(req.Query)
		if !ok {
			return nil, nil, nil
		}
		seed = sym.ID
	} else if _, ok := r.engine.Symbol(seed); !ok {
		return nil, nil, nil
	}

	hops, err := r.engine.Reachable(ctx, seed, req.MaxDepth)
	if err != nil {
		return nil, nil, err
	}
	if len(hops) == 0 {
		return nil, nil, nil
	}

	maxWeight := 0.0
	for _, hop := range hops {
		if hop.Weight > maxWeight {
			maxWeight = hop.Weight
		}
	}
	scores := make(map[string]float64, len(hops))
	depths := make(map[string]int, len(hops))
	for _, hop := range hops {
		score := 0.0
		if maxWeight > 0 {
			score = hop.Weight / maxWeight
		}
		scores[hop.SymbolID] = score
		depths[hop.SymbolID] = hop.Depth
	}
	return scores, depths, nil
}

// semanticPass embeds the query text and collects per-symbol similarity,
// normalized from cosine [-1,1] to [0,1]. Provider failure degrades to
// structural-only results instead of failing the query.
func (r *Resolver) semanticPass(ctx context.Context, req Request) (map[string]float64, bool) {
	if req.Query == "" {
		return nil, false
	}

	vectors, err := r.embed.Embed(ctx, []string{req.Query})
	if err != nil || len(vectors) != 1 {
		return nil, true
	}

	hits, err := r.engine.QueryVectors(vectors[0], req.TopK*2)
	if err != nil {
		return nil, true
	}

	scores := make(map[string]float64)
	for _, hit := range hits {
		sym, ok := r.engine.SymbolForChunk(hit.ChunkID)
		if !ok {
			continue
		}
		score := (hit.Similarity + 1) / 2
		if score > scores[sym.ID] {
			scores[sym.ID] = score
		}
	}
	return scores, false
}

// merge combines both candidate sets by weighted score with deterministic
// tie-breaking: shallower structural depth first, then lexical symbol id
func (r *Resolver) merge(req Request, structural map[string]float64, depths map[string]int, semantic map[string]float64) []types.QueryResult {
	union := make(map[string]struct{}, len(structural)+len(semantic))
	for id := range structural {
		union[id] = struct{}{}
	}
	for id := range semantic {
		union[id] = struct{}{}
	}
	if len(union) == 0 {
		return nil
	}

	semanticWeight := 1 - req.StructuralWeight
	results := make([]types.QueryResult, 0, len(union))
	for id := range union {
		sym, ok := r.engine.Symbol(id)
		if !ok {
			continue
		}
		structScore, hasStruct := structural[id]
		semScore, hasSem := semantic[id]

		tag := types.TagBoth
		switch {
		case hasStruct && !hasSem:
			tag = types.TagStructuralOnly
		case !hasStruct && hasSem:
			tag = types.TagSemanticOnly
		}

		depth := math.MaxInt
		if hasStruct {
			depth = depths[id]
		}
		results = append(results, types.QueryResult{
			SymbolID:        id,
			FilePath:        sym.FilePath,
			Span:            sym.Span,
			CombinedScore:   req.StructuralWeight*structScore + semanticWeight*semScore,
			StructuralScore: structScore,
			SemanticScore:   semScore,
			Depth:           depth,
			ExplanationTag:  tag,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		if results[i].Depth != results[j].Depth {
			return results[i].Depth < results[j].Depth
		}
		return results[i].SymbolID < results[j].SymbolID
	})

	if len(results) > req.TopK {
		results = results[:req.TopK]
	}
	// The sentinel depth only orders semantic-only hits; surface 0 instead
	for i := range results {
		if results[i].Depth == math.MaxInt {
			results[i].Depth = 0
		}
	}
	return results
}

func normalizeRequest(req *Request) {
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	if req.TopK > MaxTopK {
		req.TopK = MaxTopK
	}
	if req.MaxDepth <= 0 {
		req.MaxDepth = DefaultMaxDepth
	}
	if req.StructuralWeight < 0 {
		req.StructuralWeight = 0
	}
	if req.StructuralWeight > 1 {
		req.StructuralWeight = 1
	}
	if req.CacheTTL <= 0 {
		req.CacheTTL = DefaultCacheTTL
	}
}

func (r *Resolver) checkCache(req Request, version uint64) *Response {
	key := cacheKey(req, version)
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	entry, found := r.cache.Get(key)
	if !found {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		r.cache.Remove(key)
		return nil
	}
	return copyResponse(entry.response)
}

func (r *Resolver) storeCache(req Request, version uint64, resp *Response) {
	key := cacheKey(req, version)
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache.Add(key, &cacheEntry{
		response:  copyResponse(resp),
		expiresAt: time.Now().Add(req.CacheTTL),
	})
}

// cacheKey hashes the request plus the engine version, so any published
// mutation naturally invalidates every older entry
func cacheKey(req Request, version uint64) [32]byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d|%d|%.4f|%d",
		req.Query, req.SeedSymbolID, req.TopK, req.MaxDepth, req.StructuralWeight, version)
	return sha256.Sum256([]byte(b.String()))
}

func copyResponse(src *Response) *Response {
	dst := *src
	dst.Results = make([]types.QueryResult, len(src.Results))
	copy(dst.Results, src.Results)
	return &dst
}
