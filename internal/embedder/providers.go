package embedder

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultOpenAIURL   = "https://api.openai.com/v1/embeddings"
	OpenAIDimension    = 1536
	LocalDimension     = 384

	// DefaultBatchSize bounds one provider call
	DefaultBatchSize = 50

	// EnvOpenAIAPIKey selects the OpenAI provider when set
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	requestTimeout = 30 * time.Second
)

// NewFromEnv picks a provider from the environment: the OpenAI-compatible
// HTTP provider when an API key is present, else the deterministic local
// provider so the engine works offline with structural + lexical-hash
// semantics.
func NewFromEnv(cache *Cache) (Embedder, error) {
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		return NewOpenAIProvider(key, cache)
	}
	return NewLocalProvider(LocalDimension), nil
}

// OpenAIProvider implements Embedder against an OpenAI-compatible
// embeddings endpoint
type OpenAIProvider struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
	cache      *Cache
	retry      RetryConfig
}

// NewOpenAIProvider creates an OpenAI-compatible embedder
func NewOpenAIProvider(apiKey string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		model:      DefaultOpenAIModel,
		url:        DefaultOpenAIURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      cache,
		retry:      DefaultRetryConfig(),
	}, nil
}

type openAIRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed generates one vector per text. Cached texts skip the provider call;
// the rest go out in one batched request with timeout and backoff retry.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if p.cache != nil {
			if vec, ok := p.cache.Get(ComputeHash(text)); ok {
				out[i] = vec
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := retryWithBackoff(ctx, p.retry, func() ([][]float32, error) {
		return p.callAPI(ctx, missing)
	})
	if err != nil {
		return nil, err
	}

	for i, vec := range vectors {
		out[missingIdx[i]] = vec
		if p.cache != nil {
			p.cache.Set(ComputeHash(missing[i]), vec)
		}
	}
	return out, nil
}

func (p *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(openAIRequest{Input: texts, Model: p.model})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProviderFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderFailed, resp.StatusCode, truncate(string(data), 200))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrProviderFailed, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderFailed, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProviderFailed, len(parsed.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrProviderFailed, item.Index)
		}
		if len(item.Embedding) != OpenAIDimension {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(item.Embedding), OpenAIDimension)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// Dimension returns the fixed output dimension
func (p *OpenAIProvider) Dimension() int { return OpenAIDimension }

// ProviderVersion identifies provider and model
func (p *OpenAIProvider) ProviderVersion() string { return ProviderOpenAI + "/" + p.model }

// Close releases provider resources
func (p *OpenAIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider is a deterministic, dependency-free embedder: vectors are
// built from hashed character trigrams, so similar texts land near each
// other and identical texts always produce identical vectors. Useful
// offline and as the test provider.
type LocalProvider struct {
	dimension int
}

// NewLocalProvider creates a local hash-trigram embedder
func NewLocalProvider(dimension int) *LocalProvider {
	if dimension <= 0 {
		dimension = LocalDimension
	}
	return &LocalProvider{dimension: dimension}
}

// Embed generates deterministic trigram-hash vectors
func (p *LocalProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.embedOne(text)
	}
	return out, nil
}

func (p *LocalProvider) embedOne(text string) []float32 {
	vec := make([]float32, p.dimension)
	runes := []rune(text)
	if len(runes) < 3 {
		runes = append(runes, ' ', ' ')
	}
	for i := 0; i+2 < len(runes); i++ {
		h := fnvHash(runes[i : i+3])
		vec[h%uint64(p.dimension)] += 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func fnvHash(runes []rune) uint64 {
	const offset, prime = 14695981039346656037, 1099511628211
	var h uint64 = offset
	var buf [4]byte
	for _, r := range runes {
		binary.LittleEndian.PutUint32(buf[:], uint32(r))
		for _, b := range buf {
			h ^= uint64(b)
			h *= prime
		}
	}
	return h
}

// Dimension returns the fixed output dimension
func (p *LocalProvider) Dimension() int { return p.dimension }

// ProviderVersion identifies the local provider
func (p *LocalProvider) ProviderVersion() string { return ProviderLocal + "/trigram-v1" }

// Close releases provider resources
func (p *LocalProvider) Close() error { return nil }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
