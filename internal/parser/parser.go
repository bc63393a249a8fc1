package parser

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lattice-dev/lattice/pkg/types"
)

// Parser is the per-language capability consumed by the indexing pipeline.
//
// Parse turns one source file into symbol definitions and unresolved
// references. Malformed input yields a partial result carrying per-file
// parse-error markers; a parser never aborts the batch by failing outright.
type Parser interface {
	// Parse extracts symbols and raw references from one file
	Parse(filePath string, content []byte) *types.ParseResult

	// Language returns the language identifier (e.g. "go", "python")
	Language() string
}

// Registry maps file extensions to parser implementations. New languages are
// added by registering an implementation, not by branching inside the core.
type Registry struct {
	mu      sync.RWMutex
	byExt   map[string]Parser
	ordered []string
}

// NewRegistry creates an empty parser registry
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]Parser),
	}
}

// DefaultRegistry returns a registry with the bundled adapters registered
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".go", NewGoParser())
	r.Register(".py", NewPythonParser())
	return r
}

// Register binds a file extension (including the leading dot) to a parser.
// Registering an extension twice replaces the previous binding.
func (r *Registry) Register(ext string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext = strings.ToLower(ext)
	if _, exists := r.byExt[ext]; !exists {
		r.ordered = append(r.ordered, ext)
		sort.Strings(r.ordered)
	}
	r.byExt[ext] = p
}

// ForFile returns the parser registered for the file's extension
func (r *Registry) ForFile(path string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return p, ok
}

// Extensions lists the registered extensions in sorted order
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// moduleNameForFile derives the module qualified name from a file path:
// path separators become dots and the extension is dropped, so
// "pkg/auth/login.py" becomes "pkg.auth.login".
func moduleNameForFile(path string) string {
	clean := filepath.ToSlash(path)
	clean = strings.TrimSuffix(clean, filepath.Ext(clean))
	clean = strings.Trim(clean, "/")
	return strings.ReplaceAll(clean, "/", ".")
}
