package symtab

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lattice-dev/lattice/pkg/types"
)

// Scope describes where a lookup originates, used to rank ambiguous
// candidates: same file beats same module (directory) beats global.
type Scope struct {
	FilePath string
}

// Candidate is a ranked lookup result
type Candidate struct {
	Symbol types.Symbol
	// Rank is 0 for same-file, 1 for same-module, 2 for global matches
	Rank int
}

// Table holds the canonical set of symbols with secondary indexes by
// qualified name, base name, and owning file. All methods are safe for
// concurrent use.
type Table struct {
	mu     sync.RWMutex
	byID   map[string]types.Symbol
	byName map[string]map[string]struct{}
	byBase map[string]map[string]struct{}
	byFile map[string]map[string]struct{}
}

// New creates an empty symbol table
func New() *Table {
	return &Table{
		byID:   make(map[string]types.Symbol),
		byName: make(map[string]map[string]struct{}),
		byBase: make(map[string]map[string]struct{}),
		byFile: make(map[string]map[string]struct{}),
	}
}

// Upsert inserts or replaces a symbol. Replacing a symbol whose id changed
// is the caller's concern: upsert is keyed by id, so a content change shows
// up as a remove of the old id plus an upsert of the new one.
func (t *Table) Upsert(sym types.Symbol) error {
	if err := sym.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.byID[sym.ID]; ok {
		t.unindex(old)
	}
	t.byID[sym.ID] = sym
	addIndex(t.byName, sym.QualifiedName, sym.ID)
	addIndex(t.byBase, baseName(sym.QualifiedName), sym.ID)
	addIndex(t.byFile, sym.FilePath, sym.ID)
	return nil
}

// Remove deletes a symbol by id. Removing an unknown id is a no-op.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sym, ok := t.byID[id]
	if !ok {
		return
	}
	t.unindex(sym)
	delete(t.byID, id)
}

func (t *Table) unindex(sym types.Symbol) {
	dropIndex(t.byName, sym.QualifiedName, sym.ID)
	dropIndex(t.byBase, baseName(sym.QualifiedName), sym.ID)
	dropIndex(t.byFile, sym.FilePath, sym.ID)
}

// Get returns the symbol with the given id
func (t *Table) Get(id string) (types.Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym, ok := t.byID[id]
	return sym, ok
}

// Has reports whether a symbol id exists
func (t *Table) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byID[id]
	return ok
}

// Len returns the number of symbols
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// LookupByName resolves a name to candidate symbols ranked by scope
// proximity. Resolution tries, in order: exact qualified-name match, dotted
// suffix match, then bare base-name match. Multiple candidates are returned
// for the graph builder to weight; an empty slice means unresolved.
func (t *Table) LookupByName(name string, scope Scope) []Candidate {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := t.byName[name]
	if len(ids) == 0 {
		ids = t.suffixMatchLocked(name)
	}
	if len(ids) == 0 {
		ids = t.byBase[baseName(name)]
	}
	if len(ids) == 0 {
		return nil
	}

	scopeDir := filepath.Dir(scope.FilePath)
	out := make([]Candidate, 0, len(ids))
	for id := range ids {
		sym := t.byID[id]
		rank := 2
		switch {
		case sym.FilePath == scope.FilePath:
			rank = 0
		case filepath.Dir(sym.FilePath) == scopeDir:
			rank = 1
		}
		out = append(out, Candidate{Symbol: sym, Rank: rank})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		if out[i].Symbol.QualifiedName != out[j].Symbol.QualifiedName {
			return out[i].Symbol.QualifiedName < out[j].Symbol.QualifiedName
		}
		return out[i].Symbol.ID < out[j].Symbol.ID
	})
	return out
}

// suffixMatchLocked finds qualified names ending in "."+name. Caller holds
// the read lock.
func (t *Table) suffixMatchLocked(name string) map[string]struct{} {
	var found map[string]struct{}
	suffix := "." + name
	for qname, ids := range t.byName {
		if strings.HasSuffix(qname, suffix) {
			if found == nil {
				found = make(map[string]struct{})
			}
			for id := range ids {
				found[id] = struct{}{}
			}
		}
	}
	return found
}

// FileSymbols returns the symbols owned by a file, sorted by qualified name
// for deterministic diffing
func (t *Table) FileSymbols(filePath string) []types.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.Symbol, 0, len(t.byFile[filePath]))
	for id := range t.byFile[filePath] {
		out = append(out, t.byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QualifiedName < out[j].QualifiedName
	})
	return out
}

// All returns every symbol sorted by id, for snapshot persistence
func (t *Table) All() []types.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.Symbol, 0, len(t.byID))
	for _, sym := range t.byID {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func addIndex(idx map[string]map[string]struct{}, key, id string) {
	set, ok := idx[key]
	if !ok {
		set = make(map[string]struct{})
		idx[key] = set
	}
	set[id] = struct{}{}
}

func dropIndex(idx map[string]map[string]struct{}, key, id string) {
	if set, ok := idx[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(idx, key)
		}
	}
}

func baseName(qname string) string {
	if idx := strings.LastIndexByte(qname, '.'); idx >= 0 {
		return qname[idx+1:]
	}
	return qname
}
