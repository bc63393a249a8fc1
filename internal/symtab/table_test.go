package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-dev/lattice/pkg/types"
)

func sym(id, qname, file string) types.Symbol {
	return types.Symbol{
		ID:            id,
		Kind:          types.KindFunction,
		QualifiedName: qname,
		FilePath:      file,
		Span:          types.LineRange{Start: 1, End: 2},
	}
}

func TestUpsertAndGet(t *testing.T) {
	tbl := New()

	require.NoError(t, tbl.Upsert(sym("a1", "pkg.auth.login", "pkg/auth.py")))
	assert.Equal(t, 1, tbl.Len())

	got, ok := tbl.Get("a1")
	require.True(t, ok)
	assert.Equal(t, "pkg.auth.login", got.QualifiedName)

	// Replacing the same id reindexes cleanly
	require.NoError(t, tbl.Upsert(sym("a1", "pkg.auth.signin", "pkg/auth.py")))
	assert.Equal(t, 1, tbl.Len())
	assert.Empty(t, tbl.LookupByName("pkg.auth.login", Scope{}))
	assert.Len(t, tbl.LookupByName("pkg.auth.signin", Scope{}), 1)
}

func TestUpsertRejectsInvalid(t *testing.T) {
	tbl := New()
	bad := sym("", "pkg.f", "pkg.py")
	assert.Error(t, tbl.Upsert(bad))
	assert.Equal(t, 0, tbl.Len())
}

func TestRemove(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Upsert(sym("a1", "m.f", "m.py")))

	tbl.Remove("a1")
	assert.False(t, tbl.Has("a1"))
	assert.Empty(t, tbl.LookupByName("m.f", Scope{}))
	assert.Empty(t, tbl.FileSymbols("m.py"))

	// Unknown id is a no-op
	tbl.Remove("nope")
}

func TestLookupResolutionOrder(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Upsert(sym("a1", "pkg.auth.validate", "pkg/auth.py")))
	require.NoError(t, tbl.Upsert(sym("b1", "pkg.forms.validate", "pkg/forms.py")))

	// Exact qualified name wins outright
	exact := tbl.LookupByName("pkg.auth.validate", Scope{})
	require.Len(t, exact, 1)
	assert.Equal(t, "a1", exact[0].Symbol.ID)

	// Dotted suffix matches both
	suffix := tbl.LookupByName("auth.validate", Scope{})
	require.Len(t, suffix, 1)
	assert.Equal(t, "a1", suffix[0].Symbol.ID)

	// Base name falls back to every symbol with that final component
	base := tbl.LookupByName("validate", Scope{})
	assert.Len(t, base, 2)
}

func TestLookupScopeRanking(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Upsert(sym("same", "a.helper", "pkg/a.py")))
	require.NoError(t, tbl.Upsert(sym("dir", "b.helper", "pkg/b.py")))
	require.NoError(t, tbl.Upsert(sym("far", "c.helper", "other/c.py")))

	got := tbl.LookupByName("helper", Scope{FilePath: "pkg/a.py"})
	require.Len(t, got, 3)
	assert.Equal(t, "same", got[0].Symbol.ID)
	assert.Equal(t, 0, got[0].Rank)
	assert.Equal(t, "dir", got[1].Symbol.ID)
	assert.Equal(t, 1, got[1].Rank)
	assert.Equal(t, "far", got[2].Symbol.ID)
	assert.Equal(t, 2, got[2].Rank)
}

func TestLookupUnresolved(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Upsert(sym("a1", "m.f", "m.py")))
	assert.Nil(t, tbl.LookupByName("missing", Scope{}))
}

func TestFileSymbolsSorted(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Upsert(sym("z", "m.zeta", "m.py")))
	require.NoError(t, tbl.Upsert(sym("a", "m.alpha", "m.py")))
	require.NoError(t, tbl.Upsert(sym("x", "other.f", "other.py")))

	got := tbl.FileSymbols("m.py")
	require.Len(t, got, 2)
	assert.Equal(t, "m.alpha", got[0].QualifiedName)
	assert.Equal(t, "m.zeta", got[1].QualifiedName)
}

func TestAllSortedByID(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Upsert(sym("b", "m.b", "m.py")))
	require.NoError(t, tbl.Upsert(sym("a", "m.a", "m.py")))

	all := tbl.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}
