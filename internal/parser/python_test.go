package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-dev/lattice/pkg/types"
)

const pySample = `import os
from pkg.auth import validate

MAX_TRIES = 3

class Session(BaseSession):
    def refresh(self):
        validate(self)

def login(user):
    return validate(user)
`

func symbolsByName(result *types.ParseResult) map[string]types.Symbol {
	out := make(map[string]types.Symbol, len(result.Symbols))
	for _, s := range result.Symbols {
		out[s.QualifiedName] = s
	}
	return out
}

func refsByKind(result *types.ParseResult, kind types.EdgeKind) []types.RawReference {
	var out []types.RawReference
	for _, r := range result.References {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func TestPythonParseSymbols(t *testing.T) {
	p := NewPythonParser()
	result := p.Parse("app/main.py", []byte(pySample))
	require.False(t, result.HasErrors())

	syms := symbolsByName(result)

	mod, ok := syms["app.main"]
	require.True(t, ok)
	assert.Equal(t, types.KindModule, mod.Kind)

	cls, ok := syms["app.main.Session"]
	require.True(t, ok)
	assert.Equal(t, types.KindClass, cls.Kind)
	assert.Equal(t, 6, cls.Span.Start)

	method, ok := syms["app.main.Session.refresh"]
	require.True(t, ok)
	assert.Equal(t, types.KindMethod, method.Kind)

	fn, ok := syms["app.main.login"]
	require.True(t, ok)
	assert.Equal(t, types.KindFunction, fn.Kind)

	v, ok := syms["app.main.MAX_TRIES"]
	require.True(t, ok)
	assert.Equal(t, types.KindVariable, v.Kind)
}

func TestPythonParseReferences(t *testing.T) {
	p := NewPythonParser()
	result := p.Parse("app/main.py", []byte(pySample))

	imports := refsByKind(result, types.EdgeImports)
	hints := make([]string, 0, len(imports))
	for _, r := range imports {
		hints = append(hints, r.TargetHint)
		assert.Equal(t, "app.main", r.FromQualifiedName)
	}
	assert.Contains(t, hints, "os")
	assert.Contains(t, hints, "pkg.auth")
	assert.Contains(t, hints, "pkg.auth.validate")

	inherits := refsByKind(result, types.EdgeInherits)
	require.Len(t, inherits, 1)
	assert.Equal(t, "app.main.Session", inherits[0].FromQualifiedName)
	assert.Equal(t, "BaseSession", inherits[0].TargetHint)

	// Calls are attributed to the enclosing function or method
	calls := refsByKind(result, types.EdgeCalls)
	callers := make(map[string]string)
	for _, r := range calls {
		callers[r.FromQualifiedName] = r.TargetHint
	}
	assert.Equal(t, "validate", callers["app.main.Session.refresh"])
	assert.Equal(t, "validate", callers["app.main.login"])
}

func TestPythonSymbolIDStableAcrossRescan(t *testing.T) {
	p := NewPythonParser()
	first := p.Parse("m.py", []byte(pySample))
	second := p.Parse("m.py", []byte(pySample))

	firstIDs := symbolsByName(first)
	for qname, sym := range symbolsByName(second) {
		assert.Equal(t, firstIDs[qname].ID, sym.ID, qname)
	}
}

func TestPythonSymbolIDChangesWithBody(t *testing.T) {
	p := NewPythonParser()
	v1 := p.Parse("m.py", []byte("def f():\n    return 1\n"))
	v2 := p.Parse("m.py", []byte("def f():\n    return 2\n"))

	assert.NotEqual(t, symbolsByName(v1)["m.f"].ID, symbolsByName(v2)["m.f"].ID)
}

func TestPythonMalformedDefinitionRecorded(t *testing.T) {
	p := NewPythonParser()
	result := p.Parse("m.py", []byte("def broken(\n\ndef fine():\n    return 1\n"))

	require.True(t, result.HasErrors())
	assert.Equal(t, 1, result.Errors[0].Line)

	// The salvageable part of the file still contributes symbols
	_, ok := symbolsByName(result)["m.fine"]
	assert.True(t, ok)
}

func TestPythonDecoratorReference(t *testing.T) {
	p := NewPythonParser()
	result := p.Parse("m.py", []byte("@cached\ndef f():\n    return 1\n"))

	refs := refsByKind(result, types.EdgeReferences)
	require.Len(t, refs, 1)
	assert.Equal(t, "cached", refs[0].TargetHint)
}

func TestPythonKeywordsNotCalls(t *testing.T) {
	p := NewPythonParser()
	result := p.Parse("m.py", []byte("def f(x):\n    if (x):\n        return helper(x)\n"))

	calls := refsByKind(result, types.EdgeCalls)
	require.Len(t, calls, 1)
	assert.Equal(t, "helper", calls[0].TargetHint)
}
