package types

import "fmt"

// EdgeKind classifies a dependency relationship between two symbols
type EdgeKind string

const (
	EdgeCalls      EdgeKind = "calls"
	EdgeImports    EdgeKind = "imports"
	EdgeInherits   EdgeKind = "inherits"
	EdgeReferences EdgeKind = "references"
)

// BaseWeight returns the ranking weight for an edge kind before confidence
// and path-length decay are applied.
func (k EdgeKind) BaseWeight() float64 {
	switch k {
	case EdgeCalls:
		return 1.0
	case EdgeInherits:
		return 0.9
	case EdgeImports:
		return 0.7
	case EdgeReferences:
		return 0.5
	default:
		return 0
	}
}

// Valid reports whether the edge kind is one of the known kinds
func (k EdgeKind) Valid() bool {
	return k.BaseWeight() > 0
}

// Edge is a directed dependency between two symbols. Ambiguous reference
// resolution produces one edge per candidate target with confidence split
// evenly, so confidence is always in (0, 1].
type Edge struct {
	SourceID   string
	TargetID   string
	Kind       EdgeKind
	Confidence float64
}

// Key returns the deduplication key. Duplicate edges with the same key are
// collapsed keeping the maximum confidence.
func (e Edge) Key() string {
	return e.SourceID + "\x00" + e.TargetID + "\x00" + string(e.Kind)
}

// Validate checks edge invariants
func (e Edge) Validate() error {
	if e.SourceID == "" || e.TargetID == "" {
		return fmt.Errorf("edge endpoints are required")
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("invalid edge kind %q", e.Kind)
	}
	if e.Confidence <= 0 || e.Confidence > 1 {
		return fmt.Errorf("edge confidence %f out of range (0,1]", e.Confidence)
	}
	return nil
}
