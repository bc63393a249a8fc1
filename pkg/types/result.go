package types

// ExplanationTag describes which retrieval pass produced a query result
type ExplanationTag string

const (
	TagStructuralOnly ExplanationTag = "structural_only"
	TagSemanticOnly   ExplanationTag = "semantic_only"
	TagBoth           ExplanationTag = "both"
)

// QueryResult is a single ranked hit from the hybrid resolver.
//
// CombinedScore = structural_weight*StructuralScore +
// semantic_weight*SemanticScore, with a missing side scored 0. Depth is the
// structural traversal depth from the seed, or 0 for semantic-only hits.
type QueryResult struct {
	SymbolID        string
	FilePath        string
	Span            LineRange
	CombinedScore   float64
	StructuralScore float64
	SemanticScore   float64
	Depth           int
	ExplanationTag  ExplanationTag
}

// Validate checks if the query result is valid
func (qr *QueryResult) Validate() error {
	if qr.SymbolID == "" {
		return ErrMissingSymbolID
	}
	if qr.CombinedScore < 0 || qr.CombinedScore > 1 {
		return ErrInvalidScore
	}
	switch qr.ExplanationTag {
	case TagStructuralOnly, TagSemanticOnly, TagBoth:
		return nil
	default:
		return ErrInvalidExplanationTag
	}
}
