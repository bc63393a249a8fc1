package types

import "errors"

// Domain errors for type validation
var (
	ErrMissingSymbolID       = errors.New("symbol id is required")
	ErrInvalidScore          = errors.New("score must be between 0 and 1")
	ErrInvalidExplanationTag = errors.New("invalid explanation tag")
)
