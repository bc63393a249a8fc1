package types

// RawReference is an unresolved dependency emitted by a parser adapter.
// FromQualifiedName names the referencing symbol within the parsed file;
// TargetHint is the textual name the reference points at, resolved later
// against the symbol table.
type RawReference struct {
	FromQualifiedName string
	TargetHint        string
	Kind              EdgeKind
}

// ParseError records a per-file parse failure. Parse errors are non-fatal:
// the file contributes whatever partial result the adapter salvaged and the
// batch continues.
type ParseError struct {
	FilePath string
	Line     int
	Message  string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	return pe.Message
}

// ParseResult is the output of a parser adapter for one source file
type ParseResult struct {
	FilePath   string
	Symbols    []Symbol
	References []RawReference
	Errors     []ParseError
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError appends a parse error marker to the result
func (pr *ParseResult) AddError(line int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		FilePath: pr.FilePath,
		Line:     line,
		Message:  msg,
	})
}
