// Package parser defines the per-language parsing capability and its
// extension-keyed registry.
//
// A Parser turns one source file into symbol drafts and unresolved raw
// references. Reference resolution against the symbol table happens later in
// the graph builder; parsers only report the textual hints they see.
//
// Two adapters are bundled: a Go adapter built on go/ast and a line-oriented
// Python adapter. Additional languages are added by registering an adapter:
//
//	reg := parser.DefaultRegistry()
//	reg.Register(".rb", rubyParser)
//
// Parse never fails the batch: malformed input produces a partial result
// with per-file error markers.
package parser
