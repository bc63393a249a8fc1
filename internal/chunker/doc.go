// Package chunker splits symbol bodies into bounded embeddable units.
//
// The size bound is configurable (default 400 runes). Chunk ids are content
// derived, so re-chunking unchanged symbols is idempotent.
package chunker
