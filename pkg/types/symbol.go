package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// SymbolKind represents the kind of source construct a symbol describes
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindMethod   SymbolKind = "method"
	KindClass    SymbolKind = "class"
	KindModule   SymbolKind = "module"
	KindVariable SymbolKind = "variable"
)

// LineRange is a 1-based, inclusive span of source lines
type LineRange struct {
	Start int
	End   int
}

// Valid reports whether the range is well-formed
func (r LineRange) Valid() bool {
	return r.Start > 0 && r.End >= r.Start
}

// Symbol is a uniquely identified source construct.
//
// The ID is derived from (file path, qualified name, body content): it is
// stable across re-scans of unchanged content and regenerated whenever the
// body changes.
type Symbol struct {
	ID            string
	Kind          SymbolKind
	QualifiedName string
	FilePath      string
	Span          LineRange
}

// DeriveSymbolID computes the stable content+path derived identifier for a
// symbol. Identical inputs always yield the same id.
func DeriveSymbolID(filePath, qualifiedName, body string) string {
	h := sha256.New()
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(qualifiedName))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ValidateKind checks if the symbol kind is valid
func (s *Symbol) ValidateKind() error {
	switch s.Kind {
	case KindFunction, KindMethod, KindClass, KindModule, KindVariable:
		return nil
	default:
		return fmt.Errorf("invalid symbol kind %q", s.Kind)
	}
}

// Validate performs comprehensive validation of the symbol
func (s *Symbol) Validate() error {
	if s.ID == "" {
		return errors.New("symbol id is required")
	}
	if s.QualifiedName == "" {
		return errors.New("symbol qualified name is required")
	}
	if s.FilePath == "" {
		return errors.New("symbol file path is required")
	}
	if err := s.ValidateKind(); err != nil {
		return err
	}
	if !s.Span.Valid() {
		return errors.New("invalid line range")
	}
	return nil
}
