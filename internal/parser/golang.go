package parser

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"strings"

	"github.com/lattice-dev/lattice/pkg/types"
)

// GoParser is the Go adapter built on go/ast
type GoParser struct{}

// NewGoParser creates a Go parser adapter
func NewGoParser() *GoParser {
	return &GoParser{}
}

// Language returns the language identifier
func (p *GoParser) Language() string { return "go" }

// Parse extracts symbols and references from one Go source file. Syntax
// errors are recorded as per-file markers; extraction continues over
// whatever partial AST the stdlib parser salvaged.
func (p *GoParser) Parse(filePath string, content []byte) *types.ParseResult {
	result := &types.ParseResult{FilePath: filePath}
	fset := token.NewFileSet()

	file, err := goparser.ParseFile(fset, filePath, content, goparser.ParseComments)
	if err != nil {
		result.AddError(0, fmt.Sprintf("syntax error: %v", err))
	}
	if file == nil {
		return result
	}

	moduleName := moduleNameForFile(filePath)
	lines := strings.Split(string(content), "\n")

	ext := &goExtractor{
		fset:       fset,
		filePath:   filePath,
		moduleName: moduleName,
		lines:      lines,
		result:     result,
	}

	// The file itself is a module symbol; imports hang off it
	result.Symbols = append(result.Symbols, types.Symbol{
		ID:            types.DeriveSymbolID(filePath, moduleName, string(content)),
		Kind:          types.KindModule,
		QualifiedName: moduleName,
		FilePath:      filePath,
		Span:          types.LineRange{Start: 1, End: max(1, len(lines))},
	})

	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		hint := path
		if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
			hint = path[idx+1:]
		}
		if imp.Name != nil && imp.Name.Name != "_" && imp.Name.Name != "." {
			hint = imp.Name.Name
		}
		result.References = append(result.References, types.RawReference{
			FromQualifiedName: moduleName,
			TargetHint:        hint,
			Kind:              types.EdgeImports,
		})
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			ext.extractFunc(d)
		case *ast.GenDecl:
			ext.extractGenDecl(d)
		}
	}

	return result
}

// goExtractor walks declarations and accumulates symbols and references
type goExtractor struct {
	fset       *token.FileSet
	filePath   string
	moduleName string
	lines      []string
	result     *types.ParseResult
}

func (e *goExtractor) span(node ast.Node) types.LineRange {
	return types.LineRange{
		Start: e.fset.Position(node.Pos()).Line,
		End:   e.fset.Position(node.End()).Line,
	}
}

func (e *goExtractor) body(span types.LineRange) string {
	start, end := span.Start-1, span.End
	if start < 0 {
		start = 0
	}
	if end > len(e.lines) {
		end = len(e.lines)
	}
	return strings.Join(e.lines[start:end], "\n")
}

func (e *goExtractor) addSymbol(qname string, kind types.SymbolKind, span types.LineRange) {
	e.result.Symbols = append(e.result.Symbols, types.Symbol{
		ID:            types.DeriveSymbolID(e.filePath, qname, e.body(span)),
		Kind:          kind,
		QualifiedName: qname,
		FilePath:      e.filePath,
		Span:          span,
	})
}

func (e *goExtractor) extractFunc(fn *ast.FuncDecl) {
	kind := types.KindFunction
	qname := e.moduleName + "." + fn.Name.Name
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		kind = types.KindMethod
		qname = e.moduleName + "." + receiverTypeName(fn.Recv.List[0].Type) + "." + fn.Name.Name
	}
	e.addSymbol(qname, kind, e.span(fn))
	if fn.Body != nil {
		e.extractCalls(qname, fn.Body)
	}
}

func (e *goExtractor) extractGenDecl(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			qname := e.moduleName + "." + s.Name.Name
			e.addSymbol(qname, types.KindClass, e.span(s))
			e.extractEmbedded(qname, s)
		case *ast.ValueSpec:
			for _, name := range s.Names {
				if name.Name == "_" {
					continue
				}
				e.addSymbol(e.moduleName+"."+name.Name, types.KindVariable, e.span(s))
			}
		}
	}
}

// extractEmbedded emits inherits references for embedded struct fields and
// embedded interfaces, the closest Go has to inheritance
func (e *goExtractor) extractEmbedded(qname string, spec *ast.TypeSpec) {
	var fields *ast.FieldList
	switch t := spec.Type.(type) {
	case *ast.StructType:
		fields = t.Fields
	case *ast.InterfaceType:
		fields = t.Methods
	default:
		return
	}
	if fields == nil {
		return
	}
	for _, field := range fields.List {
		if len(field.Names) != 0 {
			continue
		}
		if name := exprName(field.Type); name != "" {
			e.result.References = append(e.result.References, types.RawReference{
				FromQualifiedName: qname,
				TargetHint:        name,
				Kind:              types.EdgeInherits,
			})
		}
	}
}

// extractCalls walks a function body and records call and selector
// references attributed to the enclosing function
func (e *goExtractor) extractCalls(fromQName string, body *ast.BlockStmt) {
	ast.Inspect(body, func(node ast.Node) bool {
		call, ok := node.(*ast.CallExpr)
		if !ok {
			return true
		}
		if name := exprName(call.Fun); name != "" {
			e.result.References = append(e.result.References, types.RawReference{
				FromQualifiedName: fromQName,
				TargetHint:        name,
				Kind:              types.EdgeCalls,
			})
		}
		return true
	})
}

// receiverTypeName extracts the receiver type name, unwrapping pointers and
// generic instantiations
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return "unknown"
	}
}

// exprName renders a dotted name for ident and selector expressions, empty
// for anything more complex
func exprName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		if base := exprName(t.X); base != "" {
			return base + "." + t.Sel.Name
		}
		return t.Sel.Name
	case *ast.StarExpr:
		return exprName(t.X)
	default:
		return ""
	}
}
