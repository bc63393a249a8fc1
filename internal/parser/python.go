package parser

import (
	"regexp"
	"strings"

	"github.com/lattice-dev/lattice/pkg/types"
)

// PythonParser is a line-oriented Python adapter. It recognizes module
// structure (classes, functions, methods, assignments) and dependency
// references (imports, inheritance, calls, decorators) without a full
// grammar, which is enough for dependency-graph construction.
type PythonParser struct {
	classPattern      *regexp.Regexp
	funcPattern       *regexp.Regexp
	importPattern     *regexp.Regexp
	fromImportPattern *regexp.Regexp
	assignPattern     *regexp.Regexp
	callPattern       *regexp.Regexp
	decoratorPattern  *regexp.Regexp
}

// NewPythonParser creates a Python parser adapter
func NewPythonParser() *PythonParser {
	return &PythonParser{
		classPattern:      regexp.MustCompile(`^class\s+(\w+)(?:\s*\(([^)]*)\))?\s*:`),
		funcPattern:       regexp.MustCompile(`^def\s+(\w+)\s*\([^)]*\)\s*(?:->[^:]*)?:`),
		importPattern:     regexp.MustCompile(`^import\s+([\w.,\s]+)`),
		fromImportPattern: regexp.MustCompile(`^from\s+([\w.]+)\s+import\s+([\w.,\s*]+)`),
		assignPattern:     regexp.MustCompile(`^(\w+)\s*(?::[^=]+)?=[^=]`),
		callPattern:       regexp.MustCompile(`([A-Za-z_][\w.]*)\s*\(`),
		decoratorPattern:  regexp.MustCompile(`^@([\w.]+)`),
	}
}

// Language returns the language identifier
func (p *PythonParser) Language() string { return "python" }

// pySymbolDraft tracks an open class or function block during the line scan
type pySymbolDraft struct {
	qualifiedName string
	kind          types.SymbolKind
	indent        int
	startLine     int
	endLine       int
}

// pythonKeywords are identifiers that look like calls but are statements
var pythonKeywords = map[string]bool{
	"if": true, "elif": true, "while": true, "for": true, "with": true,
	"return": true, "yield": true, "assert": true, "print": false,
	"def": true, "class": true, "lambda": true, "except": true,
}

// Parse extracts symbols and references from one Python source file
func (p *PythonParser) Parse(filePath string, content []byte) *types.ParseResult {
	result := &types.ParseResult{FilePath: filePath}
	lines := strings.Split(string(content), "\n")
	moduleName := moduleNameForFile(filePath)

	// The module itself is a symbol so imports between files resolve to it
	moduleSym := types.Symbol{
		ID:            types.DeriveSymbolID(filePath, moduleName, string(content)),
		Kind:          types.KindModule,
		QualifiedName: moduleName,
		FilePath:      filePath,
		Span:          types.LineRange{Start: 1, End: max(1, len(lines))},
	}
	result.Symbols = append(result.Symbols, moduleSym)

	var open []pySymbolDraft // innermost block last
	finished := make([]pySymbolDraft, 0, 16)

	closeBlocks := func(indent, lastLine int) {
		for len(open) > 0 && indent <= open[len(open)-1].indent {
			blk := open[len(open)-1]
			blk.endLine = lastLine
			finished = append(finished, blk)
			open = open[:len(open)-1]
		}
	}

	// enclosing returns the qualified name of the innermost open function or
	// the module when the line is at top level
	enclosing := func() string {
		for i := len(open) - 1; i >= 0; i-- {
			if open[i].kind == types.KindFunction || open[i].kind == types.KindMethod {
				return open[i].qualifiedName
			}
		}
		return moduleName
	}
	enclosingClass := func() string {
		for i := len(open) - 1; i >= 0; i-- {
			if open[i].kind == types.KindClass {
				return open[i].qualifiedName
			}
		}
		return ""
	}

	lastNonBlank := 0
	for i, raw := range lines {
		lineNum := i + 1
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		closeBlocks(indent, lastNonBlank)
		lastNonBlank = lineNum

		switch {
		case p.importPattern.MatchString(line):
			m := p.importPattern.FindStringSubmatch(line)
			for _, target := range strings.Split(m[1], ",") {
				target = strings.TrimSpace(strings.Split(strings.TrimSpace(target), " ")[0])
				if target != "" {
					result.References = append(result.References, types.RawReference{
						FromQualifiedName: moduleName,
						TargetHint:        target,
						Kind:              types.EdgeImports,
					})
				}
			}

		case p.fromImportPattern.MatchString(line):
			m := p.fromImportPattern.FindStringSubmatch(line)
			module := m[1]
			result.References = append(result.References, types.RawReference{
				FromQualifiedName: moduleName,
				TargetHint:        module,
				Kind:              types.EdgeImports,
			})
			for _, name := range strings.Split(m[2], ",") {
				name = strings.TrimSpace(name)
				if name == "" || name == "*" {
					continue
				}
				result.References = append(result.References, types.RawReference{
					FromQualifiedName: moduleName,
					TargetHint:        module + "." + name,
					Kind:              types.EdgeImports,
				})
			}

		case p.classPattern.MatchString(line):
			m := p.classPattern.FindStringSubmatch(line)
			qname := moduleName + "." + m[1]
			open = append(open, pySymbolDraft{
				qualifiedName: qname,
				kind:          types.KindClass,
				indent:        indent,
				startLine:     lineNum,
			})
			for _, base := range strings.Split(m[2], ",") {
				base = strings.TrimSpace(base)
				if base != "" {
					result.References = append(result.References, types.RawReference{
						FromQualifiedName: qname,
						TargetHint:        base,
						Kind:              types.EdgeInherits,
					})
				}
			}

		case p.funcPattern.MatchString(line):
			m := p.funcPattern.FindStringSubmatch(line)
			kind := types.KindFunction
			qname := moduleName + "." + m[1]
			if cls := enclosingClass(); cls != "" {
				kind = types.KindMethod
				qname = cls + "." + m[1]
			}
			open = append(open, pySymbolDraft{
				qualifiedName: qname,
				kind:          kind,
				indent:        indent,
				startLine:     lineNum,
			})

		case strings.HasPrefix(line, "def ") || strings.HasPrefix(line, "class "):
			// Matched neither pattern: malformed definition, record and move on
			result.AddError(lineNum, "malformed definition: "+line)

		case p.decoratorPattern.MatchString(line):
			m := p.decoratorPattern.FindStringSubmatch(line)
			result.References = append(result.References, types.RawReference{
				FromQualifiedName: enclosing(),
				TargetHint:        m[1],
				Kind:              types.EdgeReferences,
			})

		default:
			if indent == 0 {
				if m := p.assignPattern.FindStringSubmatch(line); m != nil {
					result.Symbols = append(result.Symbols, types.Symbol{
						ID:            types.DeriveSymbolID(filePath, moduleName+"."+m[1], line),
						Kind:          types.KindVariable,
						QualifiedName: moduleName + "." + m[1],
						FilePath:      filePath,
						Span:          types.LineRange{Start: lineNum, End: lineNum},
					})
				}
			}
			for _, m := range p.callPattern.FindAllStringSubmatch(line, -1) {
				callee := m[1]
				head := callee
				if dot := strings.IndexByte(callee, '.'); dot >= 0 {
					head = callee[:dot]
				}
				if pythonKeywords[head] {
					continue
				}
				result.References = append(result.References, types.RawReference{
					FromQualifiedName: enclosing(),
					TargetHint:        callee,
					Kind:              types.EdgeCalls,
				})
			}
		}
	}
	closeBlocks(0, lastNonBlank)

	// Materialize class/function symbols with ids derived from their bodies
	for _, blk := range finished {
		if blk.endLine < blk.startLine {
			blk.endLine = blk.startLine
		}
		body := strings.Join(lines[blk.startLine-1:min(blk.endLine, len(lines))], "\n")
		result.Symbols = append(result.Symbols, types.Symbol{
			ID:            types.DeriveSymbolID(filePath, blk.qualifiedName, body),
			Kind:          blk.kind,
			QualifiedName: blk.qualifiedName,
			FilePath:      filePath,
			Span:          types.LineRange{Start: blk.startLine, End: blk.endLine},
		})
	}

	return result
}
