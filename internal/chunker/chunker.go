package chunker

import (
	"strings"

	"github.com/lattice-dev/lattice/pkg/types"
)

// DefaultMaxChunkRunes bounds the size of one embeddable unit
const DefaultMaxChunkRunes = 400

// Chunker splits symbol bodies into embeddable chunks. A symbol whose body
// fits the bound maps to exactly one chunk; larger bodies split into
// consecutive chunks at line boundaries.
type Chunker struct {
	maxRunes int
}

// New creates a Chunker with the given size bound; zero or negative selects
// the default
func New(maxRunes int) *Chunker {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxChunkRunes
	}
	return &Chunker{maxRunes: maxRunes}
}

// MaxRunes returns the configured chunk size bound
func (c *Chunker) MaxRunes() int { return c.maxRunes }

// ChunkFile chunks every symbol in a parse result. Module symbols span the
// whole file, so they are chunked only when the file yielded nothing finer;
// otherwise their text would be indexed twice.
func (c *Chunker) ChunkFile(result *types.ParseResult, content []byte) []types.Chunk {
	lines := strings.Split(string(content), "\n")

	onlyModule := true
	for _, sym := range result.Symbols {
		if sym.Kind != types.KindModule {
			onlyModule = false
			break
		}
	}

	var chunks []types.Chunk
	for _, sym := range result.Symbols {
		if sym.Kind == types.KindModule && !onlyModule {
			continue
		}
		chunks = append(chunks, c.ChunkSymbol(sym, bodyText(lines, sym.Span))...)
	}
	return chunks
}

// ChunkSymbol splits one symbol body into bounded chunks. Chunk ids are
// derived from the symbol id, sequence number, and text, so unchanged
// content re-chunks to identical ids.
func (c *Chunker) ChunkSymbol(sym types.Symbol, body string) []types.Chunk {
	if strings.TrimSpace(body) == "" {
		return nil
	}

	pieces := c.split(body)
	chunks := make([]types.Chunk, 0, len(pieces))
	line := sym.Span.Start
	for seq, piece := range pieces {
		pieceLines := strings.Count(piece, "\n") + 1
		end := line + pieceLines - 1
		if end > sym.Span.End {
			end = sym.Span.End
		}
		chunks = append(chunks, types.Chunk{
			ID:       types.DeriveChunkID(sym.ID, seq, piece),
			SymbolID: sym.ID,
			Text:     piece,
			Span:     types.LineRange{Start: line, End: end},
			Modality: types.ModalityCode,
		})
		line = end + 1
	}
	return chunks
}

// split cuts text into pieces of at most maxRunes, preferring line
// boundaries and hard-splitting single lines that exceed the bound
func (c *Chunker) split(text string) []string {
	if len([]rune(text)) <= c.maxRunes {
		return []string{text}
	}

	var pieces []string
	var current strings.Builder
	currentRunes := 0

	flush := func() {
		if currentRunes > 0 {
			pieces = append(pieces, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			currentRunes = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > c.maxRunes {
			flush()
			pieces = append(pieces, string(runes[:c.maxRunes]))
			runes = runes[c.maxRunes:]
		}
		if currentRunes > 0 && currentRunes+len(runes)+1 > c.maxRunes {
			flush()
		}
		current.WriteString(string(runes))
		current.WriteString("\n")
		currentRunes += len(runes) + 1
	}
	flush()
	return pieces
}

func bodyText(lines []string, span types.LineRange) string {
	start, end := span.Start-1, span.End
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}
