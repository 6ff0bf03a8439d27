package chunking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/itheroservices-hub/hybridmind-sub004/internal/metrics"
	"github.com/itheroservices-hub/hybridmind-sub004/tokenizer"
	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

// breakSearchWindow is how far back from a window edge the size-based
// splitter looks for a natural break point.
const breakSearchWindow = 100

// Options configures one chunking pass.
type Options struct {
	// MaxChunkTokens bounds the estimated token count of each chunk.
	MaxChunkTokens int `yaml:"max_chunk_tokens" json:"max_chunk_tokens"`
	// OverlapTokens is carried between adjacent size-split chunks.
	OverlapTokens int `yaml:"overlap_tokens" json:"overlap_tokens"`
	// PreserveStructure enables boundary detection for code and
	// markdown-like content.
	PreserveStructure bool `yaml:"preserve_structure" json:"preserve_structure"`
}

// DefaultOptions returns the production chunking configuration.
func DefaultOptions() Options {
	return Options{
		MaxChunkTokens:    512,
		OverlapTokens:     50,
		PreserveStructure: true,
	}
}

// Chunker splits content into bounded chunks.
type Chunker struct {
	tokenizer tokenizer.Tokenizer
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewChunker creates a chunker. collector may be nil.
func NewChunker(tok tokenizer.Tokenizer, logger *zap.Logger, collector *metrics.Collector) *Chunker {
	return &Chunker{
		tokenizer: tok,
		logger:    logger.With(zap.String("component", "chunker")),
		metrics:   collector,
	}
}

// Chunk splits content according to opts. Empty or whitespace-only
// content yields no chunks. Positions in the result are contiguous and
// assigned across the final sequence, not per boundary.
func (c *Chunker) Chunk(content string, opts Options) []types.Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if opts.MaxChunkTokens <= 0 {
		opts.MaxChunkTokens = DefaultOptions().MaxChunkTokens
	}

	start := time.Now()
	class := classPlain
	if opts.PreserveStructure {
		class = classify(content)
	}

	var chunks []types.Chunk
	switch class {
	case classCode:
		chunks = c.packBoundaries(codeBoundaries(content), opts)
	case classMarkdown:
		chunks = c.packBoundaries(sectionBoundaries(content), opts)
	default:
		chunks = c.sizeSplit(content, types.KindGeneral, opts)
	}
	chunks = c.finalize(chunks)

	c.metrics.ObserveStage("chunking", time.Since(start))
	c.metrics.ObserveChunks(len(chunks))
	c.logger.Debug("chunking completed",
		zap.Int("chunks", len(chunks)),
		zap.Int("max_tokens", opts.MaxChunkTokens),
		zap.Bool("structured", class != classPlain))
	return chunks
}

// packBoundaries greedily packs structural boundaries into chunks. A
// boundary that would overflow the current chunk closes it and carries
// a small line tail forward; a boundary larger than the limit on its
// own is size-split recursively.
func (c *Chunker) packBoundaries(bounds []boundary, opts Options) []types.Chunk {
	var chunks []types.Chunk

	var current []string
	var kinds []types.ChunkKind
	currentTokens := 0
	tailLines := opts.OverlapTokens / 20

	flush := func() {
		// A carried tail with no boundary behind it is not a chunk.
		if len(kinds) == 0 {
			return
		}
		text := strings.Join(current, "\n")
		chunks = append(chunks, c.newChunk(text, packedKind(kinds)))

		// Carry a short tail into the next chunk for continuity.
		var tail []string
		if tailLines > 0 {
			lines := strings.Split(text, "\n")
			if len(lines) > tailLines {
				lines = lines[len(lines)-tailLines:]
			}
			tail = lines
		}
		current = append(current[:0], tail...)
		kinds = kinds[:0]
		currentTokens = c.tokenizer.CountTokens(strings.Join(current, "\n"))
	}

	for _, b := range bounds {
		btok := c.countTokens(b.text)

		if btok > opts.MaxChunkTokens {
			flush()
			current = current[:0]
			kinds = kinds[:0]
			currentTokens = 0
			chunks = append(chunks, c.sizeSplit(b.text, b.kind, opts)...)
			continue
		}

		if currentTokens > 0 && currentTokens+btok > opts.MaxChunkTokens {
			if len(kinds) == 0 {
				// Only a carried tail is open; drop it rather than
				// overflow the next chunk.
				current = current[:0]
				currentTokens = 0
			} else {
				flush()
			}
		}
		current = append(current, b.text)
		kinds = append(kinds, b.kind)
		currentTokens += btok
	}
	flush()

	return chunks
}

// sizeSplit walks content in character windows sized to the token
// limit, breaking at the best available boundary near each window edge
// and overlapping adjacent windows.
func (c *Chunker) sizeSplit(content string, kind types.ChunkKind, opts Options) []types.Chunk {
	total := c.countTokens(content)
	if total <= opts.MaxChunkTokens {
		return []types.Chunk{c.newChunk(content, kind)}
	}

	// Convert token sizes to characters using the content's actual
	// chars-per-token ratio rather than the fixed approximation.
	charsPerToken := float64(len(content)) / float64(total)
	window := int(float64(opts.MaxChunkTokens) * charsPerToken)
	if window < 1 {
		window = 1
	}
	overlapChars := int(float64(opts.OverlapTokens) * charsPerToken)
	if overlapChars >= window {
		overlapChars = window / 2
	}

	var chunks []types.Chunk
	start := 0
	for start < len(content) {
		end := start + window
		if end >= len(content) {
			chunks = append(chunks, c.newChunk(content[start:], kind))
			break
		}
		// Window and overlap arithmetic is in bytes; snap every cut to
		// a rune boundary so multibyte text is never sliced mid-rune.
		end = snapToRuneStart(content, end)
		if end <= start {
			_, size := utf8.DecodeRuneInString(content[start:])
			end = start + size
		}
		end = findBreak(content, start, end)
		chunks = append(chunks, c.newChunk(content[start:end], kind))

		next := snapToRuneStart(content, end-overlapChars)
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// snapToRuneStart walks i back to the nearest rune start.
func snapToRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// findBreak searches backward from end for the best break point, in
// priority order: paragraph break, line break, sentence end, comma,
// whitespace. Falls back to a hard cut at end.
func findBreak(s string, start, end int) int {
	lo := end - breakSearchWindow
	if lo < start+1 {
		lo = start + 1
	}
	window := s[lo:end]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return lo + i + 2
	}
	if i := strings.LastIndex(window, "\n"); i >= 0 {
		return lo + i + 1
	}
	best := -1
	for _, marker := range []string{". ", "! ", "? "} {
		if i := strings.LastIndex(window, marker); i > best {
			best = i
		}
	}
	if best >= 0 {
		return lo + best + 2
	}
	if i := strings.LastIndex(window, ","); i >= 0 {
		return lo + i + 1
	}
	if i := strings.LastIndex(window, " "); i >= 0 {
		return lo + i + 1
	}
	return end
}

// newChunk builds a chunk with trimmed text and a token estimate of at
// least 1. Position and ID are assigned later by finalize.
func (c *Chunker) newChunk(text string, kind types.ChunkKind) types.Chunk {
	trimmed := strings.TrimSpace(text)
	return types.Chunk{
		Text:   trimmed,
		Tokens: c.countTokens(trimmed),
		Kind:   kind,
		Metadata: types.ChunkMetadata{
			CharLength: len(trimmed),
			LineCount:  strings.Count(trimmed, "\n") + 1,
		},
	}
}

// finalize drops empty chunks and assigns contiguous positions and
// stable identifiers across the whole sequence.
func (c *Chunker) finalize(chunks []types.Chunk) []types.Chunk {
	out := chunks[:0]
	for _, ch := range chunks {
		if ch.Text == "" {
			continue
		}
		ch.Position = len(out)
		ch.ID = chunkID(ch.Position, ch.Text)
		out = append(out, ch)
	}
	return out
}

func (c *Chunker) countTokens(text string) int {
	n := c.tokenizer.CountTokens(text)
	if n < 1 && strings.TrimSpace(text) != "" {
		n = 1
	}
	return n
}

func packedKind(kinds []types.ChunkKind) types.ChunkKind {
	if len(kinds) == 0 {
		return types.KindGeneral
	}
	first := kinds[0]
	for _, k := range kinds[1:] {
		if k != first {
			return types.KindBlock
		}
	}
	return first
}

func chunkID(position int, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("chunk-%04d-%s", position, hex.EncodeToString(sum[:4]))
}
