package chunking

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itheroservices-hub/hybridmind-sub004/tokenizer"
	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

func newTestChunker() *Chunker {
	return NewChunker(tokenizer.NewEstimator(), zap.NewNop(), nil)
}

func TestChunk_EmptyInput(t *testing.T) {
	c := newTestChunker()
	assert.Nil(t, c.Chunk("", DefaultOptions()))
	assert.Nil(t, c.Chunk("   \n\t  \n", DefaultOptions()))
}

func TestChunk_SmallCodeFileStaysWhole(t *testing.T) {
	c := newTestChunker()

	// A 50-line file holding one function, well under the limit, must
	// come back as exactly one chunk.
	var b strings.Builder
	b.WriteString("package demo\n\n")
	b.WriteString("func process(items []string) []string {\n")
	for i := 0; i < 45; i++ {
		fmt.Fprintf(&b, "\tout = append(out, transform(items[%d]))\n", i)
	}
	b.WriteString("\treturn out\n}\n")
	content := b.String()

	chunks := c.Chunk(content, Options{MaxChunkTokens: 1000, OverlapTokens: 50, PreserveStructure: true})
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, strings.TrimSpace(content), chunks[0].Text)
	assert.LessOrEqual(t, chunks[0].Tokens, 1000)
}

func TestChunk_CodeSplitsAtFunctionBoundaries(t *testing.T) {
	c := newTestChunker()

	fn := func(name string) string {
		var b strings.Builder
		fmt.Fprintf(&b, "func %s() error {\n", name)
		for i := 0; i < 20; i++ {
			b.WriteString("\tif err := step(); err != nil { return err }\n")
		}
		b.WriteString("\treturn nil\n}\n")
		return b.String()
	}
	content := fn("first") + "\n" + fn("second") + "\n" + fn("third")

	// Each function is roughly 240 tokens; a 300 token budget forces
	// one function per chunk instead of mid-function cuts.
	chunks := c.Chunk(content, Options{MaxChunkTokens: 300, OverlapTokens: 0, PreserveStructure: true})
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
		assert.Equal(t, types.KindFunction, ch.Kind)
		assert.LessOrEqual(t, ch.Tokens, 300)
	}
	assert.True(t, strings.HasPrefix(chunks[0].Text, "func first()"))
	assert.True(t, strings.HasPrefix(chunks[1].Text, "func second()"))
	assert.True(t, strings.HasPrefix(chunks[2].Text, "func third()"))
}

func TestChunk_MarkdownSplitsAtHeadings(t *testing.T) {
	c := newTestChunker()

	section := func(title string) string {
		return "## " + title + "\n\n" + strings.Repeat("Details about "+title+". ", 30) + "\n\n"
	}
	content := section("Install") + section("Configure") + section("Deploy")

	chunks := c.Chunk(content, Options{MaxChunkTokens: 250, OverlapTokens: 0, PreserveStructure: true})
	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.Equal(t, types.KindSection, ch.Kind)
	}
	assert.True(t, strings.HasPrefix(chunks[0].Text, "## Install"))
	assert.True(t, strings.HasPrefix(chunks[1].Text, "## Configure"))
}

func TestChunk_HeadingInsideFenceIsNotABoundary(t *testing.T) {
	bounds := sectionBoundaries("# Title\n\nProse.\n\n```\n# not a heading\n```\n\nMore prose.\n")
	require.Len(t, bounds, 1)
	assert.Equal(t, types.KindSection, bounds[0].kind)
}

func TestChunk_PlainTextSizeSplit(t *testing.T) {
	c := newTestChunker()

	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	opts := Options{MaxChunkTokens: 100, OverlapTokens: 10, PreserveStructure: true}

	chunks := c.Chunk(content, opts)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
		assert.GreaterOrEqual(t, ch.Tokens, 1)
		assert.LessOrEqual(t, ch.Tokens, opts.MaxChunkTokens)
		assert.Equal(t, types.KindGeneral, ch.Kind)
		// Every chunk is a contiguous slice of the input.
		assert.Contains(t, content, ch.Text)
	}

	// The split covers the whole document.
	trimmed := strings.TrimSpace(content)
	assert.True(t, strings.HasPrefix(trimmed, chunks[0].Text))
	assert.True(t, strings.HasSuffix(trimmed, chunks[len(chunks)-1].Text))
}

func TestChunk_OversizedBoundaryIsSizeSplit(t *testing.T) {
	c := newTestChunker()

	var b strings.Builder
	b.WriteString("func enormous() {\n")
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&b, "\tstate[%d] = compute(%d)\n", i, i)
	}
	b.WriteString("}\n")
	b.WriteString("func tiny() {}\n")

	chunks := c.Chunk(b.String(), Options{MaxChunkTokens: 200, OverlapTokens: 20, PreserveStructure: true})
	require.Greater(t, len(chunks), 2)
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.Tokens, 200)
	}
}

func TestChunk_IDsAreStableAndPositional(t *testing.T) {
	c := newTestChunker()
	content := strings.Repeat("Sentence one. Sentence two. ", 100)
	opts := Options{MaxChunkTokens: 80, OverlapTokens: 0}

	first := c.Chunk(content, opts)
	second := c.Chunk(content, opts)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID, "same input must produce the same ids")
		assert.True(t, strings.HasPrefix(first[i].ID, fmt.Sprintf("chunk-%04d-", i)))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    contentClass
	}{
		{"go source", "package x\n\nfunc main() {}\n", classCode},
		{"python with comment", "# entry point\ndef main():\n    pass\n", classCode},
		{"markdown", "# Title\n\nSome prose here.\n", classMarkdown},
		{"fenced block", "Look at this:\n```\nraw\n```\n", classMarkdown},
		{"plain prose", "Just a paragraph of ordinary text without structure.", classPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.content))
		})
	}
}

func TestDeclKind(t *testing.T) {
	tests := []struct {
		line string
		kind types.ChunkKind
		ok   bool
	}{
		{"func Run() {", types.KindFunction, true},
		{"func (s *Server) Run() {", types.KindMethod, true},
		{"    def helper(self):", types.KindMethod, true},
		{"class Widget:", types.KindClass, true},
		{"type Widget struct {", types.KindClass, true},
		{"x := 1", "", false},
	}
	for _, tt := range tests {
		kind, ok := declKind(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		if tt.ok {
			assert.Equal(t, tt.kind, kind, tt.line)
		}
	}
}

func TestFindBreak_PrefersParagraphs(t *testing.T) {
	s := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 40)
	got := findBreak(s, 0, len(s))
	assert.Equal(t, 32, got, "paragraph break wins over any later whitespace")

	s2 := strings.Repeat("a", 30) + ". " + strings.Repeat("b", 40)
	got2 := findBreak(s2, 0, len(s2))
	assert.Equal(t, 32, got2, "sentence end is used when no line break exists")

	s3 := strings.Repeat("a", 80)
	assert.Equal(t, len(s3), findBreak(s3, 0, len(s3)), "hard cut when nothing better exists")
}

func TestChunk_MultibyteTextSplitsOnRuneBoundaries(t *testing.T) {
	c := newTestChunker()

	// CJK prose has none of the ASCII break markers, so every split
	// falls back to a hard cut. Those cuts must not tear runes apart.
	content := strings.Repeat("这个函数处理用户请求并返回结果。", 200)

	chunks := c.Chunk(content, Options{MaxChunkTokens: 100, OverlapTokens: 10})
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text), "chunk %d contains a torn rune", i)
		assert.NotEmpty(t, ch.Text)
		assert.LessOrEqual(t, ch.Tokens, 100)
		assert.Contains(t, content, ch.Text)
	}
}

func TestSnapToRuneStart(t *testing.T) {
	s := "ab界c"
	assert.Equal(t, 2, snapToRuneStart(s, 2), "rune starts are left alone")
	assert.Equal(t, 2, snapToRuneStart(s, 3), "continuation bytes snap back")
	assert.Equal(t, 2, snapToRuneStart(s, 4))
	assert.Equal(t, 5, snapToRuneStart(s, 5))
	assert.Equal(t, 0, snapToRuneStart("界", 0))
}
