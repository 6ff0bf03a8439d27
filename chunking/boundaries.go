package chunking

import (
	"regexp"
	"strings"

	"github.com/itheroservices-hub/hybridmind-sub004/types"
)

// boundary is a structurally coherent span of the input, detected
// before any size limit is applied.
type boundary struct {
	text string
	kind types.ChunkKind
}

var (
	classDeclPattern  = regexp.MustCompile(`^\s*(class\s|interface\s|struct\s|impl\s|type\s+\w+\s+(struct|interface))`)
	funcDeclPattern   = regexp.MustCompile(`^\s*(func\s|function\s|def\s|fn\s|public\s+\w|private\s+\w|protected\s+\w|static\s+\w)`)
	methodReceiverPat = regexp.MustCompile(`^\s*func\s+\(`)
)

// declKind classifies a declaration line. Indented function-like
// declarations and Go receiver functions count as methods.
func declKind(line string) (types.ChunkKind, bool) {
	switch {
	case classDeclPattern.MatchString(line):
		return types.KindClass, true
	case methodReceiverPat.MatchString(line):
		return types.KindMethod, true
	case funcDeclPattern.MatchString(line):
		if line != strings.TrimLeft(line, " \t") {
			return types.KindMethod, true
		}
		return types.KindFunction, true
	}
	return "", false
}

// codeBoundaries scans for declaration-like lines and tracks brace
// balance: a boundary runs from its declaration line until brace depth
// returns to zero. Content before the first declaration, and content
// with no declarations at all, becomes a single block boundary.
func codeBoundaries(content string) []boundary {
	lines := strings.Split(content, "\n")

	var out []boundary
	var current []string
	currentKind := types.KindBlock
	inDecl := false
	depth := 0
	sawBrace := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, "\n")
		if strings.TrimSpace(text) != "" {
			out = append(out, boundary{text: text, kind: currentKind})
		}
		current = current[:0]
	}

	for _, line := range lines {
		kind, isDecl := declKind(line)

		if isDecl && (!inDecl || (depth == 0 && sawBrace)) {
			// New top-level declaration: close whatever is open.
			flush()
			currentKind = kind
			inDecl = true
			depth = 0
			sawBrace = false
		} else if isDecl && inDecl && depth == 0 && !sawBrace {
			// Brace-less declaration body (e.g. Python): a new
			// declaration line ends the previous boundary.
			flush()
			currentKind = kind
		}

		current = append(current, line)
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if strings.Contains(line, "{") {
			sawBrace = true
		}
		if inDecl && sawBrace && depth <= 0 {
			flush()
			currentKind = types.KindBlock
			inDecl = false
			depth = 0
			sawBrace = false
		}
	}
	flush()

	if len(out) == 0 {
		return []boundary{{text: content, kind: types.KindBlock}}
	}
	return out
}

// sectionBoundaries splits markdown-like text at heading lines. Heading
// markers inside fenced code blocks are ignored. Content before the
// first heading becomes a block boundary.
func sectionBoundaries(content string) []boundary {
	lines := strings.Split(content, "\n")

	var out []boundary
	var current []string
	currentKind := types.KindBlock
	inFence := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, "\n")
		if strings.TrimSpace(text) != "" {
			out = append(out, boundary{text: text, kind: currentKind})
		}
		current = current[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence && headingPattern.MatchString(line) {
			flush()
			currentKind = types.KindSection
		}
		current = append(current, line)
	}
	flush()

	if len(out) == 0 {
		return []boundary{{text: content, kind: types.KindBlock}}
	}
	return out
}
