package chunking

import (
	"regexp"
	"strings"
)

// contentClass is the coarse shape of an input, used to pick a
// boundary-detection strategy.
type contentClass int

const (
	classPlain contentClass = iota
	classCode
	classMarkdown
)

var (
	declPattern = regexp.MustCompile(`(?m)^\s*(func |function\s|def\s|class\s|interface\s|struct\s|impl\s|import\s|#include|package\s|module\s)`)
	// commentPattern matches line and block comment markers.
	commentPattern = regexp.MustCompile(`(?m)(^\s*//|^\s*#\s|/\*|^\s*--\s|^\s*\*\s)`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s`)
)

// classify decides whether content looks like code, structured text or
// plain prose. A couple of declaration-like lines, or one plus a
// comment marker, is enough to call it code; headings or fenced blocks
// make it structured text.
func classify(content string) contentClass {
	decls := len(declPattern.FindAllStringIndex(content, 3))
	switch {
	case decls >= 2:
		return classCode
	case decls == 1 && commentPattern.MatchString(content):
		return classCode
	}
	if headingPattern.MatchString(content) || strings.Contains(content, "```") {
		return classMarkdown
	}
	return classPlain
}
