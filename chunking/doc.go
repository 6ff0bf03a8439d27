// Package chunking splits unbounded content strings into ordered,
// token-bounded chunks. Structural boundaries (declarations in code,
// headings in markdown-like text) are preserved where possible before
// falling back to size-based splitting with overlap. Detection is
// heuristic and language-agnostic; no syntax tree is built.
package chunking
