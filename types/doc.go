// Package types defines the shared domain types of the context
// optimization engine: chunks, scored chunks, workflow steps and
// processing results. Types here are read-only after creation and safe
// to share across goroutines; no package in this module mutates a Chunk
// or Step it did not create.
package types
