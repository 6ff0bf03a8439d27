// Package contextmgr is the public entry point of the context
// optimization engine. A Manager orchestrates chunking, scoring,
// routing and caching for single tasks and multi-step chains, owns the
// budget and threshold configuration, and degrades every internal
// failure to returning the raw content instead of an error.
package contextmgr
