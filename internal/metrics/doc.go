// Package metrics provides prometheus instrumentation for the context
// engine. This package is internal and should not be imported by
// external projects.
package metrics
