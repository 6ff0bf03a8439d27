// Package routing assigns scored chunks to workflow steps under
// per-step token budgets. Four interchangeable strategies cover the
// common chain shapes (independent steps, linear chains, dependency
// DAGs, mixed workloads); an automatic selector picks one from the
// steps' dependency structure when the caller does not. Cross-step
// reuse statistics are computed in a post-pass over the finished plan,
// since reuse cannot be known while a single step is planned.
package routing
