// Package store provides SQLite-backed storage for symgen generation runs.
//
// Each run records the generated code for one kernel, keyed by the kernel's
// content hash, together with the full expression graph listing of the
// session that produced it:
//   - runs: one row per generation, with the code and its hash
//   - graph_nodes: one row per interned node (id, canonical id, repr, deps)
//
// A run can be reused when a later generation has the same kernel hash,
// namespace and class name; see FindRun.
//
// # Ordering
//
//   - Runs are ordered by seq INTEGER (logical clock), NEVER timestamps
//   - Graph rows are ordered by node_id, matching the in-memory listing
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Kernel and code hashes are computed in internal/ir using RFC 8785
// canonical JSON and SHA-256 with domain separation.
package store
