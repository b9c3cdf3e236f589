// Package harness runs numeric conformance scenarios against symgen kernels.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: pendulum-values
//	description: "Tip position at a fixed pose"
//	kernels: ../kernels        # optional, defaults to the base path
//	kernel: pendulum           # optional when only one kernel is defined
//	run_id: scenario-pendulum  # optional, defaults to "test-run"
//	inputs:
//	  p: [2, 3]
//	  q: [0.5, 0.25]
//	expect:
//	  y: [0.958851077208406, 2.9067372651319343]
//	tolerance: 1e-12           # optional absolute tolerance
//	assertions:
//	  - type: code_contains
//	    text: "class Pendulum {"
//	  - type: statement_count
//	    stage: dynamic
//	    count: 7
//
// Every input slot must be assigned. Unknown YAML fields are rejected.
//
// # Assertion Types
//
//   - code_contains: the generated code contains text
//   - statement_count: a stage (or both) emits exactly count statements
//   - temp_count: exactly count cross-stage temporaries
//   - node_count: the persisted graph has exactly count nodes
//
// # Deterministic Testing
//
// Each scenario runs with a fixed run id in a fresh in-memory SQLite store,
// so the generated code, the stored run and the golden snapshot are
// identical across runs.
package harness
