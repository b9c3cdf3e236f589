// Package testutil provides deterministic helpers for tests and the
// conformance harness.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs generates run ids run-0001, run-0002, ...
//
// Unlike engine.FixedGenerator it never runs out, and it can be reset so
// the same scenario produces identical ids on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialRunIDs struct {
	mu  sync.Mutex
	seq int
}

// NewSequentialRunIDs creates a generator whose first id is run-0001.
func NewSequentialRunIDs() *SequentialRunIDs {
	return &SequentialRunIDs{}
}

// Generate returns the next run id.
//
// Implements engine.RunIDGenerator.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("run-%04d", g.seq)
}

// Reset restarts the sequence at run-0001.
func (g *SequentialRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedRunID returns the same run id every time.
//
// The harness uses it so that a scenario's run id comes from its YAML:
//
//	run_id: "scenario-pendulum"
//
// If id is empty, Generate returns "test-run".
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run id generator.
func NewFixedRunID(id string) FixedRunID {
	if id == "" {
		id = "test-run"
	}
	return FixedRunID{id: id}
}

// Generate returns the fixed id.
func (g FixedRunID) Generate() string {
	return g.id
}
