package store

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/symgen/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run for kernel with two graph rows.
func createTestRun(id, kernel, hash string) (ir.Run, []ir.GraphNode) {
	code := fmt.Sprintf("// %s\n", kernel)
	run := ir.Run{
		ID:               id,
		Kernel:           kernel,
		KernelHash:       hash,
		Namespace:        "generated",
		ClassName:        "Kernel",
		NodeCount:        2,
		StatementCount:   1,
		Code:             code,
		CodeHash:         ir.CodeHash(code),
		GeneratorVersion: ir.GeneratorVersion,
		IRVersion:        ir.IRVersion,
	}
	nodes := []ir.GraphNode{
		{RunID: id, NodeID: 0, CanonicalID: 0, Repr: "x[0]", Deps: []int{}},
		{RunID: id, NodeID: 1, CanonicalID: 1, Repr: "sin(x[0])", Deps: []int{0}},
	}
	return run, nodes
}
