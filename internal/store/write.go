package store

import (
	"context"
	"fmt"

	"github.com/roach88/symgen/internal/ir"
)

// WriteRun inserts a run and its graph rows in one transaction and returns
// the run with its assigned Seq.
//
// Writing a run id that already exists is a no-op that returns the stored
// run, so retrying a write is safe. Every node's RunID must match run.ID.
func (s *Store) WriteRun(ctx context.Context, run ir.Run, nodes []ir.GraphNode) (ir.Run, error) {
	for _, n := range nodes {
		if n.RunID != run.ID {
			return ir.Run{}, fmt.Errorf("write run: node %d belongs to run %q, not %q", n.NodeID, n.RunID, run.ID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Run{}, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM runs WHERE id = ?)`, run.ID).Scan(&exists); err != nil {
		return ir.Run{}, fmt.Errorf("write run: %w", err)
	}
	if exists {
		if err := tx.Commit(); err != nil {
			return ir.Run{}, fmt.Errorf("write run: commit: %w", err)
		}
		return s.GetRun(ctx, run.ID)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return ir.Run{}, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, kernel, kernel_hash, namespace, class_name, node_count, statement_count,
		 num_temps, code, code_hash, generator_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Kernel,
		run.KernelHash,
		run.Namespace,
		run.ClassName,
		run.NodeCount,
		run.StatementCount,
		run.NumTemps,
		run.Code,
		run.CodeHash,
		run.GeneratorVersion,
		run.IRVersion,
	)
	if err != nil {
		return ir.Run{}, fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO graph_nodes (run_id, node_id, canonical_id, repr, deps)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ir.Run{}, fmt.Errorf("write graph: prepare: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		deps, err := marshalDeps(n.Deps)
		if err != nil {
			return ir.Run{}, fmt.Errorf("write graph: node %d: %w", n.NodeID, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, n.NodeID, n.CanonicalID, n.Repr, deps); err != nil {
			return ir.Run{}, fmt.Errorf("write graph: node %d: %w", n.NodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ir.Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	s.logger.Debug("run written",
		"run_id", run.ID,
		"seq", run.Seq,
		"kernel", run.Kernel,
		"nodes", len(nodes))
	return run, nil
}
