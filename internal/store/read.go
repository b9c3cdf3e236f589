package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/symgen/internal/ir"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, kernel, kernel_hash, namespace, class_name, node_count,
	statement_count, num_temps, code, code_hash, generator_version, ir_version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ir.Run, error) {
	var r ir.Run
	err := row.Scan(
		&r.ID,
		&r.Seq,
		&r.Kernel,
		&r.KernelHash,
		&r.Namespace,
		&r.ClassName,
		&r.NodeCount,
		&r.StatementCount,
		&r.NumTemps,
		&r.Code,
		&r.CodeHash,
		&r.GeneratorVersion,
		&r.IRVersion,
	)
	return r, err
}

// GetRun returns the run with the given id, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return ir.Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// FindRun returns the latest run of the current generator version whose
// kernel hash, namespace and class name all match. The bool is false when
// there is none.
func (s *Store) FindRun(ctx context.Context, kernelHash, namespace, className string) (ir.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE kernel_hash = ? AND namespace = ? AND class_name = ?
		  AND generator_version = ?
		ORDER BY seq DESC
		LIMIT 1
	`, kernelHash, namespace, className, ir.GeneratorVersion)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, false, nil
	}
	if err != nil {
		return ir.Run{}, false, fmt.Errorf("find run: %w", err)
	}
	return r, true, nil
}

// ListRuns returns runs in seq order, all of them or only those of one
// kernel when kernel is non-empty.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context, kernel string) ([]ir.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if kernel != "" {
		query += ` WHERE kernel = ?`
		args = append(args, kernel)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadGraph returns a run's graph rows ordered by node id.
//
// Returns an empty slice (not nil) if the run has no rows.
func (s *Store) ReadGraph(ctx context.Context, runID string) ([]ir.GraphNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, node_id, canonical_id, repr, deps
		FROM graph_nodes
		WHERE run_id = ?
		ORDER BY node_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query graph: %w", err)
	}
	defer rows.Close()

	nodes := []ir.GraphNode{}
	for rows.Next() {
		var n ir.GraphNode
		var deps string
		if err := rows.Scan(&n.RunID, &n.NodeID, &n.CanonicalID, &n.Repr, &deps); err != nil {
			return nil, fmt.Errorf("scan graph node: %w", err)
		}
		if n.Deps, err = unmarshalDeps(deps); err != nil {
			return nil, fmt.Errorf("graph node %d: %w", n.NodeID, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graph: %w", err)
	}
	return nodes, nil
}
