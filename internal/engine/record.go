package engine

import (
	"github.com/roach88/symgen/internal/graph"
	"github.com/roach88/symgen/internal/ir"
	"github.com/roach88/symgen/internal/sym"
)

// Record converts the artifact into the run record and graph rows the
// store persists. Seq is left zero for the store to assign.
func (a *Artifact) Record(kernel, kernelHash string) (ir.Run, []ir.GraphNode) {
	run := ir.Run{
		ID:               a.RunID,
		Kernel:           kernel,
		KernelHash:       kernelHash,
		Namespace:        a.Namespace,
		ClassName:        a.ClassName,
		NodeCount:        len(a.Nodes),
		StatementCount:   a.Statements(),
		NumTemps:         a.NumTemps,
		Code:             a.Code,
		CodeHash:         ir.CodeHash(a.Code),
		GeneratorVersion: ir.GeneratorVersion,
		IRVersion:        ir.IRVersion,
	}
	nodes := make([]ir.GraphNode, len(a.Nodes))
	for i, n := range a.Nodes {
		nodes[i] = ir.GraphNode{
			RunID:       a.RunID,
			NodeID:      int(n.ID),
			CanonicalID: int(n.Canonical),
			Repr:        n.Repr,
			Deps:        nodeIDs(n.Deps),
		}
	}
	return run, nodes
}

// NodeInfos converts stored graph rows back into listing rows, for
// graph.WriteListing.
func NodeInfos(nodes []ir.GraphNode) []graph.NodeInfo {
	out := make([]graph.NodeInfo, len(nodes))
	for i, n := range nodes {
		deps := make([]sym.NodeID, len(n.Deps))
		for j, d := range n.Deps {
			deps[j] = sym.NodeID(d)
		}
		out[i] = graph.NodeInfo{
			ID:        sym.NodeID(n.NodeID),
			Canonical: sym.NodeID(n.CanonicalID),
			Repr:      n.Repr,
			Deps:      deps,
		}
	}
	return out
}

func nodeIDs(ids []sym.NodeID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
