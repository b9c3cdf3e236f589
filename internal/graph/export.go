package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/symgen/internal/sym"
)

// NodeInfo is one row of a full-graph listing.
type NodeInfo struct {
	ID        sym.NodeID   `json:"id"`
	Canonical sym.NodeID   `json:"canonical"`
	Repr      string       `json:"repr"`
	Deps      []sym.NodeID `json:"deps"`
}

// Aliased reports whether the row was redirected by simplification.
func (n NodeInfo) Aliased() bool { return n.ID != n.Canonical }

// Snapshot lists every interned node in id order.
func Snapshot(src Source) []NodeInfo {
	out := make([]NodeInfo, src.Len())
	for i := range out {
		id := sym.NodeID(i)
		out[i] = NodeInfo{
			ID:        id,
			Canonical: src.Resolve(id),
			Repr:      src.Repr(id),
			Deps:      src.Deps(id),
		}
	}
	return out
}

// Export writes the node-per-line listing of src:
//
//	<id> <canonical> <repr> [<dep> ...]
func Export(w io.Writer, src Source) error {
	return WriteListing(w, Snapshot(src))
}

// WriteListing writes rows in the Export format.
func WriteListing(w io.Writer, rows []NodeInfo) error {
	bw := bufio.NewWriter(w)
	for _, n := range rows {
		deps := make([]string, len(n.Deps))
		for i, d := range n.Deps {
			deps[i] = strconv.Itoa(int(d))
		}
		fmt.Fprintf(bw, "%d %d %s [%s]\n", n.ID, n.Canonical, n.Repr, strings.Join(deps, " "))
	}
	return bw.Flush()
}

// WriteDOT writes the canonical nodes of src as a Graphviz digraph. Each
// label shows one level of the node with operands referenced by id; nodes
// named in inputs are drawn as boxes with their input name.
func WriteDOT(w io.Writer, src Source, inputs map[sym.NodeID]string) error {
	labels := make(map[sym.NodeID]string, src.Len())
	for i := 0; i < src.Len(); i++ {
		labels[sym.NodeID(i)] = strconv.Itoa(i)
	}
	named := make(map[sym.NodeID]string, len(inputs))
	for id, name := range inputs {
		named[src.Resolve(id)] = name
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph symgen {")
	for i := 0; i < src.Len(); i++ {
		id := sym.NodeID(i)
		if src.Resolve(id) != id {
			continue
		}
		label := src.RenderWith(id, labels)
		shape := ""
		if name, ok := named[id]; ok {
			label = name
			shape = " shape=box"
		}
		fmt.Fprintf(bw, "    n%d [label=%q%s];\n", id, strconv.Itoa(i)+"="+label, shape)
	}
	for i := 0; i < src.Len(); i++ {
		id := sym.NodeID(i)
		if src.Resolve(id) != id {
			continue
		}
		for _, d := range src.Deps(id) {
			fmt.Fprintf(bw, "    n%d -> n%d;\n", d, id)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
