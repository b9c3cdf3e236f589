package compiler

import (
	"fmt"
	"strings"
)

// slotGraph maps each output slot to the output slots it reads.
// nodes keeps declaration order so that traversal, and with it node
// numbering in the generated code, is deterministic.
type slotGraph struct {
	nodes []string
	edges map[string][]string
}

func newSlotGraph() *slotGraph {
	return &slotGraph{edges: make(map[string][]string)}
}

func (g *slotGraph) addNode(name string) {
	if _, ok := g.edges[name]; ok {
		return
	}
	g.nodes = append(g.nodes, name)
	g.edges[name] = []string{}
}

// addEdge records that from reads to. Duplicate edges are dropped.
func (g *slotGraph) addEdge(from, to string) {
	for _, w := range g.edges[from] {
		if w == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Components are returned in reverse topological order of the edges: every
// component comes after the components it reads, which is a valid build
// order once there are no multi-slot cycles.
func tarjanSCC(g *slotGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleErrors reports every component spanning more than one slot.
// Self-loops are not reported here: a slot may read its own earlier
// elements, which the element check enforces.
func cycleErrors(g *slotGraph) []ValidationError {
	var errs []ValidationError
	for _, scc := range tarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		path := reconstructCyclePath(scc, g)
		errs = append(errs, ValidationError{
			Field:   "outputs." + path[0],
			Message: fmt.Sprintf("cyclic slot dependency: %s", strings.Join(path, " → ")),
			Code:    ErrSlotCycle,
		})
	}
	return errs
}

// buildOrder returns the output slots in an order where every slot follows
// the slots it reads. Only valid on an acyclic graph.
func buildOrder(g *slotGraph) []string {
	var order []string
	for _, scc := range tarjanSCC(g) {
		order = append(order, scc...)
	}
	return order
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Starts at the earliest declared member and follows edges to other
// members until it returns to the start.
func reconstructCyclePath(scc []string, g *slotGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	var start string
	for _, node := range g.nodes {
		if sccSet[node] {
			start = node
			break
		}
	}
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range g.edges[current] {
			if sccSet[neighbor] && neighbor != current && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}
