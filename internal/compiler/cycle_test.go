package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func graphOf(nodes []string, edges map[string][]string) *slotGraph {
	g := newSlotGraph()
	for _, n := range nodes {
		g.addNode(n)
	}
	for _, n := range nodes {
		for _, w := range edges[n] {
			g.addEdge(n, w)
		}
	}
	return g
}

func TestSlotGraph_AddEdgeDedup(t *testing.T) {
	g := newSlotGraph()
	g.addNode("a")
	g.addNode("a")
	g.addEdge("a", "b")
	g.addEdge("a", "b")

	assert.Equal(t, []string{"a"}, g.nodes)
	assert.Equal(t, []string{"b"}, g.edges["a"])
}

func TestBuildOrder_DependenciesFirst(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges map[string][]string
		want  []string
	}{
		{"independent", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"chain declared backwards", []string{"z", "J", "y"}, map[string][]string{"z": {"J"}, "J": {"y"}}, []string{"y", "J", "z"}},
		{"diamond", []string{"d", "b", "c", "a"}, map[string][]string{"d": {"b", "c"}, "b": {"a"}, "c": {"a"}}, []string{"a", "b", "c", "d"}},
		{"self loop", []string{"y"}, map[string][]string{"y": {"y"}}, []string{"y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graphOf(tt.nodes, tt.edges)
			assert.Empty(t, cycleErrors(g))
			assert.Equal(t, tt.want, buildOrder(g))
		})
	}
}

func TestBuildOrder_Deterministic(t *testing.T) {
	nodes := []string{"e", "d", "c", "b", "a"}
	edges := map[string][]string{"e": {"a", "b"}, "d": {"c"}}

	first := buildOrder(graphOf(nodes, edges))
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, buildOrder(graphOf(nodes, edges)))
	}
}

func TestCycleErrors(t *testing.T) {
	t.Run("two slots", func(t *testing.T) {
		g := graphOf([]string{"a", "b", "c"}, map[string][]string{"a": {"b"}, "b": {"a"}, "c": {"a"}})
		errs := cycleErrors(g)
		if assert.Len(t, errs, 1) {
			assert.Equal(t, ErrSlotCycle, errs[0].Code)
			assert.Contains(t, errs[0].Message, "a → b → a")
		}
	})

	t.Run("three slots", func(t *testing.T) {
		g := graphOf([]string{"x", "y", "z"}, map[string][]string{"x": {"y"}, "y": {"z"}, "z": {"x"}})
		errs := cycleErrors(g)
		if assert.Len(t, errs, 1) {
			assert.Contains(t, errs[0].Message, "x → y → z → x")
		}
	})

	t.Run("two separate cycles", func(t *testing.T) {
		g := graphOf([]string{"a", "b", "c", "d"}, map[string][]string{"a": {"b"}, "b": {"a"}, "c": {"d"}, "d": {"c"}})
		assert.Len(t, cycleErrors(g), 2)
	})
}

func TestReconstructCyclePath_Empty(t *testing.T) {
	assert.Equal(t, []string{}, reconstructCyclePath(nil, newSlotGraph()))
}
