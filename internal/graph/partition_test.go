package graph

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symgen/internal/sym"
)

func TestParseStage(t *testing.T) {
	st, err := ParseStage("dynamic")
	require.NoError(t, err)
	assert.Equal(t, StageDynamic, st)
	assert.Equal(t, "dynamic", st.String())

	st, err = ParseStage("static")
	require.NoError(t, err)
	assert.Equal(t, StageStatic, st)

	_, err = ParseStage("per-call")
	assert.Error(t, err)
}

func TestPartition_StaticOutputWithDynamicDependency(t *testing.T) {
	s := sym.NewStore()
	x0 := s.Var("x0[0]")
	x1 := s.Var("x1[0]")
	y0 := x0.Mul(x1)
	y1 := y0.Diff(x0)
	require.True(t, y1.Equal(x1))

	plan, err := Partition(s,
		map[sym.NodeID]string{x0.ID(): "x0[0]"},
		map[sym.NodeID]string{x1.ID(): "x1[0]"},
		[]Binding{
			{Name: "y[0]", ID: y0.ID(), Stage: StageStatic},
			{Name: "y[1]", ID: y1.ID(), Stage: StageStatic},
		})
	require.NoError(t, err)

	assert.Empty(t, plan.StaticOutputs)
	assert.Len(t, plan.DynamicOutputs, 2)
	assert.Equal(t, []sym.NodeID{x0.ID()}, plan.Temps)
	assert.Equal(t, 1, plan.NumTemps())

	assert.Equal(t, []string{"_i[0] = x0[0];"}, lines(plan.Static))
	assert.Equal(t, []string{
		"y[0] = (_i[0]*x1[0]);",
		"y[1] = x1[0];",
	}, lines(plan.Dynamic))
}

func TestPartition_StaticSubexpressionCrossesOnce(t *testing.T) {
	s := sym.NewStore()
	p := s.Var("p[0]")
	q := s.Var("q[0]")
	sp := sym.Sin(p)
	y := sp.Mul(q)
	z := sym.Cos(p)

	plan, err := Partition(s,
		map[sym.NodeID]string{p.ID(): "p[0]"},
		map[sym.NodeID]string{q.ID(): "q[0]"},
		[]Binding{
			{Name: "y[0]", ID: y.ID(), Stage: StageDynamic},
			{Name: "z[0]", ID: z.ID(), Stage: StageStatic},
		})
	require.NoError(t, err)

	assert.Equal(t, []sym.NodeID{sp.ID()}, plan.Temps)
	assert.Equal(t, []string{
		"_i[0] = sin(p[0]);",
		"z[0] = cos(p[0]);",
	}, lines(plan.Static))
	assert.Equal(t, []string{"y[0] = (_i[0]*q[0]);"}, lines(plan.Dynamic))
}

func TestPartition_DeclaredDynamicStaticRoot(t *testing.T) {
	s := sym.NewStore()
	p := s.Var("p[0]")
	q := s.Var("q[0]")
	e := sym.Exp(p)

	plan, err := Partition(s,
		map[sym.NodeID]string{p.ID(): "p[0]"},
		map[sym.NodeID]string{q.ID(): "q[0]"},
		[]Binding{
			{Name: "y[0]", ID: e.ID(), Stage: StageDynamic},
			{Name: "y[1]", ID: s.Const(3).ID(), Stage: StageDynamic},
		})
	require.NoError(t, err)

	assert.Equal(t, []sym.NodeID{e.ID()}, plan.Temps)
	assert.Equal(t, []string{"_i[0] = exp(p[0]);"}, lines(plan.Static))
	assert.Equal(t, []string{
		"y[0] = _i[0];",
		"y[1] = 3.0;",
	}, lines(plan.Dynamic))
}

func TestPartition_UnsetOutput(t *testing.T) {
	s := sym.NewStore()
	_, err := Partition(s, nil, nil, []Binding{{Name: "J[3]", ID: sym.InvalidID}})
	assert.True(t, errors.Is(err, ErrUnsetOutput))
}

func TestExport_Listing(t *testing.T) {
	s := sym.NewStore()
	x := s.Var("x")
	s.Binary(sym.OpAdd, x.ID(), s.Constant(0))

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, s))
	assert.Equal(t, "0 0 x []\n1 1 0.0 []\n2 0 x []\n", buf.String())

	rows := Snapshot(s)
	require.Len(t, rows, 3)
	assert.True(t, rows[2].Aliased())
	assert.False(t, rows[0].Aliased())
}

func TestWriteDOT(t *testing.T) {
	s := sym.NewStore()
	x := s.Var("x")
	sym.Sin(x)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, s, map[sym.NodeID]string{x.ID(): "x"}))
	assert.Equal(t, `digraph symgen {
    n0 [label="0=x" shape=box];
    n1 [label="1=sin(0)"];
    n0 -> n1;
}
`, buf.String())
}
