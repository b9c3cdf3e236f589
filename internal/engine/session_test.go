package engine

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symgen/internal/graph"
	"github.com/roach88/symgen/internal/sym"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(WithLogger(logger), WithRunIDs(NewFixedGenerator("run-1", "run-2")))
}

func TestSession_EndToEndValues(t *testing.T) {
	tests := []struct {
		name  string
		build func(x *Input) sym.Expr
		want  float64
	}{
		{"sum", func(x *Input) sym.Expr { return x.At(0).Add(x.At(1)) }, 3},
		{"difference", func(x *Input) sym.Expr { return x.At(0).Sub(x.At(1)).Sub(x.At(2)) }, -4},
		{"product", func(x *Input) sym.Expr { return x.At(0).Mul(x.At(1)).Mul(x.At(2)) }, 6},
		{"quotient", func(x *Input) sym.Expr { return x.At(0).Div(x.At(1)) }, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			x, err := s.AddInput("x", 3, graph.StageDynamic)
			require.NoError(t, err)
			y, err := s.AddOutput("y", 1, graph.StageDynamic)
			require.NoError(t, err)

			y.Set(0, tt.build(x))
			require.NoError(t, x.Assign(1, 2, 3))

			vals, err := s.Evaluate(y)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, vals[0], 1e-16)
		})
	}
}

func TestSession_GenerateTwoStageGolden(t *testing.T) {
	s := newTestSession(t)
	x0, err := s.AddInput("x0", 1, graph.StageStatic)
	require.NoError(t, err)
	x1, err := s.AddInput("x1", 1, graph.StageDynamic)
	require.NoError(t, err)
	y, err := s.AddOutput("y", 2, graph.StageStatic)
	require.NoError(t, err)

	y.Set(0, x0.At(0).Mul(x1.At(0)))
	d, err := s.Diff(y.At(0), x0.At(0))
	require.NoError(t, err)
	y.Set(1, d)

	art, err := s.Generate(CodeOptions{Namespace: "my_namespace", ClassName: "MyClass"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", art.RunID)
	assert.Equal(t, 1, art.StaticStatements)
	assert.Equal(t, 2, art.DynamicStatements)
	assert.Equal(t, 3, art.Statements())
	assert.Equal(t, 1, art.NumTemps)
	assert.Equal(t, s.Store().Len(), len(art.Nodes))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "two_stage_session", []byte(art.Code))
}

func TestSession_GenerateDefaults(t *testing.T) {
	s := newTestSession(t)
	q, err := s.AddInput("q", 1, graph.StageDynamic)
	require.NoError(t, err)
	y, err := s.AddOutput("y", 1, graph.StageDynamic)
	require.NoError(t, err)
	y.Set(0, sym.Cos(q.At(0)))

	art, err := s.Generate(CodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, art.Namespace)
	assert.Equal(t, DefaultClassName, art.ClassName)
	assert.Contains(t, art.Code, "namespace generated {")
	assert.Contains(t, art.Code, "    void operator()(ProbeScalar *q, ProbeScalar *y) {\n        y[0] = cos(q[0]);\n    }\n")
}

func TestSession_OutputNotSet(t *testing.T) {
	s := newTestSession(t)
	q, err := s.AddInput("q", 2, graph.StageDynamic)
	require.NoError(t, err)
	y, err := s.AddOutput("y", 3, graph.StageDynamic)
	require.NoError(t, err)
	y.Set(1, q.At(0))

	_, err = s.Generate(CodeOptions{})
	require.Error(t, err)
	assert.True(t, IsOutputNotSet(err))

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "y[0],y[2]", ge.Details["slots"])
	assert.Equal(t, "y[0]", ge.Slot)

	var buf bytes.Buffer
	assert.True(t, IsOutputNotSet(s.ExportGraph(&buf)))
	assert.True(t, IsOutputNotSet(s.WriteDOT(&buf)))
	assert.Zero(t, buf.Len(), "nothing is written before validation passes")

	_, err = s.Evaluate(y)
	assert.True(t, IsOutputNotSet(err))
}

func TestSession_SlotDeclarationErrors(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddInput("q", 2, graph.StageDynamic)
	require.NoError(t, err)

	_, err = s.AddOutput("q", 1, graph.StageDynamic)
	assert.True(t, IsDuplicateSlot(err))

	_, err = s.AddInput("p", 0, graph.StageStatic)
	assert.True(t, IsSizeMismatch(err))

	_, err = s.AddInput("_i", 1, graph.StageStatic)
	assert.True(t, IsConstructionFailed(err))

	_, err = s.AddOutput("y[0]", 1, graph.StageStatic)
	assert.True(t, IsConstructionFailed(err))
}

func TestSession_AssignSizeMismatch(t *testing.T) {
	s := newTestSession(t)
	q, err := s.AddInput("q", 2, graph.StageDynamic)
	require.NoError(t, err)

	err = q.Assign(1, 2, 3)
	assert.True(t, IsSizeMismatch(err))

	_, err = q.Matrix(3, 1)
	assert.True(t, IsSizeMismatch(err))
}

func TestSession_ConstructionPanicsBecomeErrors(t *testing.T) {
	s := newTestSession(t)
	other := newTestSession(t)
	q, err := s.AddInput("q", 1, graph.StageDynamic)
	require.NoError(t, err)
	p, err := other.AddInput("p", 1, graph.StageDynamic)
	require.NoError(t, err)

	_, err = s.Const(math.Inf(1))
	assert.True(t, IsConstructionFailed(err))
	assert.True(t, sym.IsCode(err, sym.ErrCodeNonFinite), "the store error stays reachable")

	_, err = s.Diff(q.At(0), p.At(0))
	assert.True(t, IsConstructionFailed(err))

	y, err := s.AddOutput("y", 1, graph.StageDynamic)
	require.NoError(t, err)
	y.Set(0, p.At(0))
	assert.True(t, IsConstructionFailed(s.Validate()))
}

func TestSession_Jacobian(t *testing.T) {
	s := newTestSession(t)
	q, err := s.AddInput("q", 2, graph.StageDynamic)
	require.NoError(t, err)
	f, err := s.AddOutput("f", 2, graph.StageDynamic)
	require.NoError(t, err)
	J, err := s.AddOutput("J", 4, graph.StageDynamic)
	require.NoError(t, err)

	require.True(t, IsOutputNotSet(s.Jacobian(J, f, q)))

	f.Set(0, q.At(0).Mul(q.At(1)))
	f.Set(1, sym.Sin(q.At(0)))
	require.NoError(t, s.Jacobian(J, f, q))

	got := make([]string, J.Len())
	for i := range got {
		got[i] = J.At(i).String()
	}
	assert.Equal(t, []string{"q[1]", "q[0]", "cos(q[0])", "0.0"}, got)

	small, err := s.AddOutput("small", 3, graph.StageDynamic)
	require.NoError(t, err)
	assert.True(t, IsSizeMismatch(s.Jacobian(small, f, q)))
}

func TestSession_ExportGraph(t *testing.T) {
	s := newTestSession(t)
	q, err := s.AddInput("q", 1, graph.StageDynamic)
	require.NoError(t, err)
	y, err := s.AddOutput("y", 1, graph.StageDynamic)
	require.NoError(t, err)
	y.Set(0, sym.Exp(q.At(0)))

	var buf bytes.Buffer
	require.NoError(t, s.ExportGraph(&buf))
	assert.Equal(t, "0 0 q[0] []\n1 1 exp(q[0]) [0]\n", buf.String())

	buf.Reset()
	require.NoError(t, s.WriteDOT(&buf))
	assert.Contains(t, buf.String(), `n0 [label="0=q[0]" shape=box];`)
	assert.Contains(t, buf.String(), "n0 -> n1;")
}

func TestSession_Lookup(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddInput("q", 1, graph.StageDynamic)
	require.NoError(t, err)
	_, err = s.AddOutput("y", 1, graph.StageStatic)
	require.NoError(t, err)

	in, ok := s.Input("q")
	require.True(t, ok)
	assert.Equal(t, "q[0]", in.ElementName(0))
	_, ok = s.Input("y")
	assert.False(t, ok)

	out, ok := s.Output("y")
	require.True(t, ok)
	assert.Equal(t, graph.StageStatic, out.Stage)
	assert.Len(t, s.Inputs(), 1)
	assert.Len(t, s.Outputs(), 1)
}
