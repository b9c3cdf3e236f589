package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsResult() *Result {
	r := NewResult()
	r.Code = "class Kernel {\n    y[0] = (x[0]*x[0]);\n};\n"
	r.Stats = Stats{Nodes: 2, StaticStatements: 1, DynamicStatements: 3, Temps: 1}
	return r
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	errs := EvaluateAssertions(statsResult(), []Assertion{
		{Type: AssertCodeContains, Text: "y[0] = (x[0]*x[0]);"},
		{Type: AssertStatementCount, Stage: "static", Count: 1},
		{Type: AssertStatementCount, Stage: "dynamic", Count: 3},
		{Type: AssertStatementCount, Count: 4},
		{Type: AssertTempCount, Count: 1},
		{Type: AssertNodeCount, Count: 2},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	errs := EvaluateAssertions(statsResult(), []Assertion{
		{Type: AssertCodeContains, Text: "class Kernel {"},
		{Type: AssertStatementCount, Stage: "dynamic", Count: 2},
		{Type: AssertTempCount, Count: 0},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Expected: 2 dynamic statements")
	assert.Contains(t, errs[0], "Actual: 3 dynamic statements")
	assert.Contains(t, errs[1], "Expected: 0 temporaries")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(statsResult(), []Assertion{{Type: "final_state"}})
	require.Len(t, errs, 1)
	assert.Equal(t, `assertion[0]: unknown assertion type "final_state"`, errs[0])
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := assertCodeContains(statsResult(), Assertion{Type: AssertCodeContains, Text: "refresh()"})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: code_contains")
	assert.Contains(t, msg, `Expected: code containing "refresh()"`)
	assert.Contains(t, msg, "Actual: fragment not found")
	assert.Contains(t, msg, "Generated code:")
	assert.Contains(t, msg, "    1 | class Kernel {")

	plain := (&AssertionError{Type: AssertTempCount, Expected: "1", Actual: "2"}).Error()
	assert.NotContains(t, plain, "Generated code:")
}
