package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Code     string // Generated code, shown for code assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Code != "" {
		fmt.Fprintf(&buf, "\nGenerated code:\n")
		for i, line := range strings.Split(strings.TrimRight(e.Code, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %3d | %s\n", i+1, line)
		}
	}

	return buf.String()
}

func assertCodeContains(result *Result, a Assertion) error {
	if strings.Contains(result.Code, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCodeContains,
		Expected: fmt.Sprintf("code containing %q", a.Text),
		Actual:   "fragment not found",
		Code:     result.Code,
	}
}

func assertStatementCount(result *Result, a Assertion) error {
	var got int
	label := "statements"
	switch a.Stage {
	case "static":
		got = result.Stats.StaticStatements
		label = "static statements"
	case "dynamic":
		got = result.Stats.DynamicStatements
		label = "dynamic statements"
	default:
		got = result.Stats.StaticStatements + result.Stats.DynamicStatements
	}
	return assertCount(AssertStatementCount, label, a.Count, got)
}

func assertCount(typ, label string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%d %s", want, label),
		Actual:   fmt.Sprintf("%d %s", got, label),
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCodeContains:
			err = assertCodeContains(result, assertion)
		case AssertStatementCount:
			err = assertStatementCount(result, assertion)
		case AssertTempCount:
			err = assertCount(AssertTempCount, "temporaries", assertion.Count, result.Stats.Temps)
		case AssertNodeCount:
			err = assertCount(AssertNodeCount, "nodes", assertion.Count, result.Stats.Nodes)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
