package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/symgen/internal/ir"
)

// Snapshot captures the deterministic part of a scenario result. It is
// rendered as canonical JSON next to the generated code in golden files.
type Snapshot struct {
	ScenarioName string
	RunID        string
	KernelHash   string
	CodeHash     string
	Stats        Stats
}

func (s Snapshot) toValue() ir.Object {
	return ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"run_id":        ir.String(s.RunID),
		"kernel_hash":   ir.String(s.KernelHash),
		"code_hash":     ir.String(s.CodeHash),
		"stats": ir.Object{
			"nodes":              ir.Int(s.Stats.Nodes),
			"static_statements":  ir.Int(s.Stats.StaticStatements),
			"dynamic_statements": ir.Int(s.Stats.DynamicStatements),
			"temps":              ir.Int(s.Stats.Temps),
		},
	}
}

// GoldenContent renders the golden file body for a result: the canonical
// JSON snapshot line followed by the generated code.
func GoldenContent(name string, result *Result) ([]byte, error) {
	snap := Snapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		KernelHash:   result.KernelHash,
		CodeHash:     ir.CodeHash(result.Code),
		Stats:        result.Stats,
	}
	header, err := ir.MarshalCanonical(snap.toValue())
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(header)+1+len(result.Code))
	out = append(out, header...)
	out = append(out, '\n')
	out = append(out, result.Code...)
	return out, nil
}

// RunWithGolden executes a scenario and compares its result against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	content, err := GoldenContent(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, content)

	return nil
}
