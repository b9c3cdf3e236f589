package harness

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultTolerance is the absolute tolerance used when a scenario sets none.
const DefaultTolerance = 1e-12

// DefaultRunID is the run id used when a scenario sets none, so golden code
// and stored runs are identical across executions.
const DefaultRunID = "test-run"

// Scenario defines a numeric conformance scenario for one kernel.
// The kernel is instantiated, its inputs assigned, and every expected output
// compared element-wise within Tolerance.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Kernels is the directory holding the CUE kernel definitions.
	// Relative paths are resolved against the scenario's base path.
	Kernels string `yaml:"kernels,omitempty"`

	// Kernel names the kernel under test. May be empty when the kernels
	// directory defines exactly one kernel.
	Kernel string `yaml:"kernel,omitempty"`

	// RunID fixes the generation run id.
	RunID string `yaml:"run_id,omitempty"`

	// Inputs assigns every input slot of the kernel.
	Inputs map[string][]float64 `yaml:"inputs"`

	// Expect lists expected values of output slots. Slots not listed are
	// not checked.
	Expect map[string][]float64 `yaml:"expect"`

	// Tolerance is the absolute tolerance of value comparisons.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Assertions validate the generated code and schedule.
	// Supported types: code_contains, statement_count, temp_count, node_count
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates a property of the generation run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "code_contains": generated code contains Text
	// - "statement_count": Stage ("static", "dynamic" or empty for both)
	//   emits exactly Count statements
	// - "temp_count": exactly Count cross-stage temporaries
	// - "node_count": the store holds exactly Count nodes
	Type string `yaml:"type"`

	// Text is the expected code fragment (used by code_contains).
	Text string `yaml:"text,omitempty"`

	// Stage selects the schedule (used by statement_count).
	Stage string `yaml:"stage,omitempty"`

	// Count is the expected number (used by the *_count types).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCodeContains   = "code_contains"
	AssertStatementCount = "statement_count"
	AssertTempCount      = "temp_count"
	AssertNodeCount      = "node_count"
)

// LoadScenario reads and parses a scenario YAML file. A relative kernels
// directory is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return load(path, filepath.Dir(path), false)
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file, resolving
// a relative kernels directory against basePath. A scenario without a
// kernels field uses basePath itself.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	return load(path, basePath, true)
}

func load(path, basePath string, defaultToBase bool) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	switch {
	case scenario.Kernels == "" && defaultToBase:
		scenario.Kernels = basePath
	case scenario.Kernels != "" && !filepath.IsAbs(scenario.Kernels) && basePath != "":
		scenario.Kernels = filepath.Join(basePath, scenario.Kernels)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Kernels == "" {
		return fmt.Errorf("kernels directory is required")
	}
	if info, err := os.Stat(s.Kernels); err != nil || !info.IsDir() {
		return fmt.Errorf("kernels directory not found: %s", s.Kernels)
	}
	if len(s.Inputs) == 0 {
		return fmt.Errorf("inputs map is required and must be non-empty")
	}
	if len(s.Expect) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	if s.Tolerance < 0 || math.IsNaN(s.Tolerance) || math.IsInf(s.Tolerance, 0) {
		return fmt.Errorf("tolerance must be a finite non-negative number")
	}

	for _, name := range sortedKeys(s.Inputs) {
		if err := checkValues("inputs."+name, s.Inputs[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(s.Expect) {
		if err := checkValues("expect."+name, s.Expect[name]); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func checkValues(field string, vals []float64) error {
	if len(vals) == 0 {
		return fmt.Errorf("%s: at least one value is required", field)
	}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s[%d]: value must be finite", field, i)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCodeContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for code_contains", index)
		}
	case AssertStatementCount:
		if a.Stage != "" && a.Stage != "static" && a.Stage != "dynamic" {
			return fmt.Errorf("assertions[%d]: invalid stage %q (must be static or dynamic)", index, a.Stage)
		}
		fallthrough
	case AssertTempCount, AssertNodeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// tolerance returns the configured tolerance or DefaultTolerance.
func (s *Scenario) tolerance() float64 {
	if s.Tolerance == 0 {
		return DefaultTolerance
	}
	return s.Tolerance
}

// runID returns the configured run id or DefaultRunID.
func (s *Scenario) runID() string {
	if s.RunID == "" {
		return DefaultRunID
	}
	return s.RunID
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
