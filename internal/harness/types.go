package harness

import "fmt"

// Stats summarises the generation run of a scenario.
type Stats struct {
	Nodes             int `json:"nodes"`
	StaticStatements  int `json:"static_statements"`
	DynamicStatements int `json:"dynamic_statements"`
	Temps             int `json:"temps"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expected value matched and
	// every assertion held.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RunID and Seq identify the run persisted in the scenario's store.
	RunID string `json:"run_id"`
	Seq   int64  `json:"seq"`

	// KernelHash is the content hash of the kernel under test.
	KernelHash string `json:"kernel_hash"`

	// Values holds the evaluated outputs, keyed by slot name.
	Values map[string][]float64 `json:"values"`

	// Code is the generated C++ source, used for golden comparison.
	Code string `json:"-"`

	Stats Stats `json:"stats"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Values: make(map[string][]float64),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddErrorf formats and adds a validation error.
func (r *Result) AddErrorf(format string, args ...any) {
	r.AddError(fmt.Sprintf(format, args...))
}
