package ir

// Run records one code generation for a kernel.
// Seq is assigned by the store when the run is written and orders all runs.
type Run struct {
	ID               string `json:"id"`
	Seq              int64  `json:"seq"`
	Kernel           string `json:"kernel"`
	KernelHash       string `json:"kernel_hash"`
	Namespace        string `json:"namespace"`
	ClassName        string `json:"class_name"`
	NodeCount        int    `json:"node_count"`
	StatementCount   int    `json:"statement_count"`
	NumTemps         int    `json:"num_temps"`
	Code             string `json:"code"`
	CodeHash         string `json:"code_hash"`
	GeneratorVersion string `json:"generator_version"`
	IRVersion        string `json:"ir_version"`
}

// GraphNode is one persisted row of a run's expression graph listing.
// CanonicalID differs from NodeID when the node was aliased during
// simplification.
type GraphNode struct {
	RunID       string `json:"run_id"`
	NodeID      int    `json:"node_id"`
	CanonicalID int    `json:"canonical_id"`
	Repr        string `json:"repr"`
	Deps        []int  `json:"deps"`
}

// Aliased reports whether the node was redirected to another node.
func (n GraphNode) Aliased() bool {
	return n.NodeID != n.CanonicalID
}
