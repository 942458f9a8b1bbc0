package store

import "github.com/roach88/asngen/internal/ir"

// Run is the summary row of one generation run.
type Run struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"` // Assigned by WriteRun; runs are numbered 1, 2, ...

	// PoolSource names where the pool came from, usually a file path.
	PoolSource string `json:"pool_source"`

	// Rules are the rule names active in the run, in declaration order.
	Rules    []string `json:"rules"`
	MaxSteps int      `json:"max_steps"`

	Items        int `json:"items"`
	Associations int `json:"associations"`
	Orphans      int `json:"orphans"`
	Steps        int `json:"steps"`

	GeneratorVersion string `json:"generator_version"`
	SchemaVersion    string `json:"schema_version"`
}

// RunRecord is a run with its full input and output.
type RunRecord struct {
	Run          Run
	Pool         []ir.Item
	Associations []*ir.Association
	Orphans      []ir.Item
}
