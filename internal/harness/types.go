package harness

import "github.com/roach88/asngen/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Associations and Orphans are the generated output.
	// Both are empty when generation failed.
	Associations []*ir.Association `json:"associations"`
	Orphans      []ir.Item         `json:"orphans"`

	// Steps is the number of item offers the engine processed.
	Steps int `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:         true,
		Associations: []*ir.Association{},
		Orphans:      []ir.Item{},
		Errors:       []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
