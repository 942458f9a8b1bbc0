package constraint

import (
	"github.com/roach88/asngen/internal/ir"
)

// Constraint is a node of a constraint tree.
//
// The implementations are closed: *AttrConstraint, *ValueConstraint,
// *TrueConstraint and *Tree.
type Constraint interface {
	// ConstraintName returns the optional name, or "" if unnamed.
	ConstraintName() string

	// Evaluate tests item against the constraint without mutating the receiver.
	Evaluate(item ir.Item) Result

	// Clone returns a deep copy.
	Clone() Constraint

	// String renders the constraint for logs and association summaries.
	String() string

	sealed()
}

// Result is the outcome of evaluating one constraint against one item.
//
// Match is nil when the item was rejected. Reprocess may be non-empty in
// either case.
type Result struct {
	Match     Constraint
	Reprocess []ir.ProcessList
}

// Matched reports whether the constraint accepted the item.
func (r Result) Matched() bool {
	return r.Match != nil
}

// rejected is the plain no-match result.
func rejected() Result {
	return Result{}
}

// Reduction folds the per-child match outcomes of a Tree into one boolean.
type Reduction struct {
	Name string
	Fn   func(matches []bool) bool
}

var (
	// All matches when every child matched.
	All = Reduction{Name: "all", Fn: allTrue}

	// Any matches when at least one child matched.
	Any = Reduction{Name: "any", Fn: anyTrue}
)

// Custom wraps a user-supplied reduction function.
func Custom(name string, fn func(matches []bool) bool) Reduction {
	return Reduction{Name: name, Fn: fn}
}

// IsZero reports whether the reduction is unset.
func (r Reduction) IsZero() bool {
	return r.Fn == nil
}

func (r Reduction) apply(matches []bool) bool {
	if r.Fn == nil {
		return allTrue(matches)
	}
	return r.Fn(matches)
}

func allTrue(matches []bool) bool {
	for _, m := range matches {
		if !m {
			return false
		}
	}
	return true
}

func anyTrue(matches []bool) bool {
	for _, m := range matches {
		if m {
			return true
		}
	}
	return false
}
