// Package constraint implements the constraint evaluation engine.
//
// A rule is a Tree of Constraints. Offering an item to a Tree evaluates every
// child, reduces the child outcomes with the tree's Reduction, and returns
// either a new bound Tree (on match) or nil, together with any reprocess
// entries the evaluation produced.
//
// EVALUATION MODEL:
//
// Copy-on-match:
// Evaluation never mutates the receiver. A successful match returns a fresh
// constraint with the observed values bound in; a rejection returns nil and
// leaves the template untouched, so the same template can be offered the
// next candidate item.
//
// Binding:
// An open AttrConstraint (no Value, or ForceUnique set) binds the first value
// it matches as an escaped literal and clears ForceUnique. Every later item
// offered to that lineage must carry the same literal (case-insensitive).
//
// Reprocessing:
// Leaves may return ir.ProcessList entries describing alternative items to
// try later, e.g. one copy per element of a multi-valued attribute. A Tree
// that does not match keeps only the entries of the first failing child that
// produced any, and only when every other child matched.
//
// CONCURRENCY:
//
// Evaluate is a pure function of (constraint, item). Templates can be shared
// across goroutines; a single lineage must be evaluated sequentially because
// each step depends on the previous step's binding.
package constraint
