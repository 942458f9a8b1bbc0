package constraint

import (
	"fmt"
	"strings"

	"github.com/roach88/asngen/internal/ir"
)

// Tree is a composite constraint: ordered children plus a Reduction.
type Tree struct {
	Name     string
	Reduce   Reduction
	Children []Constraint
}

// NewTree builds a tree from init.
//
// init may be nil (empty tree), a []Constraint, a single Constraint, or a
// *Tree. A *Tree initializer contributes a deep copy of its children and its
// own reduction; reduce is ignored in that case. Any other type is a
// StructuralError. A zero reduce defaults to All.
func NewTree(init any, reduce Reduction, name string) (*Tree, error) {
	if reduce.IsZero() {
		reduce = All
	}
	t := &Tree{Name: name, Reduce: reduce}

	switch v := init.(type) {
	case nil:
	case []Constraint:
		t.Children = v
	case *Tree:
		if v == nil {
			return nil, newUnsupportedTypeError(init)
		}
		t.Reduce = v.Reduce
		t.Children = cloneChildren(v.Children)
	case Constraint:
		t.Children = []Constraint{v}
	default:
		return nil, newUnsupportedTypeError(init)
	}
	return t, nil
}

// MustTree is like NewTree but panics on a StructuralError.
// Use only when the initializer is known to be valid.
func MustTree(init any, reduce Reduction, name string) *Tree {
	t, err := NewTree(init, reduce, name)
	if err != nil {
		panic(err)
	}
	return t
}

// AllOf builds an unnamed All tree over children.
func AllOf(children ...Constraint) *Tree {
	return &Tree{Reduce: All, Children: children}
}

// AnyOf builds an unnamed Any tree over children.
func AnyOf(children ...Constraint) *Tree {
	return &Tree{Reduce: Any, Children: children}
}

// Evaluate offers item to tree. It returns the new bound tree, or nil when
// the item was rejected, plus the reprocess entries to queue.
func Evaluate(item ir.Item, tree *Tree) (*Tree, []ir.ProcessList) {
	return tree.Check(item)
}

func (*Tree) sealed() {}

// ConstraintName implements Constraint.
func (t *Tree) ConstraintName() string { return t.Name }

// Evaluate implements Constraint.
func (t *Tree) Evaluate(item ir.Item) Result {
	match, reprocess := t.Check(item)
	if match == nil {
		return Result{Reprocess: reprocess}
	}
	return Result{Match: match, Reprocess: reprocess}
}

// Check evaluates every child against item and reduces the outcomes.
//
// On match the result is a deep copy of t with each individually matching
// child replaced by its bound version, and the reprocess entries of every
// child are returned.
//
// On no match, the first child that failed and produced reprocess entries
// decides: its entries are returned only if every other child's outcome
// reduces to a match, i.e. it was the sole obstacle. Otherwise nothing is
// returned. Children after the first such child are not considered.
func (t *Tree) Check(item ir.Item) (*Tree, []ir.ProcessList) {
	results := make([]Result, len(t.Children))
	matches := make([]bool, len(t.Children))
	for i, child := range t.Children {
		results[i] = child.Evaluate(item)
		matches[i] = results[i].Matched()
	}

	if !t.Reduce.apply(matches) {
		return nil, t.soleObstacleReprocess(results, matches)
	}

	bound := t.clone()
	var reprocess []ir.ProcessList
	for i, r := range results {
		if r.Matched() {
			bound.Children[i] = r.Match
		}
		reprocess = append(reprocess, r.Reprocess...)
	}
	return bound, reprocess
}

// soleObstacleReprocess implements the partial-failure tie-break.
// When several children fail at once no entries survive, even if some of
// them carried reprocess hints.
func (t *Tree) soleObstacleReprocess(results []Result, matches []bool) []ir.ProcessList {
	for i, r := range results {
		if matches[i] || len(r.Reprocess) == 0 {
			continue
		}
		others := make([]bool, 0, len(matches)-1)
		others = append(others, matches[:i]...)
		others = append(others, matches[i+1:]...)
		if t.Reduce.apply(others) {
			return r.Reprocess
		}
		return nil
	}
	return nil
}

// Leaves flattens the tree into its leaf constraints, depth-first.
func (t *Tree) Leaves() []Constraint {
	var out []Constraint
	for _, child := range t.Children {
		if sub, ok := child.(*Tree); ok {
			out = append(out, sub.Leaves()...)
			continue
		}
		out = append(out, child)
	}
	return out
}

// Lookup returns the first constraint named name, searching depth-first in
// child order. Subtrees are candidates as well as leaves. A missing name is
// a StructuralError with ErrCodeNotFound.
func (t *Tree) Lookup(name string) (Constraint, error) {
	if c := t.lookup(name); c != nil {
		return c, nil
	}
	return nil, newNotFoundError(name)
}

func (t *Tree) lookup(name string) Constraint {
	for _, child := range t.Children {
		if n := child.ConstraintName(); n != "" && n == name {
			return child
		}
		if sub, ok := child.(*Tree); ok {
			if found := sub.lookup(name); found != nil {
				return found
			}
		}
	}
	return nil
}

// Values returns the bound value of every named leaf, unescaped.
// When names repeat, the first depth-first leaf wins.
func (t *Tree) Values() map[string]string {
	out := make(map[string]string)
	for _, leaf := range t.Leaves() {
		name := leaf.ConstraintName()
		if name == "" {
			continue
		}
		if _, seen := out[name]; seen {
			continue
		}
		switch c := leaf.(type) {
		case *AttrConstraint:
			if v, ok := c.Bound(); ok {
				out[name] = v
			}
		case *ValueConstraint:
			if c.Value != nil {
				out[name] = *c.Value
			}
		}
	}
	return out
}

// FoundValues returns the distinct unescaped values matched by every named
// attribute leaf that has matched at least once.
func (t *Tree) FoundValues() map[string][]string {
	out := make(map[string][]string)
	for _, leaf := range t.Leaves() {
		c, ok := leaf.(*AttrConstraint)
		if !ok || c.Name == "" {
			continue
		}
		if _, seen := out[c.Name]; seen {
			continue
		}
		found := c.FoundValues()
		if len(found) == 0 {
			continue
		}
		vals := make([]string, len(found))
		for i, f := range found {
			vals[i] = Unescape(f)
		}
		out[c.Name] = vals
	}
	return out
}

// Clone implements Constraint.
func (t *Tree) Clone() Constraint {
	return t.clone()
}

func (t *Tree) clone() *Tree {
	return &Tree{
		Name:     t.Name,
		Reduce:   t.Reduce,
		Children: cloneChildren(t.Children),
	}
}

func cloneChildren(children []Constraint) []Constraint {
	if children == nil {
		return nil
	}
	out := make([]Constraint, len(children))
	for i, c := range children {
		out[i] = c.Clone()
	}
	return out
}

// String lists the named leaves, one per line.
func (t *Tree) String() string {
	var lines []string
	for _, leaf := range t.Leaves() {
		if leaf.ConstraintName() == "" {
			continue
		}
		lines = append(lines, leaf.String())
	}
	return strings.Join(lines, "\n")
}

// GoString renders the full structure including reductions.
func (t *Tree) GoString() string {
	parts := make([]string, len(t.Children))
	for i, c := range t.Children {
		if sub, ok := c.(*Tree); ok {
			parts[i] = sub.GoString()
			continue
		}
		parts[i] = c.String()
	}
	return fmt.Sprintf("Tree(name=%s).%s([%s])", t.Name, t.Reduce.Name, strings.Join(parts, " "))
}
