package constraint

import (
	"fmt"

	"github.com/roach88/asngen/internal/ir"
)

// ValueConstraint is a free-form value test.
//
// Source projects the item to the value under test (default: ir.Item.Text).
// With no Value set every item matches; with Value set the item matches when
// Test(Value, projected) holds (default: equality). On a match with
// ForceUnique the returned constraint has Value bound to the projected value.
type ValueConstraint struct {
	Name        string
	Value       *string
	ForceUnique bool
	Test        func(want, got string) bool
	Source      func(item ir.Item) string
}

// NewValueConstraint returns an open value constraint with ForceUnique set.
func NewValueConstraint(name string) *ValueConstraint {
	return &ValueConstraint{Name: name, ForceUnique: true}
}

// WithValue returns a copy of c targeting value.
func (c *ValueConstraint) WithValue(value string) *ValueConstraint {
	out := c.clone()
	out.Value = &value
	return out
}

func (*ValueConstraint) sealed() {}

// ConstraintName implements Constraint.
func (c *ValueConstraint) ConstraintName() string { return c.Name }

// Evaluate implements Constraint.
func (c *ValueConstraint) Evaluate(item ir.Item) Result {
	got := c.project(item)

	if c.Value != nil && !c.test(*c.Value, got) {
		return rejected()
	}

	match := c.clone()
	if c.ForceUnique {
		bound := got
		match.Value = &bound
	}
	return Result{Match: match}
}

// Clone implements Constraint.
func (c *ValueConstraint) Clone() Constraint {
	return c.clone()
}

func (c *ValueConstraint) clone() *ValueConstraint {
	out := *c
	if c.Value != nil {
		v := *c.Value
		out.Value = &v
	}
	return &out
}

func (c *ValueConstraint) project(item ir.Item) string {
	if c.Source != nil {
		return c.Source(item)
	}
	return item.Text()
}

func (c *ValueConstraint) test(want, got string) bool {
	if c.Test != nil {
		return c.Test(want, got)
	}
	return want == got
}

// String implements Constraint.
func (c *ValueConstraint) String() string {
	value := "<unbound>"
	if c.Value != nil {
		value = *c.Value
	}
	return fmt.Sprintf("ValueConstraint{name=%s value=%s}", c.Name, value)
}

// TrueConstraint always matches and never binds.
type TrueConstraint struct {
	Name string
}

func (*TrueConstraint) sealed() {}

// ConstraintName implements Constraint.
func (c *TrueConstraint) ConstraintName() string { return c.Name }

// Evaluate implements Constraint.
func (c *TrueConstraint) Evaluate(ir.Item) Result {
	return Result{Match: c.Clone()}
}

// Clone implements Constraint.
func (c *TrueConstraint) Clone() Constraint {
	out := *c
	return &out
}

// String implements Constraint.
func (c *TrueConstraint) String() string {
	return fmt.Sprintf("TrueConstraint{name=%s}", c.Name)
}
