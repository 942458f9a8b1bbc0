package constraint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/asngen/internal/ir"
)

// AttrConstraint tests an item attribute drawn from an ordered list of sources.
//
// Value holds regular-expression alternatives. An empty Value matches any
// resolved value and captures it. After the first successful match of an
// open constraint, Value is a single escaped literal, Sources is narrowed to
// the source that matched, and ForceUnique is cleared.
type AttrConstraint struct {
	Name    string
	Sources []string
	Value   []string

	// InvalidValues are attribute values treated as absent.
	InvalidValues []string

	// Required rejects items where no source resolves.
	Required bool

	// ForceUnique rebinds Value to the observed literal on match, even
	// when Value was already set.
	ForceUnique bool

	// ForceUndefined requires that no source resolves.
	ForceUndefined bool

	// OnlyIf gates the test. When it returns false the constraint is
	// satisfied without looking at the item. Nil means always test.
	OnlyIf func(item ir.Item) bool

	// ForceReprocess, when non-zero, queues the original item again under
	// this mode whenever OnlyIf is false.
	ForceReprocess ir.WorkOver

	// OnlyOnMatch marks ForceReprocess entries as valid only if the
	// enclosing rule matched.
	OnlyOnMatch bool

	// Expand interprets the resolved value as a possible list literal and
	// splits multi-valued items into single-valued reprocess attempts.
	Expand bool

	// IsACID marks the bound value as the association candidate identifier.
	IsACID bool

	found map[string]struct{}
}

// NewAttrConstraint returns an open, required, force-unique constraint
// over sources with the default invalid values.
func NewAttrConstraint(name string, sources ...string) *AttrConstraint {
	return &AttrConstraint{
		Name:          name,
		Sources:       sources,
		InvalidValues: slices.Clone(ir.DefaultInvalidValues),
		Required:      true,
		ForceUnique:   true,
	}
}

func (*AttrConstraint) sealed() {}

// ConstraintName implements Constraint.
func (c *AttrConstraint) ConstraintName() string { return c.Name }

// Evaluate implements Constraint.
func (c *AttrConstraint) Evaluate(item ir.Item) Result {
	if c.OnlyIf != nil && !c.OnlyIf(item) {
		result := Result{Match: c.clone()}
		if c.ForceReprocess != 0 {
			result.Reprocess = []ir.ProcessList{{
				Items:       []ir.Item{item},
				WorkOver:    c.ForceReprocess,
				OnlyOnMatch: c.OnlyOnMatch,
			}}
		}
		return result
	}

	source, value, ok := Resolve(item, c.Sources, c.InvalidValues)
	if !ok {
		if c.Required && !c.ForceUndefined {
			return rejected()
		}
		return Result{Match: c.clone()}
	}
	if c.ForceUndefined {
		return rejected()
	}

	if c.Expand {
		elems, isList := ExpandValue(value)
		if isList && len(elems) != 1 {
			return c.expandReprocess(item, source, elems)
		}
		value = elems[0]
	}

	if len(c.Value) > 0 && !MeetsConditions(value, c.Value) {
		return rejected()
	}

	match := c.clone()
	escaped := Escape(value)
	match.addFound(escaped)
	if len(c.Value) == 0 || c.ForceUnique {
		match.Value = []string{escaped}
		match.Sources = []string{source}
		match.ForceUnique = false
	}
	return Result{Match: match}
}

// expandReprocess rejects this attempt and queues one private item copy per
// element, each with source rewritten to that element. An empty list yields
// a plain rejection.
func (c *AttrConstraint) expandReprocess(item ir.Item, source string, elems []string) Result {
	if len(elems) == 0 {
		return rejected()
	}
	items := make([]ir.Item, len(elems))
	for i, e := range elems {
		items[i] = item.With(source, e)
	}
	return Result{Reprocess: []ir.ProcessList{ir.NewProcessList(items...)}}
}

// Bound reports the single value the constraint currently requires,
// unescaped. It is false while the constraint is still open (ForceUnique
// set or no value) or when several alternatives remain.
func (c *AttrConstraint) Bound() (string, bool) {
	if c.ForceUnique || len(c.Value) != 1 {
		return "", false
	}
	return Unescape(c.Value[0]), true
}

// FoundValues returns every distinct escaped value this lineage matched, sorted.
func (c *AttrConstraint) FoundValues() []string {
	out := make([]string, 0, len(c.found))
	for v := range c.found {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (c *AttrConstraint) addFound(v string) {
	if c.found == nil {
		c.found = make(map[string]struct{})
	}
	c.found[v] = struct{}{}
}

// Clone implements Constraint.
func (c *AttrConstraint) Clone() Constraint {
	return c.clone()
}

func (c *AttrConstraint) clone() *AttrConstraint {
	out := *c
	out.Sources = slices.Clone(c.Sources)
	out.Value = slices.Clone(c.Value)
	out.InvalidValues = slices.Clone(c.InvalidValues)
	if c.found != nil {
		out.found = make(map[string]struct{}, len(c.found))
		for v := range c.found {
			out.found[v] = struct{}{}
		}
	}
	return &out
}

// String implements Constraint.
func (c *AttrConstraint) String() string {
	value := "<any>"
	if len(c.Value) > 0 {
		value = strings.Join(c.Value, "|")
	}
	return fmt.Sprintf("AttrConstraint{name=%s sources=%v value=%s}", c.Name, c.Sources, value)
}
