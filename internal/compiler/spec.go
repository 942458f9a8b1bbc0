package compiler

import (
	"cuelang.org/go/cue/token"

	"github.com/roach88/asngen/internal/constraint"
)

// Node kinds accepted in a constraints list.
const (
	KindAttr  = "attr"
	KindTree  = "tree"
	KindValue = "value"
	KindTrue  = "true"
)

// Reduction names accepted by "reduce".
const (
	ReduceAll = "all"
	ReduceAny = "any"
)

// Value test names accepted by a value node's "test".
const (
	TestEqual  = "equal"
	TestPrefix = "prefix"
	TestRegex  = "regex"
)

// Rule is a compiled association rule: a named template tree that the
// engine offers pool items to.
type Rule struct {
	Name        string
	Description string
	Template    *constraint.Tree
	Spec        *RuleSpec

	// Naming is nil when the rule declares no asn_name.
	Naming   *NameTemplate
	Validity []ValidityCheck
}

// RuleSpec is the decoded form of one `rule: Name: {...}` block, before
// it is built into a constraint tree.
type RuleSpec struct {
	Name        string
	Description string
	Reduce      string
	AsnName     string
	Validity    []CheckSpec
	Constraints []NodeSpec
	Pos         token.Pos
}

// CheckSpec is one entry of a rule's validity block: a name and an
// expr-lang predicate over item, in declaration order.
type CheckSpec struct {
	Name  string
	Check string
	Pos   token.Pos
}

// NodeSpec is one element of a constraints list. Exactly one of the kind
// pointers is set.
type NodeSpec struct {
	Kind  string
	Attr  *AttrSpec
	Tree  *TreeSpec
	Value *ValueSpec
	True  *TrueSpec
	Pos   token.Pos
}

// Name returns the node's constraint name, whatever its kind.
func (n NodeSpec) Name() string {
	switch {
	case n.Attr != nil:
		return n.Attr.Name
	case n.Tree != nil:
		return n.Tree.Name
	case n.Value != nil:
		return n.Value.Name
	case n.True != nil:
		return n.True.Name
	}
	return ""
}

// AttrSpec holds the options of an attribute constraint.
// Pointer fields distinguish "unset" from an explicit false.
type AttrSpec struct {
	Name           string   `mapstructure:"name"`
	Sources        []string `mapstructure:"sources"`
	Value          []string `mapstructure:"value"`
	InvalidValues  []string `mapstructure:"invalid_values"`
	Required       *bool    `mapstructure:"required"`
	ForceUnique    *bool    `mapstructure:"force_unique"`
	ForceUndefined bool     `mapstructure:"force_undefined"`
	OnlyIf         string   `mapstructure:"onlyif"`
	ForceReprocess string   `mapstructure:"force_reprocess"`
	OnlyOnMatch    bool     `mapstructure:"only_on_match"`
	Evaluate       bool     `mapstructure:"evaluate"`
	IsACID         bool     `mapstructure:"is_acid"`
}

// TreeSpec holds a nested subtree.
type TreeSpec struct {
	Name        string
	Reduce      string
	Constraints []NodeSpec
}

// ValueSpec holds the options of a free-form value constraint.
//
// Source names the attribute under test; empty means the whole item in
// "k=v,..." form. Test is one of equal, prefix or regex.
type ValueSpec struct {
	Name        string  `mapstructure:"name"`
	Value       *string `mapstructure:"value"`
	ForceUnique *bool   `mapstructure:"force_unique"`
	Source      string  `mapstructure:"source"`
	Test        string  `mapstructure:"test"`
}

// TrueSpec is the always-matching node.
type TrueSpec struct {
	Name string `mapstructure:"name"`
}

// treeOptions is the mapstructure target for a tree body. Its children
// are walked from the CUE value so that each keeps a position.
type treeOptions struct {
	Name        string `mapstructure:"name"`
	Reduce      string `mapstructure:"reduce"`
	Constraints []any  `mapstructure:"constraints"`
}
