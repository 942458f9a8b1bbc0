package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func attrNode(a AttrSpec) NodeSpec {
	return NodeSpec{Kind: KindAttr, Attr: &a}
}

func validRuleSpec() *RuleSpec {
	return &RuleSpec{
		Name: "Asn_Image",
		Constraints: []NodeSpec{
			attrNode(AttrSpec{Name: "program", Sources: []string{"program"}}),
			attrNode(AttrSpec{Name: "opt_elem", Sources: []string{"filter"}, Value: []string{"F070LP|F090W"}}),
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValidRule(t *testing.T) {
	assert.Empty(t, Validate(validRuleSpec()))
	assert.Empty(t, Validate(*validRuleSpec()))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a rule")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
}

func TestValidateRuleLevel(t *testing.T) {
	spec := &RuleSpec{Name: " ", Reduce: "most"}

	errs := Validate(spec)
	assert.ElementsMatch(t, []string{ErrRuleNameEmpty, ErrRuleNoConstraints, ErrInvalidReduce}, codes(errs))
}

func TestValidateNodes(t *testing.T) {
	tests := []struct {
		name string
		node NodeSpec
		code string
	}{
		{
			name: "no sources",
			node: attrNode(AttrSpec{Name: "a"}),
			code: ErrAttrNoSources,
		},
		{
			name: "bad pattern",
			node: attrNode(AttrSpec{Name: "a", Sources: []string{"a"}, Value: []string{"F070LP("}}),
			code: ErrInvalidPattern,
		},
		{
			name: "bad force_reprocess",
			node: attrNode(AttrSpec{Name: "a", Sources: []string{"a"}, OnlyIf: "true", ForceReprocess: "never"}),
			code: ErrInvalidForceReprocess,
		},
		{
			name: "bad onlyif",
			node: attrNode(AttrSpec{Name: "a", Sources: []string{"a"}, OnlyIf: "item.a"}),
			code: ErrInvalidOnlyIf,
		},
		{
			name: "force_undefined with value",
			node: attrNode(AttrSpec{Name: "a", Sources: []string{"a"}, ForceUndefined: true, Value: []string{"x"}}),
			code: ErrConflictingOptions,
		},
		{
			name: "force_reprocess without onlyif",
			node: attrNode(AttrSpec{Name: "a", Sources: []string{"a"}, ForceReprocess: "rules"}),
			code: ErrConflictingOptions,
		},
		{
			name: "bad value test",
			node: NodeSpec{Kind: KindValue, Value: &ValueSpec{Name: "v", Test: "fuzzy"}},
			code: ErrInvalidValueTest,
		},
		{
			name: "bad value regex",
			node: NodeSpec{Kind: KindValue, Value: &ValueSpec{Name: "v", Test: TestRegex, Value: strPtr("[")}},
			code: ErrInvalidPattern,
		},
		{
			name: "bad subtree reduce",
			node: NodeSpec{Kind: KindTree, Tree: &TreeSpec{Name: "t", Reduce: "most"}},
			code: ErrInvalidReduce,
		},
		{
			name: "no kind",
			node: NodeSpec{Kind: "regex"},
			code: ErrInvalidNodeKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &RuleSpec{Name: "R", Constraints: []NodeSpec{tt.node}}
			errs := Validate(spec)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
		})
	}
}

func TestValidateDuplicateNamesAcrossSubtrees(t *testing.T) {
	spec := &RuleSpec{
		Name: "R",
		Constraints: []NodeSpec{
			attrNode(AttrSpec{Name: "opt_elem", Sources: []string{"filter"}}),
			{Kind: KindTree, Tree: &TreeSpec{
				Name: "mode",
				Constraints: []NodeSpec{
					attrNode(AttrSpec{Name: "opt_elem", Sources: []string{"pupil"}}),
				},
			}},
		},
	}

	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateName, errs[0].Code)
	assert.Equal(t, "constraints[1].tree.constraints[0].name", errs[0].Field)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := &RuleSpec{
		Name: "R",
		Constraints: []NodeSpec{
			attrNode(AttrSpec{Name: "a"}),
			attrNode(AttrSpec{Name: "b", Sources: []string{"b"}, Required: boolPtr(false), Value: []string{"("}}),
		},
	}

	errs := Validate(spec)
	assert.Equal(t, []string{ErrAttrNoSources, ErrInvalidPattern}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "constraints[0].attr.sources", Message: "required", Code: ErrAttrNoSources}
	assert.Equal(t, "[E111] constraints[0].attr.sources: required", e.Error())

	e.Line = 7
	assert.Equal(t, "[E111] line 7: constraints[0].attr.sources: required", e.Error())
}

func TestValidateNamingAndValidity(t *testing.T) {
	tests := []struct {
		name     string
		asnName  string
		validity []CheckSpec
		codes    []string
	}{
		{
			name:    "template over constraints and built-ins",
			asnName: "jw{program}-{acid}_{rule}_{seq}_{opt_elem}",
		},
		{
			name:    "unbalanced template",
			asnName: "jw{program",
			codes:   []string{ErrInvalidAsnName},
		},
		{
			name:    "unknown placeholder",
			asnName: "jw{program}_{target}_{instrument}",
			codes:   []string{ErrUnknownNameField, ErrUnknownNameField},
		},
		{
			name:     "valid check",
			validity: []CheckSpec{{Name: "has_science", Check: "item.exptype == 'science'"}},
		},
		{
			name:     "check that does not compile",
			validity: []CheckSpec{{Name: "has_science", Check: "item.exptype =="}},
			codes:    []string{ErrInvalidValidity},
		},
		{
			name:     "check that is not a bool",
			validity: []CheckSpec{{Name: "count", Check: "len(item)"}},
			codes:    []string{ErrInvalidValidity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validRuleSpec()
			spec.AsnName = tt.asnName
			spec.Validity = tt.validity
			errs := Validate(spec)
			if tt.codes == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.codes, codes(errs))
		})
	}
}

func TestValidateValidityField(t *testing.T) {
	spec := validRuleSpec()
	spec.Validity = []CheckSpec{{Name: "has_science", Check: "item.x +"}}

	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, "validity.has_science", errs[0].Field)
}
