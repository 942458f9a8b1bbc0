package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"github.com/mitchellh/mapstructure"

	"github.com/roach88/asngen/internal/constraint"
	"github.com/roach88/asngen/internal/ir"
)

// CompileRule parses a CUE value into a Rule with a ready-to-use template.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the rule struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`rule: Asn_Image: { constraints: [...] }`)
//	rule, err := CompileRule(v.LookupPath(cue.ParsePath("rule.Asn_Image")))
func CompileRule(v cue.Value) (*Rule, error) {
	spec, err := ParseRule(v)
	if err != nil {
		return nil, err
	}
	return newRule(spec)
}

// newRule builds the template, name template and validity checks of spec.
func newRule(spec *RuleSpec) (*Rule, error) {
	tmpl, err := Build(spec)
	if err != nil {
		return nil, withRule(err, spec.Name)
	}
	rule := &Rule{
		Name:        spec.Name,
		Description: spec.Description,
		Template:    tmpl,
		Spec:        spec,
	}

	if spec.AsnName != "" {
		rule.Naming, err = ParseNameTemplate(spec.AsnName)
		if err != nil {
			return nil, &CompileError{Rule: spec.Name, Field: "asn_name", Message: err.Error(), Pos: spec.Pos}
		}
	}

	for _, cs := range spec.Validity {
		pred, err := CompilePredicate(cs.Check)
		if err != nil {
			return nil, &CompileError{Rule: spec.Name, Field: "validity." + cs.Name, Message: err.Error(), Pos: cs.Pos}
		}
		rule.Validity = append(rule.Validity, ValidityCheck{Name: cs.Name, Check: pred})
	}
	return rule, nil
}

// ParseRule decodes a CUE rule struct into a RuleSpec without building it.
func ParseRule(v cue.Value) (*RuleSpec, error) {
	spec := &RuleSpec{Pos: v.Pos()}

	// Rule name is the struct label, e.g. `rule: Asn_Image: {...}`
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	if err := v.Err(); err != nil {
		return nil, withRule(cueError(err), spec.Name)
	}
	if err := parseRuleBody(v, spec); err != nil {
		return nil, withRule(err, spec.Name)
	}
	return spec, nil
}

func parseRuleBody(v cue.Value, spec *RuleSpec) error {
	var err error
	if spec.Description, err = optionalString(v, "description"); err != nil {
		return err
	}
	if spec.Reduce, err = optionalString(v, "reduce"); err != nil {
		return err
	}
	if spec.AsnName, err = optionalString(v, "asn_name"); err != nil {
		return err
	}
	if spec.Validity, err = parseValidity(v); err != nil {
		return err
	}

	consVal := v.LookupPath(cue.ParsePath("constraints"))
	if !consVal.Exists() {
		return &CompileError{
			Field:   "constraints",
			Message: "constraints is required",
			Pos:     v.Pos(),
		}
	}
	spec.Constraints, err = parseNodes(consVal, "constraints")
	return err
}

// parseValidity reads the optional `validity: {name: "expr", ...}` block.
func parseValidity(v cue.Value) ([]CheckSpec, error) {
	block := v.LookupPath(cue.ParsePath("validity"))
	if !block.Exists() {
		return nil, nil
	}
	iter, err := block.Fields()
	if err != nil {
		return nil, &CompileError{
			Field:   "validity",
			Message: "must be a struct of named checks",
			Pos:     block.Pos(),
		}
	}

	var checks []CheckSpec
	for iter.Next() {
		name := iter.Label()
		src, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "validity." + name,
				Message: "check must be an expression string",
				Pos:     iter.Value().Pos(),
			}
		}
		checks = append(checks, CheckSpec{Name: name, Check: src, Pos: iter.Value().Pos()})
	}
	return checks, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: "must be a string",
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// parseNodes walks a CUE list of constraint nodes.
func parseNodes(list cue.Value, field string) ([]NodeSpec, error) {
	iter, err := list.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "must be a list of constraint nodes",
			Pos:     list.Pos(),
		}
	}

	var nodes []NodeSpec
	for i := 0; iter.Next(); i++ {
		node, err := parseNode(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// parseNode decodes one `{attr: {...}}`-style element. The element must
// have exactly one field naming its kind.
func parseNode(v cue.Value, field string) (NodeSpec, error) {
	node := NodeSpec{Pos: v.Pos()}

	iter, err := v.Fields()
	if err != nil {
		return node, &CompileError{
			Field:   field,
			Message: "constraint node must be a struct",
			Pos:     v.Pos(),
		}
	}

	var kinds []string
	var body cue.Value
	for iter.Next() {
		kinds = append(kinds, iter.Label())
		body = iter.Value()
	}
	if len(kinds) != 1 {
		return node, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("constraint node must have exactly one of attr, tree, value, true; got %v", kinds),
			Pos:     v.Pos(),
		}
	}
	node.Kind = kinds[0]
	field = field + "." + node.Kind

	switch node.Kind {
	case KindAttr:
		node.Attr = &AttrSpec{}
		err = decodeBody(body, field, node.Attr)
	case KindValue:
		node.Value = &ValueSpec{}
		err = decodeBody(body, field, node.Value)
	case KindTrue:
		node.True = &TrueSpec{}
		err = decodeBody(body, field, node.True)
	case KindTree:
		node.Tree, err = parseTree(body, field)
	default:
		err = &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown constraint kind %q", node.Kind),
			Pos:     v.Pos(),
		}
	}
	return node, err
}

func parseTree(body cue.Value, field string) (*TreeSpec, error) {
	var opts treeOptions
	if err := decodeBody(body, field, &opts); err != nil {
		return nil, err
	}
	tree := &TreeSpec{Name: opts.Name, Reduce: opts.Reduce}

	consVal := body.LookupPath(cue.ParsePath("constraints"))
	if consVal.Exists() {
		children, err := parseNodes(consVal, field+".constraints")
		if err != nil {
			return nil, err
		}
		tree.Constraints = children
	}
	return tree, nil
}

// decodeBody decodes a CUE struct into out via mapstructure.
// Unknown keys are rejected. Weak typing lets a lone string stand in for
// a one-element list, so `value: "F070LP"` works like `value: ["F070LP"]`.
func decodeBody(body cue.Value, field string, out any) error {
	var raw map[string]any
	if err := body.Decode(&raw); err != nil {
		return &CompileError{
			Field:   field,
			Message: fmt.Sprintf("decoding: %v", err),
			Pos:     body.Pos(),
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return &CompileError{
			Field:   field,
			Message: err.Error(),
			Pos:     body.Pos(),
		}
	}
	return nil
}

// Build turns a RuleSpec into a template tree.
func Build(spec *RuleSpec) (*constraint.Tree, error) {
	reduce, err := parseReduce(spec.Reduce, "reduce")
	if err != nil {
		return nil, err
	}
	children, err := buildNodes(spec.Constraints, "constraints")
	if err != nil {
		return nil, err
	}
	return constraint.NewTree(children, reduce, spec.Name)
}

func buildNodes(nodes []NodeSpec, field string) ([]constraint.Constraint, error) {
	out := make([]constraint.Constraint, 0, len(nodes))
	for i, n := range nodes {
		c, err := buildNode(n, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func buildNode(n NodeSpec, field string) (constraint.Constraint, error) {
	switch {
	case n.Attr != nil:
		return buildAttr(n.Attr, field+".attr", n)
	case n.Tree != nil:
		reduce, err := parseReduce(n.Tree.Reduce, field+".tree.reduce")
		if err != nil {
			return nil, err
		}
		children, err := buildNodes(n.Tree.Constraints, field+".tree.constraints")
		if err != nil {
			return nil, err
		}
		return constraint.NewTree(children, reduce, n.Tree.Name)
	case n.Value != nil:
		return buildValue(n.Value, field+".value", n)
	case n.True != nil:
		return &constraint.TrueConstraint{Name: n.True.Name}, nil
	}
	return nil, &CompileError{Field: field, Message: "empty constraint node", Pos: n.Pos}
}

func buildAttr(a *AttrSpec, field string, n NodeSpec) (*constraint.AttrConstraint, error) {
	c := constraint.NewAttrConstraint(a.Name, a.Sources...)
	c.Value = a.Value
	if a.InvalidValues != nil {
		c.InvalidValues = a.InvalidValues
	}
	if a.Required != nil {
		c.Required = *a.Required
	}
	if a.ForceUnique != nil {
		c.ForceUnique = *a.ForceUnique
	}
	c.ForceUndefined = a.ForceUndefined
	c.OnlyOnMatch = a.OnlyOnMatch
	c.Expand = a.Evaluate
	c.IsACID = a.IsACID

	if a.ForceReprocess != "" {
		mode, err := ir.ParseWorkOver(a.ForceReprocess)
		if err != nil {
			return nil, &CompileError{Field: field + ".force_reprocess", Message: err.Error(), Pos: n.Pos}
		}
		c.ForceReprocess = mode
	}

	if a.OnlyIf != "" {
		pred, err := CompilePredicate(a.OnlyIf)
		if err != nil {
			return nil, &CompileError{Field: field + ".onlyif", Message: err.Error(), Pos: n.Pos}
		}
		c.OnlyIf = pred
	}
	return c, nil
}

func buildValue(v *ValueSpec, field string, n NodeSpec) (*constraint.ValueConstraint, error) {
	c := constraint.NewValueConstraint(v.Name)
	if v.Value != nil {
		c = c.WithValue(*v.Value)
	}
	if v.ForceUnique != nil {
		c.ForceUnique = *v.ForceUnique
	}
	if v.Source != "" {
		source := v.Source
		c.Source = func(item ir.Item) string { return item[source] }
	}

	switch v.Test {
	case "", TestEqual:
	case TestPrefix:
		c.Test = func(want, got string) bool { return strings.HasPrefix(got, want) }
	case TestRegex:
		c.Test = func(want, got string) bool { return constraint.MeetsConditions(got, []string{want}) }
	default:
		return nil, &CompileError{
			Field:   field + ".test",
			Message: fmt.Sprintf("invalid test %q, must be %q, %q, or %q", v.Test, TestEqual, TestPrefix, TestRegex),
			Pos:     n.Pos,
		}
	}
	return c, nil
}

func parseReduce(s, field string) (constraint.Reduction, error) {
	switch s {
	case "", ReduceAll:
		return constraint.All, nil
	case ReduceAny:
		return constraint.Any, nil
	default:
		return constraint.Reduction{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("invalid reduce %q, must be %q or %q", s, ReduceAll, ReduceAny),
		}
	}
}
