package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/asngen/internal/constraint"
	"github.com/roach88/asngen/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported type for validation

	// RuleSpec errors (E101-E109)
	ErrRuleNameEmpty     = "E101" // rule name is required
	ErrRuleNoConstraints = "E102" // at least one constraint required
	ErrInvalidReduce     = "E103" // reduce must be all or any
	ErrDuplicateName     = "E104" // duplicate constraint name within a rule
	ErrInvalidAsnName    = "E105" // asn_name is not a valid name template
	ErrUnknownNameField  = "E106" // asn_name placeholder names no constraint or built-in field
	ErrInvalidValidity   = "E107" // validity check does not compile to a bool expression

	// Constraint node errors (E110-E119)
	ErrInvalidNodeKind       = "E110" // node has no or several kinds
	ErrAttrNoSources         = "E111" // attr constraint without sources
	ErrInvalidPattern        = "E112" // value alternative is not a valid regex
	ErrInvalidForceReprocess = "E113" // force_reprocess is not a work-over mode
	ErrInvalidOnlyIf         = "E114" // onlyif does not compile to a bool expression
	ErrConflictingOptions    = "E115" // mutually exclusive options set together
	ErrInvalidValueTest      = "E116" // value test is not equal, prefix or regex
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a rule definition against schema rules.
// Returns all errors found (does not fail-fast).
// Supports *RuleSpec, RuleSpec and *Rule.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *RuleSpec:
		return validateRuleSpec(spec)
	case RuleSpec:
		return validateRuleSpec(&spec)
	case *Rule:
		return validateRuleSpec(spec.Spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateRuleSpec(spec *RuleSpec) []ValidationError {
	if spec == nil {
		return []ValidationError{{Field: "rule", Message: "rule is nil", Code: ErrUnsupportedType}}
	}

	var errs []ValidationError
	line := spec.Pos.Line()

	// E101: name is required
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "rule name is required and must be non-empty",
			Code:    ErrRuleNameEmpty,
			Line:    line,
		})
	}

	// E102: at least one constraint
	if len(spec.Constraints) == 0 {
		errs = append(errs, ValidationError{
			Field:   "constraints",
			Message: "at least one constraint is required",
			Code:    ErrRuleNoConstraints,
			Line:    line,
		})
	}

	errs = append(errs, validateReduce(spec.Reduce, "reduce", line)...)

	names := make(map[string]bool)
	errs = append(errs, validateNodes(spec.Constraints, "constraints", names)...)
	errs = append(errs, validateAsnName(spec.AsnName, names, line)...)
	errs = append(errs, validateValidity(spec.Validity)...)
	return errs
}

func validateAsnName(src string, names map[string]bool, line int) []ValidationError {
	if src == "" {
		return nil
	}

	// E105: template syntax
	tmpl, err := ParseNameTemplate(src)
	if err != nil {
		return []ValidationError{{
			Field:   "asn_name",
			Message: fmt.Sprintf("invalid name template %q: %v", src, err),
			Code:    ErrInvalidAsnName,
			Line:    line,
		}}
	}

	// E106: every placeholder must resolve
	var errs []ValidationError
	for _, f := range tmpl.Fields() {
		switch f {
		case NameFieldACID, NameFieldRule, NameFieldSeq:
			continue
		}
		if !names[f] {
			errs = append(errs, ValidationError{
				Field:   "asn_name",
				Message: fmt.Sprintf("placeholder {%s} is not a constraint name or one of acid, rule, seq", f),
				Code:    ErrUnknownNameField,
				Line:    line,
			})
		}
	}
	return errs
}

func validateValidity(checks []CheckSpec) []ValidationError {
	var errs []ValidationError
	for _, cs := range checks {
		// E107: check must compile
		if _, err := CompilePredicate(cs.Check); err != nil {
			errs = append(errs, ValidationError{
				Field:   "validity." + cs.Name,
				Message: err.Error(),
				Code:    ErrInvalidValidity,
				Line:    cs.Pos.Line(),
			})
		}
	}
	return errs
}

func validateReduce(reduce, field string, line int) []ValidationError {
	// E103: reduce must be all or any
	if reduce == "" || reduce == ReduceAll || reduce == ReduceAny {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("invalid reduce %q, must be %q or %q", reduce, ReduceAll, ReduceAny),
		Code:    ErrInvalidReduce,
		Line:    line,
	}}
}

// validateNodes checks every node depth-first. names is shared across the
// whole rule so duplicates in different subtrees are reported too.
func validateNodes(nodes []NodeSpec, field string, names map[string]bool) []ValidationError {
	var errs []ValidationError
	for i, n := range nodes {
		path := fmt.Sprintf("%s[%d]", field, i)
		line := n.Pos.Line()

		// E104: duplicate names make Lookup ambiguous
		if name := n.Name(); name != "" {
			if names[name] {
				errs = append(errs, ValidationError{
					Field:   path + ".name",
					Message: fmt.Sprintf("duplicate constraint name: %q", name),
					Code:    ErrDuplicateName,
					Line:    line,
				})
			}
			names[name] = true
		}

		switch {
		case n.Attr != nil:
			errs = append(errs, validateAttr(n.Attr, path+".attr", line)...)
		case n.Tree != nil:
			errs = append(errs, validateReduce(n.Tree.Reduce, path+".tree.reduce", line)...)
			errs = append(errs, validateNodes(n.Tree.Constraints, path+".tree.constraints", names)...)
		case n.Value != nil:
			errs = append(errs, validateValue(n.Value, path+".value", line)...)
		case n.True != nil:
		default:
			// E110: no recognized kind
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("unknown constraint kind %q", n.Kind),
				Code:    ErrInvalidNodeKind,
				Line:    line,
			})
		}
	}
	return errs
}

func validateAttr(a *AttrSpec, field string, line int) []ValidationError {
	var errs []ValidationError

	// E111: sources required
	if len(a.Sources) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".sources",
			Message: "at least one source attribute is required",
			Code:    ErrAttrNoSources,
			Line:    line,
		})
	}

	// E112: every alternative must compile
	for i, p := range a.Value {
		if err := constraint.CompilePattern(p); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.value[%d]", field, i),
				Message: fmt.Sprintf("invalid pattern %q: %v", p, err),
				Code:    ErrInvalidPattern,
				Line:    line,
			})
		}
	}

	// E113: force_reprocess mode
	if a.ForceReprocess != "" {
		if _, err := ir.ParseWorkOver(a.ForceReprocess); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".force_reprocess",
				Message: err.Error(),
				Code:    ErrInvalidForceReprocess,
				Line:    line,
			})
		}
	}

	// E114: onlyif must compile
	if a.OnlyIf != "" {
		if _, err := CompilePredicate(a.OnlyIf); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".onlyif",
				Message: err.Error(),
				Code:    ErrInvalidOnlyIf,
				Line:    line,
			})
		}
	}

	// E115: conflicting options
	if a.ForceUndefined && len(a.Value) > 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".force_undefined",
			Message: "force_undefined cannot be combined with value",
			Code:    ErrConflictingOptions,
			Line:    line,
		})
	}
	if (a.ForceReprocess != "" || a.OnlyOnMatch) && a.OnlyIf == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".force_reprocess",
			Message: "force_reprocess and only_on_match require onlyif",
			Code:    ErrConflictingOptions,
			Line:    line,
		})
	}

	return errs
}

func validateValue(v *ValueSpec, field string, line int) []ValidationError {
	var errs []ValidationError

	// E116: test name
	switch v.Test {
	case "", TestEqual, TestPrefix:
	case TestRegex:
		if v.Value != nil {
			if err := constraint.CompilePattern(*v.Value); err != nil {
				errs = append(errs, ValidationError{
					Field:   field + ".value",
					Message: fmt.Sprintf("invalid pattern %q: %v", *v.Value, err),
					Code:    ErrInvalidPattern,
					Line:    line,
				})
			}
		}
	default:
		errs = append(errs, ValidationError{
			Field:   field + ".test",
			Message: fmt.Sprintf("invalid test %q, must be %q, %q, or %q", v.Test, TestEqual, TestPrefix, TestRegex),
			Code:    ErrInvalidValueTest,
			Line:    line,
		})
	}
	return errs
}
