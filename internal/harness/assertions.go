package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/asngen/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the generated associations to help debug the failure.
type AssertionError struct {
	Type         string            // Assertion type for categorization
	Expected     string            // Human-readable expected outcome
	Actual       string            // Human-readable actual outcome
	Associations []*ir.Association // Full output for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Associations) > 0 {
		fmt.Fprintf(&buf, "\nAssociations:\n")
		for i, a := range e.Associations {
			fmt.Fprintf(&buf, "  [%d] %s %s (%d members)", i+1, a.Rule, formatMap(a.Constraints), len(a.Members))
			if a.Name != "" {
				fmt.Fprintf(&buf, " %s", a.Name)
			}
			if a.Invalid {
				buf.WriteString(" invalid")
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertMemberOf:
		return assertMemberOf(result.Associations, a)
	case AssertBoundValue:
		return assertBoundValue(result.Associations, a)
	case AssertOrphan:
		return assertOrphan(result, a)
	case AssertAsnName:
		return assertAsnName(result.Associations, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertMemberOf checks that associations of the rule hold a member
// carrying every attribute in a.Item.
func assertMemberOf(asns []*ir.Association, a Assertion) error {
	count := 0
	for _, asn := range asns {
		if a.Rule != "" && asn.Rule != a.Rule {
			continue
		}
		for _, m := range asn.Members {
			if matchItem(m, a.Item) {
				count++
				break
			}
		}
	}

	if a.Count != nil {
		if count == *a.Count {
			return nil
		}
		return &AssertionError{
			Type:         AssertMemberOf,
			Expected:     fmt.Sprintf("%d association(s)%s holding %s", *a.Count, ruleSuffix(a.Rule), formatMap(a.Item)),
			Actual:       fmt.Sprintf("%d", count),
			Associations: asns,
		}
	}
	if count > 0 {
		return nil
	}
	return &AssertionError{
		Type:         AssertMemberOf,
		Expected:     fmt.Sprintf("an association%s holding %s", ruleSuffix(a.Rule), formatMap(a.Item)),
		Actual:       "no such member",
		Associations: asns,
	}
}

// assertBoundValue checks that an association of the rule bound a.Name to a.Value.
func assertBoundValue(asns []*ir.Association, a Assertion) error {
	var seen []string
	for _, asn := range asns {
		if a.Rule != "" && asn.Rule != a.Rule {
			continue
		}
		v, ok := asn.Constraints[a.Name]
		if !ok {
			continue
		}
		if v == a.Value {
			return nil
		}
		seen = append(seen, v)
	}

	actual := "constraint never bound"
	if len(seen) > 0 {
		actual = fmt.Sprintf("bound to %v", seen)
	}
	return &AssertionError{
		Type:         AssertBoundValue,
		Expected:     fmt.Sprintf("%s=%q%s", a.Name, a.Value, ruleSuffix(a.Rule)),
		Actual:       actual,
		Associations: asns,
	}
}

// assertAsnName checks that an association of the rule is named a.Value.
func assertAsnName(asns []*ir.Association, a Assertion) error {
	var names []string
	for _, asn := range asns {
		if a.Rule != "" && asn.Rule != a.Rule {
			continue
		}
		if asn.Name == a.Value {
			return nil
		}
		names = append(names, asn.Name)
	}
	return &AssertionError{
		Type:         AssertAsnName,
		Expected:     fmt.Sprintf("an association%s named %q", ruleSuffix(a.Rule), a.Value),
		Actual:       fmt.Sprintf("names %q", names),
		Associations: asns,
	}
}

// assertOrphan checks that an orphaned pool item carries every attribute in a.Item.
func assertOrphan(result *Result, a Assertion) error {
	for _, o := range result.Orphans {
		if matchItem(o, a.Item) {
			return nil
		}
	}
	return &AssertionError{
		Type:         AssertOrphan,
		Expected:     fmt.Sprintf("orphan %s", formatMap(a.Item)),
		Actual:       fmt.Sprintf("%d orphan(s), none matching", len(result.Orphans)),
		Associations: result.Associations,
	}
}

// matchItem performs a subset match: every key in want must be present
// in item with the same value. Keys are compared lower-cased, as pools
// are normalized.
func matchItem(item ir.Item, want map[string]string) bool {
	for k, v := range want {
		got, ok := item[strings.ToLower(k)]
		if !ok || got != v {
			return false
		}
	}
	return true
}

func ruleSuffix(rule string) string {
	if rule == "" {
		return ""
	}
	return " of " + rule
}

// formatMap renders a string map with sorted keys.
func formatMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
