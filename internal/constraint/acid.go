package constraint

import (
	"regexp"
	"strings"
)

// DiscoveredACID identifies an association that is not tied to a named
// candidate.
const DiscoveredACID = "a3001"

var acidPattern = regexp.MustCompile(`(?i)^(o\d{3}|[ca]\d{4})$`)

// ParseACID extracts a candidate identifier such as "o001" or "c1000"
// from a bound value. The value may be the bare identifier or a list or
// tuple literal whose first element is, as in "('c1000', 'mosaic')".
// The identifier is returned lower-cased.
func ParseACID(value string) (string, bool) {
	v := strings.TrimSpace(strings.ReplaceAll(value, `\`, ""))
	for range 3 {
		elems, isList := ExpandValue(v)
		if len(elems) == 0 {
			return "", false
		}
		v = strings.TrimSpace(elems[0])
		if !isList {
			break
		}
		v = strings.Trim(v, `'"`)
	}
	if !acidPattern.MatchString(v) {
		return "", false
	}
	return strings.ToLower(v), true
}

// ACID returns the candidate identifier of a bound tree: the first
// IsACID attribute, depth-first, whose bound value parses. Without one
// it returns DiscoveredACID.
func (t *Tree) ACID() string {
	for _, leaf := range t.Leaves() {
		a, ok := leaf.(*AttrConstraint)
		if !ok || !a.IsACID {
			continue
		}
		v, ok := a.Bound()
		if !ok {
			continue
		}
		if id, ok := ParseACID(v); ok {
			return id
		}
	}
	return DiscoveredACID
}
