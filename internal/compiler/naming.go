package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/asngen/internal/constraint"
	"github.com/roach88/asngen/internal/ir"
)

// Fields every name template may use besides the rule's constraint names.
const (
	NameFieldACID = "acid"
	NameFieldRule = "rule"
	NameFieldSeq  = "seq"
)

// NameTemplate renders an association name from bound constraint values.
// Placeholders are written {field}; "{{" and "}}" stand for literal braces.
//
//	jw{program}-{acid}_image3_{seq}_asn
type NameTemplate struct {
	src   string
	parts []namePart
}

type namePart struct {
	text  string
	field string
}

// ParseNameTemplate parses src. Unbalanced braces and empty placeholders
// are errors.
func ParseNameTemplate(src string) (*NameTemplate, error) {
	t := &NameTemplate{src: src}
	var text strings.Builder

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '{' && i+1 < len(src) && src[i+1] == '{':
			text.WriteByte('{')
			i++
		case c == '}' && i+1 < len(src) && src[i+1] == '}':
			text.WriteByte('}')
			i++
		case c == '}':
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		case c == '{':
			end := strings.IndexByte(src[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{' at offset %d", i)
			}
			field := strings.TrimSpace(src[i+1 : i+1+end])
			if field == "" || strings.ContainsAny(field, "{") {
				return nil, fmt.Errorf("empty or malformed placeholder at offset %d", i)
			}
			if text.Len() > 0 {
				t.parts = append(t.parts, namePart{text: text.String()})
				text.Reset()
			}
			t.parts = append(t.parts, namePart{field: field})
			i += end + 1
		default:
			text.WriteByte(c)
		}
	}
	if text.Len() > 0 {
		t.parts = append(t.parts, namePart{text: text.String()})
	}
	return t, nil
}

// Fields returns the placeholder names in order of appearance.
func (t *NameTemplate) Fields() []string {
	var out []string
	for _, p := range t.parts {
		if p.field != "" {
			out = append(out, p.field)
		}
	}
	return out
}

// Render substitutes values and lower-cases the result. Fields without a
// value render empty.
func (t *NameTemplate) Render(values map[string]string) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.field != "" {
			b.WriteString(values[p.field])
			continue
		}
		b.WriteString(p.text)
	}
	return strings.ToLower(b.String())
}

func (t *NameTemplate) String() string { return t.src }

// AssociationName renders the rule's name template for a bound tree at
// sequence seq. It returns "" when the rule has no template.
func (r *Rule) AssociationName(bound *constraint.Tree, seq int) string {
	if r.Naming == nil {
		return ""
	}
	values := bound.Values()
	values[NameFieldACID] = bound.ACID()
	values[NameFieldRule] = r.Name
	values[NameFieldSeq] = fmt.Sprintf("%03d", seq)
	return r.Naming.Render(values)
}

// ValidityCheck is one named condition an association must satisfy
// through at least one of its members.
type ValidityCheck struct {
	Name  string
	Check func(ir.Item) bool
}

// Valid reports whether every validity check is satisfied by some member.
// A rule without checks accepts every association.
func (r *Rule) Valid(members []ir.Item) bool {
	for _, vc := range r.Validity {
		satisfied := false
		for _, m := range members {
			if vc.Check(m) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}
