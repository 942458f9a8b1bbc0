package constraint

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExpandValue interprets an attribute value as a possible list literal.
//
// Values such as "['o001', 'o002']" or "('c1000', 'mosaic')" expand into
// their elements' string forms and isList is true. Elements must be
// literals: quoted strings, numbers, True, False, None or nested tuples.
// Numbers keep their source text ("1.0" stays "1.0"), except that
// integers in another base are rendered in decimal. A list holding a bare
// word such as "[a, b]" is not a literal and is returned unchanged.
//
// Anything that is not a list literal is returned as a single element
// with isList false; quoted scalars lose their quotes. Parsing failures
// are never errors: the raw value is returned unchanged.
func ExpandValue(raw string) (elems []string, isList bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []string{raw}, false
	}
	if !isQuoted(trimmed) && !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "(") {
		return []string{raw}, false
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(toFlowSequence(trimmed)), &doc); err != nil || len(doc.Content) != 1 {
		return []string{raw}, false
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		out := make([]string, len(root.Content))
		for i, n := range root.Content {
			s, ok := literalText(n, false)
			if !ok {
				return []string{raw}, false
			}
			out[i] = s
		}
		return out, true
	case yaml.ScalarNode:
		if isQuoted(trimmed) && quotedScalar(root) {
			return []string{root.Value}, false
		}
	}
	return []string{raw}, false
}

// toFlowSequence rewrites tuple parentheses outside quotes into YAML flow
// sequence brackets and drops trailing commas before a closing bracket.
func toFlowSequence(s string) string {
	if !(strings.HasPrefix(s, "(") || strings.HasPrefix(s, "[")) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(':
			r = '['
		case r == ')':
			r = ']'
		}
		if quote == 0 && r == ']' {
			dropTrailingComma(&b)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dropTrailingComma(b *strings.Builder) {
	cur := strings.TrimRight(b.String(), " \t")
	if strings.HasSuffix(cur, ",") {
		cur = strings.TrimSuffix(cur, ",")
		b.Reset()
		b.WriteString(cur)
	}
}

// literalText renders one list element. Nested sequences render as tuple
// literals with quoted strings. ok is false for anything that is not a
// literal.
func literalText(n *yaml.Node, nested bool) (string, bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		if quotedScalar(n) {
			if nested {
				return "'" + n.Value + "'", true
			}
			return n.Value, true
		}
		switch n.Value {
		case "True", "False", "None":
			return n.Value, true
		}
		switch n.Tag {
		case "!!int":
			if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
				return strconv.FormatInt(i, 10), true
			}
			return n.Value, true
		case "!!float":
			if _, err := strconv.ParseFloat(n.Value, 64); err == nil {
				return n.Value, true
			}
		}
		return "", false
	case yaml.SequenceNode:
		parts := make([]string, len(n.Content))
		for i, inner := range n.Content {
			s, ok := literalText(inner, true)
			if !ok {
				return "", false
			}
			parts[i] = s
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)", true
		}
		return "(" + strings.Join(parts, ", ") + ")", true
	}
	return "", false
}

func quotedScalar(n *yaml.Node) bool {
	return n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '\'' && last == '\'') || (first == '"' && last == '"')
}
