package constraint

import (
	"github.com/roach88/asngen/internal/ir"
)

// Resolve returns the first source present on item whose value is not in invalid.
//
// Source order is significant: it encodes fallback precedence between
// equivalent attributes. ok is false when no source is present or every
// present value is invalid.
func Resolve(item ir.Item, sources []string, invalid []string) (source, value string, ok bool) {
	for _, src := range sources {
		v, present := item.Get(src)
		if !present {
			continue
		}
		if isInvalid(v, invalid) {
			continue
		}
		return src, v, true
	}
	return "", "", false
}

func isInvalid(v string, invalid []string) bool {
	for _, bad := range invalid {
		if v == bad {
			return true
		}
	}
	return false
}
