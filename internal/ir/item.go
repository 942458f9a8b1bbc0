package ir

import (
	"slices"
	"strings"
)

// Item is one pool record: named attributes with string values.
//
// Items are owned by the pool loader. The matching engine reads them but
// never writes to them; any rewrite needed for a reprocess attempt is made
// on a Clone.
type Item map[string]string

// DefaultInvalidValues are attribute values that mean "not specified" in a pool.
var DefaultInvalidValues = []string{"NULL", ""}

// Get returns the value for key and whether the key is present.
func (it Item) Get(key string) (string, bool) {
	v, ok := it[key]
	return v, ok
}

// Clone returns an independent copy of the item.
func (it Item) Clone() Item {
	if it == nil {
		return nil
	}
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// With returns a copy of the item with key set to value.
func (it Item) With(key, value string) Item {
	out := it.Clone()
	if out == nil {
		out = Item{}
	}
	out[key] = value
	return out
}

// SortedKeys returns the attribute names in byte order.
func (it Item) SortedKeys() []string {
	keys := make([]string, 0, len(it))
	for k := range it {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Text renders the item as "k1=v1,k2=v2" in key order.
// Used as the default projection for value constraints and in log output.
func (it Item) Text() string {
	var b strings.Builder
	for i, k := range it.SortedKeys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(it[k])
	}
	return b.String()
}

// Equal reports whether two items hold the same attributes.
func (it Item) Equal(other Item) bool {
	if len(it) != len(other) {
		return false
	}
	for k, v := range it {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}
