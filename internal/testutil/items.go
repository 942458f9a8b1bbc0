package testutil

import (
	"fmt"

	"github.com/roach88/asngen/internal/ir"
)

// Item builds an ir.Item from alternating key/value arguments.
//
// Panics on an odd argument count; this is a test-only helper.
//
//	Item("filter", "F070LP", "program", "99009")
func Item(kv ...string) ir.Item {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("testutil.Item: odd number of arguments (%d)", len(kv)))
	}
	it := make(ir.Item, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		it[kv[i]] = kv[i+1]
	}
	return it
}

// Pool builds a pool where every item shares base and then applies one
// override map per item.
func Pool(base ir.Item, overrides ...map[string]string) []ir.Item {
	pool := make([]ir.Item, len(overrides))
	for i, o := range overrides {
		it := base.Clone()
		if it == nil {
			it = ir.Item{}
		}
		for k, v := range o {
			it[k] = v
		}
		pool[i] = it
	}
	return pool
}
