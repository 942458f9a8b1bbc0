package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/asngen/internal/ir"
)

func TestSeenTracker_Visit(t *testing.T) {
	s := newSeenTracker()
	both := ir.ProcessList{WorkOver: ir.WorkOverBoth}
	rules := ir.ProcessList{WorkOver: ir.WorkOverRules}
	scoped := ir.ProcessList{WorkOver: ir.WorkOverRules, Rules: []string{"Asn_A"}}

	assert.True(t, s.Visit("k1", both))
	assert.False(t, s.Visit("k1", both), "same item, scope and mode")

	assert.True(t, s.Visit("k1", rules), "different mode")
	assert.True(t, s.Visit("k1", scoped), "different scope")
	assert.False(t, s.Visit("k1", scoped))

	assert.True(t, s.Visit("k2", both), "different item")
	assert.Equal(t, 4, s.Len())
}

func TestSeenTracker_ZeroModeIsBoth(t *testing.T) {
	s := newSeenTracker()
	assert.True(t, s.Visit("k", ir.ProcessList{}))
	assert.False(t, s.Visit("k", ir.ProcessList{WorkOver: ir.WorkOverBoth}))
}
