package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asngen/internal/testutil"
)

func TestParseACID(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{"observation", "o001", "o001", true},
		{"candidate", "c1000", "c1000", true},
		{"discovered", "a3001", "a3001", true},
		{"upper case", "O002", "o002", true},
		{"escaped", `o\001`, "o001", true},
		{"tuple", "('c1000', 'mosaic')", "c1000", true},
		{"list of tuples", "[('o003', 'observation')]", "o003", true},
		{"too short", "o01", "", false},
		{"wrong prefix", "x1000", "", false},
		{"free text", "F070LP", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseACID(tc.value)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTree_ACID(t *testing.T) {
	candidate := NewAttrConstraint("candidate", "asn_candidate")
	candidate.IsACID = true
	template := AllOf(NewAttrConstraint("program", "program"), candidate)

	bound, _ := Evaluate(testutil.Item("program", "99009", "asn_candidate", "('c1000', 'mosaic')"), template)
	require.NotNil(t, bound)
	assert.Equal(t, "c1000", bound.ACID())

	assert.Equal(t, DiscoveredACID, template.ACID(), "open constraint has no identifier")
}

func TestTree_ACIDSkipsUnparsableValues(t *testing.T) {
	first := NewAttrConstraint("target", "targetid")
	first.IsACID = true
	second := NewAttrConstraint("candidate", "asn_candidate")
	second.IsACID = true
	template := AllOf(first, second)

	bound, _ := Evaluate(testutil.Item("targetid", "1", "asn_candidate", "o004"), template)
	require.NotNil(t, bound)
	assert.Equal(t, "o004", bound.ACID())
}

func TestTree_ACIDWithoutMarkedConstraint(t *testing.T) {
	template := AllOf(NewAttrConstraint("candidate", "asn_candidate"))

	bound, _ := Evaluate(testutil.Item("asn_candidate", "o001"), template)
	require.NotNil(t, bound)
	assert.Equal(t, DiscoveredACID, bound.ACID())
}
