package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemKeyDeterminism(t *testing.T) {
	item := Item{"filename": "a.fits", "filter": "F070LP"}

	k1, err := ItemKey(item)
	require.NoError(t, err)
	k2, err := ItemKey(item.Clone())
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64, "SHA-256 hex is 64 characters")
}

func TestItemKeyChangesWithContent(t *testing.T) {
	a := MustItemKey(Item{"filter": "F070LP"})
	b := MustItemKey(Item{"filter": "F100LP"})
	c := MustItemKey(Item{"filt": "F070LP"})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMembershipHashOrderIndependent(t *testing.T) {
	m1 := Item{"filename": "a.fits"}
	m2 := Item{"filename": "b.fits"}

	h1, err := MembershipHash("Asn_Image", []Item{m1, m2})
	require.NoError(t, err)
	h2, err := MembershipHash("Asn_Image", []Item{m2, m1})
	require.NoError(t, err)
	h3, err := MembershipHash("Asn_Image", []Item{m2, m1, m2})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, h1, h3, "duplicate members do not change identity")
}

func TestMembershipHashIncludesRule(t *testing.T) {
	members := []Item{{"filename": "a.fits"}}

	h1, err := MembershipHash("Asn_Image", members)
	require.NoError(t, err)
	h2, err := MembershipHash("Asn_Spec", members)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte(`{"a":"1"}`)
	assert.NotEqual(t, hashWithDomain(DomainItem, data), hashWithDomain(DomainMembership, data))
}
