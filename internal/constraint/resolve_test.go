package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/asngen/internal/testutil"
)

func TestResolve_FirstSourceWins(t *testing.T) {
	item := testutil.Item("pupil", "CLEAR", "grating", "G140M")

	src, val, ok := Resolve(item, []string{"pupil", "grating"}, nil)
	assert.True(t, ok)
	assert.Equal(t, "pupil", src)
	assert.Equal(t, "CLEAR", val)
}

func TestResolve_FallsBackToLaterSource(t *testing.T) {
	item := testutil.Item("b", "x")

	src, val, ok := Resolve(item, []string{"a", "b"}, []string{})
	assert.True(t, ok)
	assert.Equal(t, "b", src)
	assert.Equal(t, "x", val)
}

func TestResolve_SkipsInvalidValues(t *testing.T) {
	item := testutil.Item("a", "NULL", "b", "x")

	src, val, ok := Resolve(item, []string{"a", "b"}, []string{"NULL"})
	assert.True(t, ok)
	assert.Equal(t, "b", src)
	assert.Equal(t, "x", val)
}

func TestResolve_NotFound(t *testing.T) {
	testCases := []struct {
		name    string
		kv      []string
		invalid []string
	}{
		{"no source present", []string{"c", "x"}, nil},
		{"all present values invalid", []string{"a", "NULL", "b", ""}, []string{"NULL", ""}},
		{"empty item", nil, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, ok := Resolve(testutil.Item(tc.kv...), []string{"a", "b"}, tc.invalid)
			assert.False(t, ok)
		})
	}
}

func TestResolve_OrderIsSignificant(t *testing.T) {
	item := testutil.Item("a", "1", "b", "2")

	src, _, _ := Resolve(item, []string{"b", "a"}, nil)
	assert.Equal(t, "b", src)
}
