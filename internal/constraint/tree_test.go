package constraint

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asngen/internal/ir"
	"github.com/roach88/asngen/internal/testutil"
)

// reprocessing is a leaf that always fails and asks for its item back.
func reprocessing(name string) *AttrConstraint {
	c := NewAttrConstraint(name, name)
	c.Expand = true
	return c
}

func pinned(name, source, value string) *AttrConstraint {
	c := NewAttrConstraint(name, source)
	c.Value = []string{value}
	return c
}

func TestReduction_AllAndAny(t *testing.T) {
	testCases := []struct {
		name    string
		matches []bool
		all     bool
		any     bool
	}{
		{"empty", nil, true, false},
		{"all true", []bool{true, true}, true, true},
		{"mixed", []bool{true, false}, false, true},
		{"all false", []bool{false, false}, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.all, All.apply(tc.matches))
			assert.Equal(t, tc.any, Any.apply(tc.matches))
		})
	}
}

func TestReduction_Custom(t *testing.T) {
	atLeastTwo := Custom("at_least_two", func(m []bool) bool {
		n := 0
		for _, ok := range m {
			if ok {
				n++
			}
		}
		return n >= 2
	})

	tree := MustTree([]Constraint{
		&TrueConstraint{},
		NewAttrConstraint("a", "a"),
		NewAttrConstraint("b", "b"),
	}, atLeastTwo, "custom")

	match, _ := Evaluate(testutil.Item("a", "1"), tree)
	assert.NotNil(t, match)

	match, _ = Evaluate(testutil.Item("c", "1"), tree)
	assert.Nil(t, match)
}

func TestNewTree_Initializers(t *testing.T) {
	leaf := NewAttrConstraint("filter", "filter")

	empty, err := NewTree(nil, Reduction{}, "empty")
	require.NoError(t, err)
	assert.Empty(t, empty.Children)
	assert.Equal(t, "all", empty.Reduce.Name)

	single, err := NewTree(leaf, Any, "single")
	require.NoError(t, err)
	require.Len(t, single.Children, 1)
	assert.Same(t, leaf, single.Children[0])

	list, err := NewTree([]Constraint{leaf, &TrueConstraint{}}, All, "list")
	require.NoError(t, err)
	assert.Len(t, list.Children, 2)

	src := AnyOf(leaf)
	copied, err := NewTree(src, All, "copy")
	require.NoError(t, err)
	assert.Equal(t, "any", copied.Reduce.Name, "tree initializer keeps its reduction")
	assert.Equal(t, "copy", copied.Name)
	require.Len(t, copied.Children, 1)
	assert.NotSame(t, leaf, copied.Children[0], "children are deep copied")
}

func TestNewTree_UnsupportedType(t *testing.T) {
	_, err := NewTree(42, All, "bad")
	require.Error(t, err)
	assert.True(t, IsUnsupportedType(err))

	assert.Panics(t, func() { MustTree("nope", All, "bad") })
}

func TestNewTree_NilTreeInitializer(t *testing.T) {
	var nilTree *Tree
	_, err := NewTree(nilTree, All, "bad")
	require.Error(t, err)
	assert.True(t, IsUnsupportedType(err))
}

func TestTree_EmptyAllMatchesEverything(t *testing.T) {
	tree := MustTree(nil, All, "")
	match, reprocess := Evaluate(testutil.Item("anything", "x"), tree)
	assert.NotNil(t, match)
	assert.Empty(t, reprocess)
}

func TestTree_F070LPScenario(t *testing.T) {
	tree := AllOf(NewAttrConstraint("opt_elem", "filter"))

	match, reprocess := Evaluate(testutil.Item("filter", "F070LP"), tree)
	require.NotNil(t, match)
	assert.Empty(t, reprocess)
	assert.Equal(t, map[string]string{"opt_elem": "F070LP"}, match.Values())

	again, _ := Evaluate(testutil.Item("filter", "f070lp"), match)
	assert.NotNil(t, again)

	miss, _ := Evaluate(testutil.Item("filter", "F100LP"), match)
	assert.Nil(t, miss)

	assert.Empty(t, tree.Values(), "template stays open")
}

func TestTree_BindingIsMonotonic(t *testing.T) {
	tree := AllOf(
		NewAttrConstraint("program", "program"),
		NewAttrConstraint("opt_elem", "filter"),
	)

	items := []ir.Item{
		testutil.Item("program", "99009", "filter", "F070LP"),
		testutil.Item("program", "99009", "filter", "F070LP", "detector", "NRS1"),
		testutil.Item("program", "99009", "filter", "F070LP", "detector", "NRS2"),
	}

	current := tree
	want := map[string]string{"program": "99009", "opt_elem": "F070LP"}
	for i, item := range items {
		next, _ := Evaluate(item, current)
		require.NotNil(t, next, "item %d", i)
		assert.Equal(t, want, next.Values(), "bound values never change once set")
		current = next
	}
}

func TestTree_NestedAny(t *testing.T) {
	tree := AllOf(
		NewAttrConstraint("program", "program"),
		AnyOf(
			pinned("imaging", "exp_type", "NRC_IMAGE"),
			pinned("coron", "exp_type", "NRC_CORON"),
		),
	)

	match, _ := Evaluate(testutil.Item("program", "1", "exp_type", "NRC_CORON"), tree)
	require.NotNil(t, match)
	assert.Equal(t, map[string]string{"program": "1", "coron": "NRC_CORON"}, match.Values())

	miss, _ := Evaluate(testutil.Item("program", "1", "exp_type", "MIR_IMAGE"), tree)
	assert.Nil(t, miss)
}

func TestTree_FullMatchConcatenatesReprocess(t *testing.T) {
	gateA := NewAttrConstraint("a", "a")
	gateA.OnlyIf = func(ir.Item) bool { return false }
	gateA.ForceReprocess = ir.WorkOverRules

	gateB := NewAttrConstraint("b", "b")
	gateB.OnlyIf = func(ir.Item) bool { return false }
	gateB.ForceReprocess = ir.WorkOverExisting

	tree := AllOf(gateA, &TrueConstraint{}, gateB)
	match, reprocess := Evaluate(testutil.Item("x", "1"), tree)
	require.NotNil(t, match)
	require.Len(t, reprocess, 2)
	assert.Equal(t, ir.WorkOverRules, reprocess[0].WorkOver)
	assert.Equal(t, ir.WorkOverExisting, reprocess[1].WorkOver)
}

func TestTree_SoleObstacleKeepsReprocess(t *testing.T) {
	tree := AllOf(
		NewAttrConstraint("program", "program"),
		reprocessing("candidate"),
		&TrueConstraint{},
	)

	item := testutil.Item("program", "1", "candidate", "['o001', 'o002']")
	match, reprocess := Evaluate(item, tree)
	assert.Nil(t, match)
	require.Len(t, reprocess, 1)
	assert.Len(t, reprocess[0].Items, 2)
}

func TestTree_TieBreakFirstFailingChildWithReprocessDecides(t *testing.T) {
	// The third child fails without reprocess entries, so the second child
	// is not the sole obstacle and its entries are discarded.
	tree := AllOf(
		&TrueConstraint{},
		reprocessing("candidate"),
		NewAttrConstraint("program", "program"),
	)

	item := testutil.Item("candidate", "['o001', 'o002']")
	match, reprocess := Evaluate(item, tree)
	assert.Nil(t, match)
	assert.Empty(t, reprocess)
}

// Two failing children that both carry reprocess entries: neither is the
// sole obstacle, so nothing is queued. This drops work that a later pass
// over the expanded items could have used, and is kept deliberately as the
// conservative choice.
func TestTree_TieBreakMultipleReprocessingFailuresDropAll(t *testing.T) {
	tree := AllOf(
		reprocessing("candidate"),
		reprocessing("target"),
	)

	item := testutil.Item("candidate", "['o001', 'o002']", "target", "['t1', 't2']")
	match, reprocess := Evaluate(item, tree)
	assert.Nil(t, match)
	assert.Empty(t, reprocess)
}

func TestTree_TieBreakUnderAny(t *testing.T) {
	// Under Any, the remaining children reducing to false means the
	// reprocessing child was not the sole obstacle.
	tree := AnyOf(
		reprocessing("candidate"),
		NewAttrConstraint("program", "program"),
	)

	match, reprocess := Evaluate(testutil.Item("candidate", "['o001', 'o002']"), tree)
	assert.Nil(t, match)
	assert.Empty(t, reprocess)
}

func TestTree_RejectionLeavesTemplateUnchanged(t *testing.T) {
	tree := AllOf(
		pinned("program", "program", "1"),
		NewAttrConstraint("opt_elem", "filter"),
	)
	before := tree.clone()

	match, _ := Evaluate(testutil.Item("program", "2", "filter", "F070LP"), tree)
	assert.Nil(t, match)
	assert.Equal(t, before.GoString(), tree.GoString())
	assert.Empty(t, tree.Values())
}

func TestTree_CopyOnMatchIsIndependent(t *testing.T) {
	tree := AllOf(NewAttrConstraint("opt_elem", "filter"))

	a, _ := Evaluate(testutil.Item("filter", "F070LP"), tree)
	b, _ := Evaluate(testutil.Item("filter", "F100LP"), tree)
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.Equal(t, "F070LP", a.Values()["opt_elem"])
	assert.Equal(t, "F100LP", b.Values()["opt_elem"])
}

func TestTree_ConcurrentLineagesShareTemplate(t *testing.T) {
	kind := NewAttrConstraint("exp_type", "exp_type")
	kind.Value = []string{"NRC_.*|MIR_.*"}
	kind.ForceUnique = false
	template := AllOf(kind, NewAttrConstraint("opt_elem", "filter"))
	before := template.GoString()

	const workers = 16
	got := make([]map[string]string, workers)
	rejected := make([]bool, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			filter := fmt.Sprintf("F%03dW", i)

			lineage, _ := Evaluate(testutil.Item("exp_type", "NRC_IMAGE", "filter", filter), template)
			if lineage == nil {
				return
			}
			next, _ := Evaluate(testutil.Item("exp_type", "MIR_IMAGE", "filter", filter), lineage)
			if next == nil {
				return
			}
			other, _ := Evaluate(testutil.Item("exp_type", "NRC_IMAGE", "filter", filter+"X"), next)
			rejected[i] = other == nil
			got[i] = next.Values()
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NotNil(t, got[i], "lineage %d", i)
		assert.Equal(t, fmt.Sprintf("F%03dW", i), got[i]["opt_elem"])
		assert.True(t, rejected[i], "lineage %d accepted a different filter", i)
	}
	assert.Equal(t, before, template.GoString())
	assert.NotContains(t, template.Values(), "opt_elem")
}

func TestTree_LeavesDepthFirst(t *testing.T) {
	tree := AllOf(
		NewAttrConstraint("a", "a"),
		AnyOf(
			NewAttrConstraint("b", "b"),
			AllOf(NewAttrConstraint("c", "c")),
		),
		NewAttrConstraint("d", "d"),
	)

	var names []string
	for _, leaf := range tree.Leaves() {
		names = append(names, leaf.ConstraintName())
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
}

func TestTree_Lookup(t *testing.T) {
	inner := MustTree([]Constraint{NewAttrConstraint("dup", "second")}, Any, "inner")
	tree := AllOf(
		NewAttrConstraint("dup", "first"),
		inner,
	)

	found, err := tree.Lookup("dup")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, found.(*AttrConstraint).Sources, "first depth-first match wins")

	sub, err := tree.Lookup("inner")
	require.NoError(t, err)
	assert.Same(t, inner, sub)

	_, err = tree.Lookup("missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestTree_FoundValues(t *testing.T) {
	exp := NewAttrConstraint("exp_type", "exp_type")
	exp.Value = []string{"NRC_IMAGE|NRC_TACQ"}
	exp.ForceUnique = false
	tree := AllOf(exp, NewAttrConstraint("target", "targetid"))

	first, _ := Evaluate(testutil.Item("exp_type", "NRC_IMAGE", "targetid", "t.1"), tree)
	require.NotNil(t, first)
	second, _ := Evaluate(testutil.Item("exp_type", "NRC_TACQ", "targetid", "t.1"), first)
	require.NotNil(t, second)

	assert.Equal(t, map[string][]string{
		"exp_type": {"NRC_IMAGE", "NRC_TACQ"},
		"target":   {"t.1"},
	}, second.FoundValues())
}

func TestTree_StringListsNamedLeaves(t *testing.T) {
	tree := AllOf(
		NewAttrConstraint("program", "program"),
		&TrueConstraint{},
	)
	assert.Equal(t, "AttrConstraint{name=program sources=[program] value=<any>}", tree.String())
}
