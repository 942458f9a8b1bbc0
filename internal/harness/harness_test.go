package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{"image_by_filter", "candidate_split", "spec_fallback", "quota", "named_candidates", "named_valid_only"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_Golden(t *testing.T) {
	for _, name := range []string{"image_by_filter", "candidate_split", "named_candidates"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ReportsInvalidCountMismatch(t *testing.T) {
	s := loadTestScenario(t, "named_candidates")
	zero := 0
	s.Expect.Invalid = &zero

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"expected 0 invalid association(s), got 1"}, result.Errors)
}

func TestRun_SequentialIDs(t *testing.T) {
	result, err := Run(loadTestScenario(t, "image_by_filter"))
	require.NoError(t, err)
	require.Len(t, result.Associations, 2)
	assert.Equal(t, "asn-001", result.Associations[0].ID)
	assert.Equal(t, "asn-002", result.Associations[1].ID)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	s := loadTestScenario(t, "image_by_filter")
	three, zero := 3, 0
	s.Expect.Associations = &three
	s.Expect.Orphans = &zero
	s.Expect.ByRule = map[string]int{"Asn_Image": 1, "Asn_Other": 1}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"expected 3 association(s), got 2",
		"expected 0 orphan(s), got 1",
		"expected 1 association(s) of Asn_Image, got 2",
		"expected 1 association(s) of Asn_Other, got 0",
	}, result.Errors)
}

func TestRun_UnexpectedGenerationError(t *testing.T) {
	s := loadTestScenario(t, "quota")
	s.Expect.Error = ""

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "generation failed")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := loadTestScenario(t, "image_by_filter")
	s.Expect.Error = "boom"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `expected generation to fail with "boom"`)
}

func TestRun_RuleFilter(t *testing.T) {
	s := loadTestScenario(t, "image_by_filter")
	s.Only = []string{"Asn_Missing"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "UNKNOWN_RULE")
}

func TestRun_BadRulesIsError(t *testing.T) {
	s := loadTestScenario(t, "image_by_filter")
	s.Rules = []string{filepath.Join("testdata", "scenarios", "image_by_filter.yaml")}

	_, err := Run(s)
	assert.ErrorContains(t, err, "failed to load rules")
}
