package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/asngen/internal/ir"
)

// Snapshot renders a scenario's output as canonical JSON for golden
// comparison. Association IDs are omitted; seq carries creation order.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	orphans := make([]any, len(result.Orphans))
	for i, o := range result.Orphans {
		orphans[i] = o
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"associations":  ir.CanonicalAssociations(result.Associations, false),
		"orphans":       orphans,
	})
}

// RunWithGolden executes a scenario and compares its output against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
