package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/asngen/internal/compiler"
	"github.com/roach88/asngen/internal/engine"
	"github.com/roach88/asngen/internal/ir"
	"github.com/roach88/asngen/internal/pool"
	"github.com/roach88/asngen/internal/testutil"
)

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load and compile the scenario's rule files
// 2. Build the pool from inline items or the pool file
// 3. Generate with sequential association IDs
// 4. Check expectations and assertions
//
// Errors loading rules or the pool are returned as errors. A generation
// failure is a test outcome: it passes only if expect.error anticipates it.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, errs := compiler.LoadRuleFiles(scenario.Rules, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load rules: %w", errors.Join(errs...))
	}

	items, err := scenarioPool(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	opts := []engine.Option{
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	}
	if scenario.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(scenario.MaxSteps))
	}
	if len(scenario.Only) > 0 {
		opts = append(opts, engine.WithRuleFilter(scenario.Only...))
	}
	if scenario.ValidOnly {
		opts = append(opts, engine.WithValidOnly())
	}
	eng := engine.New(loaded.Rules, testutil.NewSequentialIDGenerator("asn"), opts...)

	result := NewResult()
	generated, genErr := eng.Generate(ctx, items)
	if genErr != nil {
		checkExpectedError(result, scenario.Expect.Error, genErr)
		return result, nil
	}
	if scenario.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected generation to fail with %q, but it succeeded", scenario.Expect.Error))
	}

	result.Associations = generated.Associations
	result.Orphans = generated.Orphans
	result.Steps = generated.Steps

	checkExpect(result, scenario.Expect, generated.ByRule())
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func scenarioPool(s *Scenario) ([]ir.Item, error) {
	if s.PoolFile != "" {
		return pool.LoadFile(s.PoolFile)
	}
	items := make([]ir.Item, len(s.Pool))
	for i, raw := range s.Pool {
		items[i] = pool.Normalize(raw)
	}
	return items, nil
}

func checkExpectedError(result *Result, want string, err error) {
	if want == "" {
		result.AddError(fmt.Sprintf("generation failed: %v", err))
		return
	}
	if !strings.Contains(err.Error(), want) {
		result.AddError(fmt.Sprintf("generation error %q does not contain %q", err.Error(), want))
	}
}

// checkExpect compares whole-run counts.
func checkExpect(result *Result, want Expect, byRule map[string]int) {
	if want.Associations != nil && len(result.Associations) != *want.Associations {
		result.AddError(fmt.Sprintf("expected %d association(s), got %d", *want.Associations, len(result.Associations)))
	}
	if want.Orphans != nil && len(result.Orphans) != *want.Orphans {
		result.AddError(fmt.Sprintf("expected %d orphan(s), got %d", *want.Orphans, len(result.Orphans)))
	}
	if want.Invalid != nil {
		invalid := 0
		for _, a := range result.Associations {
			if a.Invalid {
				invalid++
			}
		}
		if invalid != *want.Invalid {
			result.AddError(fmt.Sprintf("expected %d invalid association(s), got %d", *want.Invalid, invalid))
		}
	}

	rules := make([]string, 0, len(want.ByRule))
	for rule := range want.ByRule {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	for _, rule := range rules {
		if got := byRule[rule]; got != want.ByRule[rule] {
			result.AddError(fmt.Sprintf("expected %d association(s) of %s, got %d", want.ByRule[rule], rule, got))
		}
	}
}
