package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines an association test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules lists paths to CUE rule files to compile and load.
	Rules []string `yaml:"rules"`

	// Pool holds inline items. Keys and values are normalized the way
	// pool files are.
	Pool []map[string]string `yaml:"pool,omitempty"`

	// PoolFile names a pool file, relative to the scenario file.
	// Exclusive with Pool.
	PoolFile string `yaml:"pool_file,omitempty"`

	// Only restricts generation to the named rules.
	Only []string `yaml:"only,omitempty"`

	// MaxSteps overrides the engine's step quota when positive.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// ValidOnly drops associations that fail their rule's validity checks.
	ValidOnly bool `yaml:"valid_only,omitempty"`

	// Expect holds whole-run expectations.
	Expect Expect `yaml:"expect"`

	// Assertions validate individual associations and orphans.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect specifies whole-run expectations. Nil counts are not checked.
type Expect struct {
	Associations *int           `yaml:"associations,omitempty"`
	Orphans      *int           `yaml:"orphans,omitempty"`
	ByRule       map[string]int `yaml:"by_rule,omitempty"`

	// Invalid is the number of associations failing validity checks.
	Invalid *int `yaml:"invalid,omitempty"`

	// Error, when set, requires generation to fail with an error whose
	// message contains it.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the generated output.
type Assertion struct {
	// Type specifies the assertion type:
	// - "member_of": an association holds a matching member
	// - "bound_value": an association bound a constraint to a value
	// - "orphan": a matching pool item was orphaned
	// - "asn_name": an association carries the name in Value
	Type string `yaml:"type"`

	// Rule restricts member_of, bound_value and asn_name to one rule's
	// associations.
	Rule string `yaml:"rule,omitempty"`

	// Item is a subset of attributes a member or orphan must carry
	// (used by member_of and orphan).
	Item map[string]string `yaml:"item,omitempty"`

	// Count, when set, is the exact number of associations that must hold
	// a matching member (used by member_of).
	Count *int `yaml:"count,omitempty"`

	// Name and Value are the constraint name and bound value (used by
	// bound_value). asn_name uses Value alone.
	Name  string `yaml:"name,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertMemberOf   = "member_of"
	AssertBoundValue = "bound_value"
	AssertOrphan     = "orphan"
	AssertAsnName    = "asn_name"
)

// LoadScenario reads and parses a scenario YAML file.
// Rule paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving rule paths relative to basePath. The pool file is always
// resolved relative to the scenario file.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve paths BEFORE validation
	for i, rulePath := range scenario.Rules {
		if !filepath.IsAbs(rulePath) && basePath != "" {
			scenario.Rules[i] = filepath.Join(basePath, rulePath)
		}
	}
	if scenario.PoolFile != "" && !filepath.IsAbs(scenario.PoolFile) {
		scenario.PoolFile = filepath.Join(filepath.Dir(path), scenario.PoolFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Rules) == 0 {
		return fmt.Errorf("rules list is required and must be non-empty")
	}

	for _, rulePath := range s.Rules {
		if _, err := os.Stat(rulePath); os.IsNotExist(err) {
			return fmt.Errorf("rule file not found: %s", rulePath)
		}
	}

	switch {
	case s.Pool != nil && s.PoolFile != "":
		return fmt.Errorf("pool and pool_file are mutually exclusive")
	case s.Pool == nil && s.PoolFile == "":
		return fmt.Errorf("pool or pool_file is required")
	case s.PoolFile != "":
		if _, err := os.Stat(s.PoolFile); os.IsNotExist(err) {
			return fmt.Errorf("pool file not found: %s", s.PoolFile)
		}
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}
	if s.Expect.Invalid != nil && *s.Expect.Invalid < 0 {
		return fmt.Errorf("expect.invalid must be non-negative")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertMemberOf:
		if len(a.Item) == 0 {
			return fmt.Errorf("assertions[%d]: item is required for member_of", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for member_of", index)
		}
	case AssertBoundValue:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for bound_value", index)
		}
	case AssertOrphan:
		if len(a.Item) == 0 {
			return fmt.Errorf("assertions[%d]: item is required for orphan", index)
		}
	case AssertAsnName:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for asn_name", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
