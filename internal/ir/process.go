package ir

import (
	"fmt"
	"strings"
)

// WorkOver selects what a reprocess entry is matched against.
type WorkOver int

const (
	// WorkOverBoth matches against existing associations and the rule set.
	WorkOverBoth WorkOver = iota + 1
	// WorkOverExisting matches only against existing associations.
	WorkOverExisting
	// WorkOverRules matches only against the rule set, creating new associations.
	WorkOverRules
)

// String returns the lowercase mode name.
func (w WorkOver) String() string {
	switch w {
	case WorkOverBoth:
		return "both"
	case WorkOverExisting:
		return "existing"
	case WorkOverRules:
		return "rules"
	default:
		return fmt.Sprintf("workover(%d)", int(w))
	}
}

// IncludesExisting reports whether existing associations are in scope.
func (w WorkOver) IncludesExisting() bool {
	return w == WorkOverBoth || w == WorkOverExisting
}

// IncludesRules reports whether rule templates are in scope.
func (w WorkOver) IncludesRules() bool {
	return w == WorkOverBoth || w == WorkOverRules
}

// ParseWorkOver converts "both", "existing" or "rules" into a WorkOver.
func ParseWorkOver(s string) (WorkOver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both":
		return WorkOverBoth, nil
	case "existing":
		return WorkOverExisting, nil
	case "rules":
		return WorkOverRules, nil
	default:
		return 0, fmt.Errorf("invalid work-over mode %q, must be \"both\", \"existing\", or \"rules\"", s)
	}
}

// ProcessList is a reprocess entry: items to offer again under a given scope.
//
// Entries are created during one evaluation and consumed once by the driver.
// When OnlyOnMatch is set the driver must discard the entry if the
// surrounding constraint did not match.
type ProcessList struct {
	Items       []Item   `json:"items"`
	WorkOver    WorkOver `json:"work_over"`
	OnlyOnMatch bool     `json:"only_on_match,omitempty"`

	// Rules restricts rule-set matching to these rule names. Empty means all rules.
	Rules []string `json:"rules,omitempty"`
}

// NewProcessList builds an entry with WorkOverBoth.
func NewProcessList(items ...Item) ProcessList {
	return ProcessList{Items: items, WorkOver: WorkOverBoth}
}

// Mode returns WorkOver, defaulting an unset mode to WorkOverBoth.
func (p ProcessList) Mode() WorkOver {
	if p.WorkOver == 0 {
		return WorkOverBoth
	}
	return p.WorkOver
}

// AllowsRule reports whether the named rule is in scope for this entry.
func (p ProcessList) AllowsRule(name string) bool {
	if len(p.Rules) == 0 {
		return true
	}
	for _, r := range p.Rules {
		if r == name {
			return true
		}
	}
	return false
}
