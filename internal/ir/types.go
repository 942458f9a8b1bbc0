package ir

// Association is the output grouping of items that jointly satisfied a rule.
type Association struct {
	ID   string `json:"id"`
	Rule string `json:"rule"`
	Seq  int64  `json:"seq"` // Creation order within a run

	// Constraints holds the bound value of every named leaf constraint,
	// unescaped for display. Unbound leaves are absent.
	Constraints map[string]string `json:"constraints"`

	// FoundValues holds every distinct value matched per named attribute constraint.
	FoundValues map[string][]string `json:"found_values,omitempty"`

	Members []Item `json:"members"`

	// Name is rendered from the rule's name template; empty when the rule
	// has none.
	Name string `json:"name,omitempty"`

	// Invalid marks an association that failed one of its rule's
	// validity checks.
	Invalid bool `json:"invalid,omitempty"`
}

// Valid reports whether the association passed its rule's validity checks.
func (a *Association) Valid() bool { return !a.Invalid }

// HasMember reports whether an equal item is already a member.
func (a *Association) HasMember(item Item) bool {
	for _, m := range a.Members {
		if m.Equal(item) {
			return true
		}
	}
	return false
}

// canonicalMap converts the association into plain maps for MarshalCanonical.
// The ID is excluded when withID is false so golden output stays stable.
func (a *Association) canonicalMap(withID bool) map[string]any {
	members := make([]any, len(a.Members))
	for i, m := range a.Members {
		members[i] = m
	}
	constraints := make(map[string]any, len(a.Constraints))
	for k, v := range a.Constraints {
		constraints[k] = v
	}
	out := map[string]any{
		"rule":        a.Rule,
		"seq":         a.Seq,
		"constraints": constraints,
		"members":     members,
	}
	if len(a.FoundValues) > 0 {
		found := make(map[string]any, len(a.FoundValues))
		for k, vs := range a.FoundValues {
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			found[k] = list
		}
		out["found_values"] = found
	}
	if a.Name != "" {
		out["name"] = a.Name
	}
	if a.Invalid {
		out["invalid"] = true
	}
	if withID {
		out["id"] = a.ID
	}
	return out
}
