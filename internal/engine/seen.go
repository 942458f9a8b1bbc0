package engine

import (
	"strings"

	"github.com/roach88/asngen/internal/ir"
)

// seenTracker records which (item, scope, mode) triples a run has
// already processed.
//
// An item reaching the same scope under the same mode a second time would
// be evaluated against the same associations and templates and produce
// the same reprocess entries again. Skipping it is what guarantees that
// self-feeding reprocess chains terminate.
//
// Scope is the work list's rule restriction; an unrestricted list has
// the empty scope.
type seenTracker struct {
	history map[string]struct{}
}

func newSeenTracker() *seenTracker {
	return &seenTracker{history: make(map[string]struct{})}
}

// Visit records the triple and reports whether it was new.
func (s *seenTracker) Visit(itemKey string, pl ir.ProcessList) bool {
	key := itemKey + "|" + scopeKey(pl) + "|" + pl.Mode().String()
	if _, ok := s.history[key]; ok {
		return false
	}
	s.history[key] = struct{}{}
	return true
}

// Len returns the number of recorded triples.
func (s *seenTracker) Len() int {
	return len(s.history)
}

func scopeKey(pl ir.ProcessList) string {
	return strings.Join(pl.Rules, ",")
}
