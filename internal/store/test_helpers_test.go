package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/asngen/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord builds a run over three items: two grouped by filter
// F070LP and one orphan.
func createTestRecord(id string) *RunRecord {
	a := ir.Item{"filename": "a.fits", "filter": "F070LP"}
	b := ir.Item{"filename": "b.fits", "filter": "F070LP"}
	c := ir.Item{"filename": "c.fits"}

	return &RunRecord{
		Run: Run{
			ID:         id,
			PoolSource: "pool.csv",
			Rules:      []string{"Asn_Image"},
			MaxSteps:   100,
			Steps:      3,
		},
		Pool: []ir.Item{a, b, c},
		Associations: []*ir.Association{{
			ID:          id + "-asn-001",
			Rule:        "Asn_Image",
			Seq:         1,
			Constraints: map[string]string{"opt_elem": "F070LP"},
			FoundValues: map[string][]string{"opt_elem": {"F070LP"}},
			Members:     []ir.Item{a, b},
		}},
		Orphans: []ir.Item{c},
	}
}
