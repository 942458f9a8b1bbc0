package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/asngen/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// ListRuns returns every stored run summary.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, pool_source, rules, max_steps, item_count, association_count, orphan_count, steps, generator_version, schema_version
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun loads a run with its pool, associations and orphans.
// Returns ErrRunNotFound (wrapped) if no run has the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, pool_source, rules, max_steps, item_count, association_count, orphan_count, steps, generator_version, schema_version
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}

	rec := &RunRecord{Run: run}
	if rec.Pool, rec.Orphans, err = s.readPool(ctx, id); err != nil {
		return nil, err
	}
	if rec.Associations, err = s.readAssociations(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

// readPool returns the pool in its original order and the orphaned subset.
func (s *Store) readPool(ctx context.Context, runID string) ([]ir.Item, []ir.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data, orphan
		FROM pool_items
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("query pool items: %w", err)
	}
	defer rows.Close()

	pool := []ir.Item{}
	orphans := []ir.Item{}
	for rows.Next() {
		var data string
		var orphan bool
		if err := rows.Scan(&data, &orphan); err != nil {
			return nil, nil, fmt.Errorf("scan pool item: %w", err)
		}
		item, err := unmarshalItem(data)
		if err != nil {
			return nil, nil, err
		}
		pool = append(pool, item)
		if orphan {
			orphans = append(orphans, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate pool items: %w", err)
	}
	return pool, orphans, nil
}

// readAssociations returns a run's associations with members.
// Ordered by seq ASC, id ASC COLLATE BINARY; members keep join order.
func (s *Store) readAssociations(ctx context.Context, runID string) ([]*ir.Association, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, rule, constraints, found_values, name, invalid
		FROM associations
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query associations: %w", err)
	}
	defer rows.Close()

	asns := []*ir.Association{}
	byID := make(map[string]*ir.Association)
	for rows.Next() {
		var a ir.Association
		var constraints, found string
		if err := rows.Scan(&a.ID, &a.Seq, &a.Rule, &constraints, &found, &a.Name, &a.Invalid); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		if a.Constraints, err = unmarshalConstraints(constraints); err != nil {
			return nil, err
		}
		if a.FoundValues, err = unmarshalFoundValues(found); err != nil {
			return nil, err
		}
		asns = append(asns, &a)
		byID[a.ID] = &a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate associations: %w", err)
	}

	if err := s.readMembers(ctx, runID, byID); err != nil {
		return nil, err
	}
	return asns, nil
}

func (s *Store) readMembers(ctx context.Context, runID string, byID map[string]*ir.Association) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT association_id, data
		FROM members
		WHERE run_id = ?
		ORDER BY association_id COLLATE BINARY ASC, position ASC
	`, runID)
	if err != nil {
		return fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var asnID, data string
		if err := rows.Scan(&asnID, &data); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		item, err := unmarshalItem(data)
		if err != nil {
			return err
		}
		a, ok := byID[asnID]
		if !ok {
			return fmt.Errorf("member references unknown association %s", asnID)
		}
		a.Members = append(a.Members, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate members: %w", err)
	}
	return nil
}

// AssociationsForItem returns the IDs of the associations in a run that
// hold an item with the given key, in association order.
func (s *Store) AssociationsForItem(ctx context.Context, runID, itemKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT a.id, a.seq
		FROM members m
		JOIN associations a ON a.run_id = m.run_id AND a.id = m.association_id
		WHERE m.run_id = ? AND m.item_key = ?
		ORDER BY a.seq ASC, a.id COLLATE BINARY ASC
	`, runID, itemKey)
	if err != nil {
		return nil, fmt.Errorf("query item associations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		var seq int64
		if err := rows.Scan(&id, &seq); err != nil {
			return nil, fmt.Errorf("scan item association: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item associations: %w", err)
	}
	return ids, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var rules string
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.PoolSource,
		&rules,
		&run.MaxSteps,
		&run.Items,
		&run.Associations,
		&run.Orphans,
		&run.Steps,
		&run.GeneratorVersion,
		&run.SchemaVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.Rules, err = unmarshalRules(rules); err != nil {
		return Run{}, err
	}
	return run, nil
}
