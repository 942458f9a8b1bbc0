package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/asngen/internal/ir"
)

// WriteRun persists a run in a single transaction.
//
// An empty rec.Run.ID is filled with a fresh UUIDv7. rec.Run.Seq is always
// assigned here, one past the highest stored seq. The count fields and
// versions are derived from the record, so callers only set PoolSource,
// Rules, MaxSteps and Steps.
//
// Writing a run whose ID already exists is an error; runs are immutable.
func (s *Store) WriteRun(ctx context.Context, rec *RunRecord) error {
	run := &rec.Run
	if run.ID == "" {
		run.ID = uuid.Must(uuid.NewV7()).String()
	}
	run.Items = len(rec.Pool)
	run.Associations = len(rec.Associations)
	run.Orphans = len(rec.Orphans)
	run.GeneratorVersion = ir.GeneratorVersion
	run.SchemaVersion = ir.SchemaVersion

	rulesJSON, err := marshalRules(run.Rules)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, pool_source, rules, max_steps, item_count, association_count, orphan_count, steps, generator_version, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.PoolSource,
		rulesJSON,
		run.MaxSteps,
		run.Items,
		run.Associations,
		run.Orphans,
		run.Steps,
		run.GeneratorVersion,
		run.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	if err := writePool(ctx, tx, run.ID, rec.Pool, rec.Orphans); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	for _, a := range rec.Associations {
		if err := writeAssociation(ctx, tx, run.ID, a); err != nil {
			return fmt.Errorf("write run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// writePool inserts the pool in order, flagging items whose key appears
// among the orphans.
func writePool(ctx context.Context, tx *sql.Tx, runID string, pool, orphans []ir.Item) error {
	orphanKeys := make(map[string]bool, len(orphans))
	for _, o := range orphans {
		k, err := ir.ItemKey(o)
		if err != nil {
			return fmt.Errorf("orphan key: %w", err)
		}
		orphanKeys[k] = true
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pool_items (run_id, position, item_key, data, orphan)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare pool insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range pool {
		key, err := ir.ItemKey(item)
		if err != nil {
			return fmt.Errorf("pool item %d: %w", i, err)
		}
		data, err := marshalItem(item)
		if err != nil {
			return fmt.Errorf("pool item %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, key, data, orphanKeys[key]); err != nil {
			return fmt.Errorf("insert pool item %d: %w", i, err)
		}
	}
	return nil
}

// writeAssociation inserts one association and its members.
// A second association with the same rule and member set violates the
// (run_id, membership_hash) constraint.
func writeAssociation(ctx context.Context, tx *sql.Tx, runID string, a *ir.Association) error {
	hash, err := ir.MembershipHash(a.Rule, a.Members)
	if err != nil {
		return fmt.Errorf("association %s: %w", a.ID, err)
	}
	constraints, err := marshalConstraints(a.Constraints)
	if err != nil {
		return fmt.Errorf("association %s: %w", a.ID, err)
	}
	found, err := marshalFoundValues(a.FoundValues)
	if err != nil {
		return fmt.Errorf("association %s: %w", a.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO associations (run_id, id, seq, rule, membership_hash, constraints, found_values, name, invalid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, a.ID, a.Seq, a.Rule, hash, constraints, found, a.Name, a.Invalid)
	if err != nil {
		return fmt.Errorf("insert association %s: %w", a.ID, err)
	}

	for i, m := range a.Members {
		key, err := ir.ItemKey(m)
		if err != nil {
			return fmt.Errorf("association %s member %d: %w", a.ID, i, err)
		}
		data, err := marshalItem(m)
		if err != nil {
			return fmt.Errorf("association %s member %d: %w", a.ID, i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO members (run_id, association_id, position, item_key, data)
			VALUES (?, ?, ?, ?, ?)
		`, runID, a.ID, i, key, data)
		if err != nil {
			return fmt.Errorf("insert member %d of %s: %w", i, a.ID, err)
		}
	}
	return nil
}
