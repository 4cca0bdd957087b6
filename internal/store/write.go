package store

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/propsolve/internal/ir"
)

// WritePass inserts a pass record with its properties and stats.
// Uses ON CONFLICT DO NOTHING for idempotency - a pass id written twice
// keeps its first row set. All rows are written in one transaction.
func (s *Store) WritePass(ctx context.Context, rec ir.PassRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write pass: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO passes
		(id, seq, model, model_hash, solver, mode, status, result_digest, constraint_count, error, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Seq,
		rec.Model,
		rec.ModelHash,
		rec.Solver,
		rec.Mode,
		string(rec.Status),
		rec.ResultDigest,
		rec.Constraints,
		rec.Error,
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write pass: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write pass: %w", err)
	}
	if n == 0 {
		// Already recorded.
		return tx.Commit()
	}

	if err := insertProperties(ctx, tx, rec.ID, rec.Properties); err != nil {
		return fmt.Errorf("write pass: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(rec.Stats)) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stats (pass_id, name, value) VALUES (?, ?, ?)
			ON CONFLICT(pass_id, name) DO NOTHING
		`, rec.ID, name, rec.Stats[name]); err != nil {
			return fmt.Errorf("write pass: stat %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write pass: %w", err)
	}
	return nil
}

// RecordPass implements solver.Recorder.
func (s *Store) RecordPass(ctx context.Context, rec ir.PassRecord) error {
	return s.WritePass(ctx, rec)
}

func insertProperties(ctx context.Context, tx *sql.Tx, passID string, props map[string]string) error {
	for _, component := range slices.Sorted(maps.Keys(props)) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO properties (pass_id, component, element) VALUES (?, ?, ?)
			ON CONFLICT(pass_id, component) DO NOTHING
		`, passID, component, props[component]); err != nil {
			return fmt.Errorf("property %q: %w", component, err)
		}
	}
	return nil
}

// SaveGolden replaces the golden properties of a model under a solver.
func (s *Store) SaveGolden(ctx context.Context, modelHash, solver string, props map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save golden: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM golden WHERE model_hash = ? AND solver = ?`, modelHash, solver); err != nil {
		return fmt.Errorf("save golden: %w", err)
	}
	for _, component := range slices.Sorted(maps.Keys(props)) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO golden (model_hash, solver, component, element) VALUES (?, ?, ?, ?)
		`, modelHash, solver, component, props[component]); err != nil {
			return fmt.Errorf("save golden: %q: %w", component, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save golden: %w", err)
	}
	return nil
}

// ClearGolden removes the golden properties of a model under a solver.
// Clearing a model with no golden values is not an error.
func (s *Store) ClearGolden(ctx context.Context, modelHash, solver string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM golden WHERE model_hash = ? AND solver = ?`, modelHash, solver); err != nil {
		return fmt.Errorf("clear golden: %w", err)
	}
	return nil
}
