package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/propsolve/internal/ir"
)

// ErrNotFound is returned when a pass id has no record.
var ErrNotFound = errors.New("not found")

// ReadPass returns one pass with its properties and stats.
func (s *Store) ReadPass(ctx context.Context, id string) (ir.PassRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, model, model_hash, solver, mode, status, result_digest, constraint_count, error
		FROM passes
		WHERE id = ?
	`, id)
	rec, err := scanPass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.PassRecord{}, fmt.Errorf("pass %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.PassRecord{}, err
	}

	if rec.Properties, err = s.readProperties(ctx, id); err != nil {
		return ir.PassRecord{}, err
	}
	if rec.Stats, err = s.readStats(ctx, id); err != nil {
		return ir.PassRecord{}, err
	}
	return rec, nil
}

// ListPasses returns the passes of a model in seq order, without their
// properties or stats. An empty model lists every pass.
//
// Returns an empty slice (not nil) if no passes exist.
func (s *Store) ListPasses(ctx context.Context, model string) ([]ir.PassRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, model, model_hash, solver, mode, status, result_digest, constraint_count, error
		FROM passes
		WHERE ? = '' OR model = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, model, model)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []ir.PassRecord{}
	for rows.Next() {
		rec, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// LastProperties returns the properties of the latest successful pass of a
// model under a solver. Manual annotation passes are skipped; a clear pass
// resets the history, so ok is false when the latest pass cleared it.
func (s *Store) LastProperties(ctx context.Context, model, solver string) (map[string]string, bool, error) {
	var id, mode string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mode
		FROM passes
		WHERE model = ? AND solver = ? AND status = ? AND mode != 'manual'
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, model, solver, string(ir.PassOK)).Scan(&id, &mode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("last properties: %w", err)
	}
	if mode == "clear" {
		return nil, false, nil
	}

	props, err := s.readProperties(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return props, true, nil
}

// Golden returns the trained properties of a model under a solver.
// Returns an empty map (not nil) if none were saved.
func (s *Store) Golden(ctx context.Context, modelHash, solver string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT component, element
		FROM golden
		WHERE model_hash = ? AND solver = ?
		ORDER BY component COLLATE BINARY ASC
	`, modelHash, solver)
	if err != nil {
		return nil, fmt.Errorf("query golden: %w", err)
	}
	return scanPairs(rows, "golden")
}

// MaxSeq returns the highest recorded seq, or 0 for an empty store.
// A clock seeded with it keeps seq increasing across runs.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM passes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) readProperties(ctx context.Context, passID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT component, element
		FROM properties
		WHERE pass_id = ?
		ORDER BY component COLLATE BINARY ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	return scanPairs(rows, "properties")
}

func (s *Store) readStats(ctx context.Context, passID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value
		FROM stats
		WHERE pass_id = ?
		ORDER BY name COLLATE BINARY ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

func scanPairs(rows *sql.Rows, what string) (map[string]string, error) {
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPass(row scanner) (ir.PassRecord, error) {
	var rec ir.PassRecord
	var status string
	err := row.Scan(
		&rec.ID,
		&rec.Seq,
		&rec.Model,
		&rec.ModelHash,
		&rec.Solver,
		&rec.Mode,
		&status,
		&rec.ResultDigest,
		&rec.Constraints,
		&rec.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan pass: %w", err)
	}
	rec.Status = ir.PassStatus(status)
	return rec, nil
}
