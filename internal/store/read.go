package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/constfold/internal/ir"
)

const runColumns = `id, flags, target, requests, folded, not_folded, invalid, engine_version, text_version`

// ReadRun retrieves a run by id. Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun returns the most recently written run. Returns sql.ErrNoRows
// when the journal is empty.
func (s *Store) LatestRun(ctx context.Context) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid DESC LIMIT 1`)
	return scanRun(row)
}

// ReadRuns returns every run in the order they were written.
func (s *Store) ReadRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
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

// ReadFoldRecords returns a run's records ordered by seq ASC, id ASC
// COLLATE BINARY. Returns an empty slice if the run has none.
func (s *Store) ReadFoldRecords(ctx context.Context, runID string) ([]ir.FoldRecord, error) {
	return s.queryFoldRecords(ctx, `
		SELECT id, run_id, seq, digest, fn, result_type, args, status, result, error
		FROM fold_records
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

// FindByDigest returns every record of the given request digest across
// runs, ordered by run then seq.
func (s *Store) FindByDigest(ctx context.Context, digest string) ([]ir.FoldRecord, error) {
	return s.queryFoldRecords(ctx, `
		SELECT f.id, f.run_id, f.seq, f.digest, f.fn, f.result_type, f.args, f.status, f.result, f.error
		FROM fold_records f
		JOIN runs r ON f.run_id = r.id
		WHERE f.digest = ?
		ORDER BY r.rowid ASC, f.seq ASC, f.id COLLATE BINARY ASC
	`, digest)
}

func (s *Store) queryFoldRecords(ctx context.Context, query string, arg any) ([]ir.FoldRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query fold records: %w", err)
	}
	defer rows.Close()

	recs := []ir.FoldRecord{}
	for rows.Next() {
		var rec ir.FoldRecord
		var argsJSON string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Seq, &rec.Digest, &rec.Fn,
			&rec.ResultType, &argsJSON, &rec.Status, &rec.Result, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan fold record: %w", err)
		}
		if rec.Args, err = unmarshalStrings(argsJSON); err != nil {
			return nil, fmt.Errorf("fold record %s: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fold records: %w", err)
	}
	return recs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.Run, error) {
	var run ir.Run
	var flagsJSON string
	err := row.Scan(&run.ID, &flagsJSON, &run.Target, &run.Requests, &run.Folded,
		&run.NotFolded, &run.Invalid, &run.EngineVersion, &run.TextVersion)
	if err == sql.ErrNoRows {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("scan run: %w", err)
	}
	if run.Flags, err = unmarshalStrings(flagsJSON); err != nil {
		return run, fmt.Errorf("run %s: %w", run.ID, err)
	}
	return run, nil
}
