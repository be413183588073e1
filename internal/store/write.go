package store

import (
	"context"
	"fmt"

	"github.com/roach88/constfold/internal/ir"
)

// WriteRun inserts a run. Uses ON CONFLICT(id) DO NOTHING, so writing the
// same run twice is a no-op.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	flagsJSON, err := marshalStrings(run.Flags)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	target := run.Target
	if target == "" {
		target = "{}"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, flags, target, requests, folded, not_folded, invalid, engine_version, text_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		flagsJSON,
		target,
		run.Requests,
		run.Folded,
		run.NotFolded,
		run.Invalid,
		run.EngineVersion,
		run.TextVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteFoldRecords inserts records in one transaction. Records whose id
// already exists are skipped; any other failure rolls back the batch.
// The run each record names must already exist.
func (s *Store) WriteFoldRecords(ctx context.Context, recs []ir.FoldRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write fold records: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fold_records
		(id, run_id, seq, digest, fn, result_type, args, status, result, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write fold records: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		argsJSON, err := marshalStrings(rec.Args)
		if err != nil {
			return fmt.Errorf("write fold record %d: %w", rec.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.RunID,
			rec.Seq,
			rec.Digest,
			rec.Fn,
			rec.ResultType,
			argsJSON,
			rec.Status,
			rec.Result,
			rec.Error,
		); err != nil {
			return fmt.Errorf("write fold record %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write fold records: commit: %w", err)
	}
	return nil
}
