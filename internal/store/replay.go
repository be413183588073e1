package store

import (
	"context"
	"fmt"

	"github.com/roach88/constfold/internal/ir"
)

// RunState is a run with its records, as needed to replay it.
type RunState struct {
	Run     ir.Run
	Records []ir.FoldRecord
	LastSeq int64

	// IsComplete is true when every request of the run has a record and
	// the seqs are exactly 1..Requests. A batch interrupted between
	// writing the run and its records is incomplete.
	IsComplete bool

	// Missing counts requests without a record.
	Missing int
}

// GetRunState loads a run and checks that its journal is whole.
func (s *Store) GetRunState(ctx context.Context, runID string) (RunState, error) {
	var state RunState

	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	state.Run = run

	recs, err := s.ReadFoldRecords(ctx, runID)
	if err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	state.Records = recs

	contiguous := true
	for i, rec := range recs {
		if rec.Seq != int64(i+1) {
			contiguous = false
		}
		if rec.Seq > state.LastSeq {
			state.LastSeq = rec.Seq
		}
	}
	state.Missing = max(run.Requests-len(recs), 0)
	state.IsComplete = contiguous && len(recs) == run.Requests
	return state, nil
}
