package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/constfold/internal/fold"
	"github.com/roach88/constfold/internal/ir"
)

// Replay re-folds journaled records and compares the outcomes with what
// was recorded. Folding is a pure function of the request, the flags and
// the target, so any difference is a bug: either in the folder or in the
// journal.

// Divergence is one record whose replayed outcome differs.
type Divergence struct {
	Seq     int64   `json:"seq"`
	Request Request `json:"request"`
	Reason  string  `json:"reason"`

	RecordedStatus Status `json:"recorded_status"`
	RecordedResult string `json:"recorded_result,omitempty"`
	ReplayedStatus Status `json:"replayed_status"`
	ReplayedResult string `json:"replayed_result,omitempty"`
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	RunID       string       `json:"run_id"`
	Replayed    int          `json:"replayed"`
	Divergences []Divergence `json:"divergences"`
}

// Deterministic reports whether every record replayed identically.
func (r *ReplayResult) Deterministic() bool {
	return len(r.Divergences) == 0
}

// NewForRun creates an Engine configured with the flags and target that
// run was folded under. opts are applied first, so they cannot override
// the recorded configuration.
func NewForRun(run ir.Run, opts ...Option) (*Engine, error) {
	if run.TextVersion != ir.TextVersion {
		return nil, fmt.Errorf("run %s uses text version %q, this build reads %q", run.ID, run.TextVersion, ir.TextVersion)
	}
	flags, err := fold.ParseFlags(run.Flags)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}
	var target fold.Target
	if run.Target != "" {
		if err := json.Unmarshal([]byte(run.Target), &target); err != nil {
			return nil, fmt.Errorf("run %s: target: %w", run.ID, err)
		}
	}
	return New(append(opts, WithFlags(flags), WithTarget(target))...), nil
}

// Replay re-folds recs, which must all belong to one run, and reports
// every divergence in seq order.
func (e *Engine) Replay(ctx context.Context, recs []ir.FoldRecord) (*ReplayResult, error) {
	res := &ReplayResult{Divergences: []Divergence{}}
	if len(recs) == 0 {
		return res, nil
	}
	res.RunID = recs[0].RunID

	replayed := make([]Outcome, len(recs))
	for i, rec := range recs {
		if rec.RunID != res.RunID {
			return nil, fmt.Errorf("record %d belongs to run %s, not %s", rec.Seq, rec.RunID, res.RunID)
		}
		replayed[i] = Outcome{
			Seq:     rec.Seq,
			Request: Request{Fn: rec.Fn, Type: rec.ResultType, Args: rec.Args},
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := range replayed {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.evaluate(&replayed[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("replay %s: %w", res.RunID, err)
	}

	for i, rec := range recs {
		o := replayed[i]
		res.Replayed++
		var reason string
		switch {
		case o.Digest != rec.Digest:
			reason = "request digest differs"
		case string(o.Status) != rec.Status:
			reason = "status differs"
		case o.Result != rec.Result:
			reason = "result differs"
		default:
			continue
		}
		res.Divergences = append(res.Divergences, Divergence{
			Seq:            rec.Seq,
			Request:        o.Request,
			Reason:         reason,
			RecordedStatus: Status(rec.Status),
			RecordedResult: rec.Result,
			ReplayedStatus: o.Status,
			ReplayedResult: o.Result,
		})
	}

	e.logger.Info("replay finished",
		"run_id", res.RunID,
		"replayed", res.Replayed,
		"divergences", len(res.Divergences))
	return res, nil
}
