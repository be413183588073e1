package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/constfold/internal/engine"
	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/store"
)

// Option configures a scenario run.
type Option func(*options)

type options struct {
	reg    *ir.Registry
	logger *slog.Logger
}

// WithRegistry parses cases against reg instead of the built-in formats.
func WithRegistry(reg *ir.Registry) Option {
	return func(o *options) { o.reg = reg }
}

// WithLogger sets the logger handed to the engine. Logs are discarded by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run folds the scenario's cases as one batch and checks the outcomes.
//
// Each run journals into a fresh in-memory store and then replays the
// journal, so a scenario also fails when its run is not reproducible.
// The run id is fixed and sequence numbers restart at 1, so traces are
// stable across runs.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		reg:    ir.DefaultRegistry(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	flags, err := scenario.FoldFlags()
	if err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := scenario.RunID
	if runID == "" {
		runID = defaultRunID
	}
	engineOpts := []engine.Option{
		engine.WithRegistry(o.reg),
		engine.WithFlags(flags),
		engine.WithRunIDs(engine.NewFixedGenerator(runID)),
		engine.WithLogger(o.logger),
		engine.WithJournal(st),
	}
	if scenario.Target != nil {
		engineOpts = append(engineOpts, engine.WithTarget(*scenario.Target))
	}
	eng := engine.New(engineOpts...)

	batch, err := eng.Run(ctx, scenario.Requests())
	if err != nil {
		return nil, fmt.Errorf("failed to run scenario: %w", err)
	}

	result := NewResult()
	result.RunID = batch.RunID
	if names := flags.Names(); names != nil {
		result.Flags = names
	}
	for i, out := range batch.Outcomes {
		result.Trace = append(result.Trace, traceEvent(out))
		if msg := checkCase(scenario.Cases[i], out, o.reg); msg != "" {
			result.AddError(fmt.Sprintf("case %d (%s): %s", i, caseLabel(scenario.Cases[i]), msg))
		}
	}

	for _, msg := range EvaluateAssertions(result.Trace, scenario.Assertions) {
		result.AddError(msg)
	}

	if err := verifyReplay(ctx, st, batch.RunID, o, result); err != nil {
		return nil, err
	}
	return result, nil
}

func traceEvent(o engine.Outcome) TraceEvent {
	args := o.Request.Args
	if args == nil {
		args = []string{}
	}
	return TraceEvent{
		Seq:    o.Seq,
		Fn:     o.Request.Fn,
		Type:   o.Request.Type,
		Args:   args,
		Status: string(o.Status),
		Result: o.Result,
		Error:  o.Error,
	}
}

// checkCase returns a failure message, or "" when out matches c.
func checkCase(c Case, out engine.Outcome, reg *ir.Registry) string {
	switch {
	case c.NotFolded:
		if out.Status != engine.StatusNotFolded {
			return fmt.Sprintf("expected not_folded, got %s", describe(out))
		}
	case c.Invalid:
		if out.Status != engine.StatusInvalid {
			return fmt.Sprintf("expected invalid, got %s", describe(out))
		}
	default:
		if out.Status != engine.StatusFolded {
			return fmt.Sprintf("expected %s, got %s", c.Expect, describe(out))
		}
		want, err := ir.ParseConstant(c.Expect, reg)
		if err != nil {
			return fmt.Sprintf("bad expect %q: %v", c.Expect, err)
		}
		got, err := ir.ParseConstant(out.Result, reg)
		if err != nil {
			return fmt.Sprintf("unparseable result %q: %v", out.Result, err)
		}
		if !ir.Identical(want, got) {
			return fmt.Sprintf("expected %s, got %s", want, got)
		}
	}
	return ""
}

func describe(o engine.Outcome) string {
	switch o.Status {
	case engine.StatusFolded:
		return o.Result
	case engine.StatusInvalid:
		return "invalid (" + o.Error + ")"
	default:
		return string(o.Status)
	}
}

func caseLabel(c Case) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Fn
}

// verifyReplay reads the journaled run back and re-folds it under the
// recorded configuration.
func verifyReplay(ctx context.Context, st *store.Store, runID string, o options, result *Result) error {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to read journaled run: %w", err)
	}
	recs, err := st.ReadFoldRecords(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to read journaled records: %w", err)
	}

	replayer, err := engine.NewForRun(run, engine.WithRegistry(o.reg), engine.WithLogger(o.logger))
	if err != nil {
		return fmt.Errorf("failed to configure replay: %w", err)
	}
	rr, err := replayer.Replay(ctx, recs)
	if err != nil {
		return fmt.Errorf("failed to replay run: %w", err)
	}
	for _, d := range rr.Divergences {
		result.AddError(fmt.Sprintf("replay seq %d: %s (recorded %s %q, replayed %s %q)",
			d.Seq, d.Reason, d.RecordedStatus, d.RecordedResult, d.ReplayedStatus, d.ReplayedResult))
	}
	return nil
}
