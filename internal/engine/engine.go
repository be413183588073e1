package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/constfold/internal/fold"
	"github.com/roach88/constfold/internal/ir"
)

// Journal receives finished runs. *store.Store implements it.
type Journal interface {
	WriteRun(ctx context.Context, run ir.Run) error
	WriteFoldRecords(ctx context.Context, recs []ir.FoldRecord) error
}

// Engine folds batches of requests concurrently.
//
// Every request is folded fresh by the engine's Folder; the engine never
// consults earlier results, journaled or not. Outcomes come back in
// request order with seq 1..n regardless of which worker finished first.
type Engine struct {
	folder  *fold.Folder
	reg     *ir.Registry
	flags   fold.Flags
	target  fold.Target
	ids     RunIDGenerator
	limit   int
	metrics *Metrics

	maxRequests int

	logger  *slog.Logger
	journal Journal
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the format registry requests are parsed against.
// Default: ir.DefaultRegistry().
func WithRegistry(reg *ir.Registry) Option {
	return func(e *Engine) { e.reg = reg }
}

// WithFlags sets the numeric safety flags. Default: fold.DefaultFlags().
func WithFlags(fl fold.Flags) Option {
	return func(e *Engine) { e.flags = fl }
}

// WithTarget sets the target facts.
func WithTarget(t fold.Target) Option {
	return func(e *Engine) { e.target = t }
}

// WithRunIDs sets the run id generator. Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithConcurrency bounds the number of requests folded at once.
// Values below 1 mean runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.limit = n }
}

// WithMetrics sets the collectors. Default: NewMetrics().
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger for the engine and its Folder.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithJournal records every run in j.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		reg:         ir.DefaultRegistry(),
		flags:       fold.DefaultFlags(),
		ids:         UUIDv7Generator{},
		logger:      slog.Default(),
		maxRequests: DefaultMaxRequests,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.limit < 1 {
		e.limit = runtime.GOMAXPROCS(0)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}
	e.folder = fold.New(
		fold.WithFlags(e.flags),
		fold.WithTarget(e.target),
		fold.WithLogger(e.logger),
	)
	return e
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Batch is the result of one run.
type Batch struct {
	RunID     string    `json:"run_id"`
	Outcomes  []Outcome `json:"outcomes"`
	Folded    int       `json:"folded"`
	NotFolded int       `json:"not_folded"`
	Invalid   int       `json:"invalid"`
}

// Run folds reqs and, when a journal is set, records the run. Invalid
// requests become StatusInvalid outcomes rather than errors. Run fails
// only when the batch is over quota, ctx is cancelled or the journal
// write fails.
func (e *Engine) Run(ctx context.Context, reqs []Request) (*Batch, error) {
	if err := e.checkQuota(len(reqs)); err != nil {
		return nil, err
	}
	b := &Batch{
		RunID:    e.ids.Generate(),
		Outcomes: make([]Outcome, len(reqs)),
	}
	clock := NewClock()
	for i, r := range reqs {
		b.Outcomes[i] = Outcome{Seq: clock.Next(), Request: r}
	}

	e.logger.Info("batch starting", "run_id", b.RunID, "requests", len(reqs), "concurrency", e.limit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := range b.Outcomes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.evaluate(&b.Outcomes[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Info("batch cancelled", "run_id", b.RunID, "error", err)
		return nil, fmt.Errorf("batch %s: %w", b.RunID, err)
	}

	for _, o := range b.Outcomes {
		switch o.Status {
		case StatusFolded:
			b.Folded++
		case StatusNotFolded:
			b.NotFolded++
		default:
			b.Invalid++
		}
	}
	e.metrics.runs.Inc()

	if e.journal != nil {
		if err := e.record(ctx, b); err != nil {
			e.logger.Error("journal write failed", "run_id", b.RunID, "error", err)
			return nil, fmt.Errorf("batch %s: %w", b.RunID, err)
		}
	}

	e.logger.Info("batch finished",
		"run_id", b.RunID,
		"folded", b.Folded,
		"not_folded", b.NotFolded,
		"invalid", b.Invalid)
	return b, nil
}

// Fold evaluates a single request outside any run. The outcome has seq 0.
func (e *Engine) Fold(r Request) Outcome {
	o := Outcome{Request: r}
	e.evaluate(&o)
	return o
}

// evaluate fills in o's digest, status and result.
func (e *Engine) evaluate(o *Outcome) {
	start := time.Now()
	fn := "invalid"
	defer func() {
		e.metrics.observe(fn, o.Status, time.Since(start).Seconds())
	}()

	digest, err := o.Request.Digest(e.flags)
	if err != nil {
		o.Status, o.Error = StatusInvalid, err.Error()
		return
	}
	o.Digest = digest

	call, err := o.Request.Parse(e.reg)
	if err != nil {
		o.Status, o.Error = StatusInvalid, err.Error()
		return
	}
	fn = call.Fn.String()

	c, ok := e.folder.Fold(call.Fn, call.Result, call.Args...)
	if !ok {
		o.Status = StatusNotFolded
		return
	}
	o.Status, o.Result = StatusFolded, c.String()
}

func (e *Engine) record(ctx context.Context, b *Batch) error {
	target, err := json.Marshal(e.target)
	if err != nil {
		return fmt.Errorf("marshal target: %w", err)
	}
	run := ir.Run{
		ID:            b.RunID,
		Flags:         e.flags.Names(),
		Target:        string(target),
		Requests:      len(b.Outcomes),
		Folded:        b.Folded,
		NotFolded:     b.NotFolded,
		Invalid:       b.Invalid,
		EngineVersion: ir.EngineVersion,
		TextVersion:   ir.TextVersion,
	}
	if err := e.journal.WriteRun(ctx, run); err != nil {
		return err
	}

	recs := make([]ir.FoldRecord, len(b.Outcomes))
	for i, o := range b.Outcomes {
		id, err := ir.FoldRecordID(b.RunID, o.Digest, o.Seq)
		if err != nil {
			return fmt.Errorf("record %d: %w", o.Seq, err)
		}
		args := o.Request.Args
		if args == nil {
			args = []string{}
		}
		recs[i] = ir.FoldRecord{
			ID:         id,
			RunID:      b.RunID,
			Seq:        o.Seq,
			Digest:     o.Digest,
			Fn:         o.Request.Fn,
			ResultType: o.Request.Type,
			Args:       args,
			Status:     string(o.Status),
			Result:     o.Result,
			Error:      o.Error,
		}
	}
	return e.journal.WriteFoldRecords(ctx, recs)
}
