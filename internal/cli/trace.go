package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/constfold/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Digest   string
	Fn       string // optional - filter to one builtin
}

// TraceEvent is one journaled record in the timeline.
type TraceEvent struct {
	Seq        int64    `json:"seq"`
	RunID      string   `json:"run_id"`
	ID         string   `json:"id"`
	Digest     string   `json:"digest"`
	Fn         string   `json:"fn"`
	ResultType string   `json:"result_type"`
	Args       []string `json:"args"`
	Status     string   `json:"status"`
	Result     string   `json:"result,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Records   int `json:"records"`
	Folded    int `json:"folded"`
	NotFolded int `json:"not_folded"`
	Invalid   int `json:"invalid"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID    string       `json:"run_id,omitempty"`
	Digest   string       `json:"digest,omitempty"`
	Flags    []string     `json:"flags,omitempty"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled fold records",
		Long: `Show the journaled records of one run in sequence order, or every
record of one request across runs.

Exactly one of --run and --digest is required. A digest identifies a
request (builtin, result type, operands and flags) independent of the run
it was folded in, so --digest shows how the same call was decided over time.

Examples:
  constfold trace --db ./journal.db --run 0192f7c4-...
  constfold trace --db ./journal.db --run 0192f7c4-... --fn sqrt
  constfold trace --db ./journal.db --digest 3f1a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to trace")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "request digest to trace across runs")
	cmd.Flags().StringVar(&opts.Fn, "fn", "", "filter to one builtin")
	cmd.MarkFlagsMutuallyExclusive("run", "digest")
	cmd.MarkFlagsOneRequired("run", "digest")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	result := TraceResult{RunID: opts.RunID, Digest: opts.Digest}
	var recs []ir.FoldRecord
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		result.Flags = run.Flags
		if recs, err = st.ReadFoldRecords(ctx, opts.RunID); err != nil {
			return WrapExitError(ExitCommandError, "failed to read records", err)
		}
	} else {
		if recs, err = st.FindByDigest(ctx, opts.Digest); err != nil {
			return WrapExitError(ExitCommandError, "failed to find records", err)
		}
	}

	result.Timeline = buildTimeline(recs, opts.Fn)
	result.Stats = computeStats(result.Timeline)

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	outputTraceText(cmd, result)
	return nil
}

// buildTimeline converts records to events, keeping only calls to fn when
// fn is set. Records arrive in journal order.
func buildTimeline(recs []ir.FoldRecord, fn string) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(recs))
	for _, r := range recs {
		if fn != "" && r.Fn != fn {
			continue
		}
		timeline = append(timeline, TraceEvent{
			Seq:        r.Seq,
			RunID:      r.RunID,
			ID:         r.ID,
			Digest:     r.Digest,
			Fn:         r.Fn,
			ResultType: r.ResultType,
			Args:       r.Args,
			Status:     r.Status,
			Result:     r.Result,
			Error:      r.Error,
		})
	}
	return timeline
}

func computeStats(timeline []TraceEvent) TraceStats {
	stats := TraceStats{Records: len(timeline)}
	for _, ev := range timeline {
		switch ev.Status {
		case "folded":
			stats.Folded++
		case "not_folded":
			stats.NotFolded++
		default:
			stats.Invalid++
		}
	}
	return stats
}

func outputTraceText(cmd *cobra.Command, result TraceResult) {
	w := cmd.OutOrStdout()

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	if result.RunID != "" {
		fmt.Fprintf(w, "Run %s", result.RunID)
		if len(result.Flags) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(result.Flags, ", "))
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "Digest %s\n", result.Digest)
	}

	for _, ev := range result.Timeline {
		prefix := fmt.Sprintf("[%d]", ev.Seq)
		if result.RunID == "" {
			prefix = fmt.Sprintf("[%s #%d]", ev.RunID, ev.Seq)
		}
		fmt.Fprintf(w, "  %s %s(%s) : %s -> ", prefix, ev.Fn, strings.Join(ev.Args, ", "), ev.ResultType)
		switch ev.Status {
		case "folded":
			fmt.Fprintln(w, ev.Result)
		case "not_folded":
			fmt.Fprintln(w, "not folded")
		default:
			fmt.Fprintf(w, "invalid: %s\n", ev.Error)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Stats: %d records, %d folded, %d not folded, %d invalid\n",
		result.Stats.Records, result.Stats.Folded, result.Stats.NotFolded, result.Stats.Invalid)
}
