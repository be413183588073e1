package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/constfold/internal/engine"
	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string              `json:"run_id"`
	Requests      int                 `json:"requests"`
	Replayed      int                 `json:"replayed"`
	IsComplete    bool                `json:"is_complete"`
	Deterministic bool                `json:"deterministic"`
	Divergences   []engine.Divergence `json:"divergences"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-fold a journal and verify determinism",
		Long: `Re-fold every journaled request under the flags and target its run
recorded, and report any outcome that differs from the journal.

Exit codes:
  0 - All runs replayed identically
  1 - A run diverged or its journal is incomplete
  2 - Command error (database not found, unknown run, etc.)

Examples:
  constfold replay --db ./journal.db
  constfold replay --db ./journal.db --run 0192f7c4-...
  constfold replay --db ./journal.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

// openExisting opens a journal that must already exist. store.Open would
// create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runs, err := st.ReadRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	if len(runIDs) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{
				Status: "ok",
				Data:   ReplayResult{Runs: []ReplayRunResult{}, AllDeterministic: true},
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns:        len(runIDs),
		AllDeterministic: true,
	}
	reg := cfg.Registry()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	for _, id := range runIDs {
		rr, err := replayRun(ctx, st, id, reg, logger)
		if err != nil {
			return err
		}
		if !rr.Deterministic || !rr.IsComplete {
			result.AllDeterministic = false
		}
		result.Runs = append(result.Runs, *rr)
	}

	if opts.Format == "json" {
		status := "ok"
		var cliErr *CLIError
		if !result.AllDeterministic {
			status = "error"
			cliErr = &CLIError{Code: "E_NONDETERMINISTIC", Message: "replay diverged from the journal"}
		}
		if err := writeJSON(cmd.OutOrStdout(), CLIResponse{Status: status, Data: result, Error: cliErr}); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay diverged from the journal")
	}
	return nil
}

// replayRun re-folds one journaled run under its recorded configuration.
func replayRun(ctx context.Context, st *store.Store, runID string, reg *ir.Registry, logger *slog.Logger) (*ReplayRunResult, error) {
	state, err := st.GetRunState(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to read run %s", runID), err)
	}

	eng, err := engine.NewForRun(state.Run, engine.WithRegistry(reg), engine.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("cannot replay run %s", runID), err)
	}
	replayed, err := eng.Replay(ctx, state.Records)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", runID), err)
	}

	divergences := replayed.Divergences
	if divergences == nil {
		divergences = []engine.Divergence{}
	}
	return &ReplayRunResult{
		RunID:         runID,
		Requests:      state.Run.Requests,
		Replayed:      replayed.Replayed,
		IsComplete:    state.IsComplete,
		Deterministic: replayed.Deterministic(),
		Divergences:   divergences,
	}, nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()
	for _, r := range result.Runs {
		mark := "✓"
		if !r.Deterministic || !r.IsComplete {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d/%d records replayed", mark, r.RunID, r.Replayed, r.Requests)
		if !r.IsComplete {
			fmt.Fprint(w, ", journal incomplete")
		}
		fmt.Fprintln(w)
		for _, d := range r.Divergences {
			fmt.Fprintf(w, "  [%d] %s(%s): %s\n", d.Seq, d.Request.Fn, strings.Join(d.Request.Args, ", "), d.Reason)
			fmt.Fprintf(w, "      recorded %s %s\n", d.RecordedStatus, d.RecordedResult)
			fmt.Fprintf(w, "      replayed %s %s\n", d.ReplayedStatus, d.ReplayedResult)
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintf(w, "✓ All %d run(s) deterministic\n", result.TotalRuns)
		return
	}
	fmt.Fprintln(w, "✗ Replay diverged from the journal")
}
