package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/constfold/internal/engine"
	"github.com/roach88/constfold/internal/store"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Database    string
	Concurrency int
	MaxRequests int
	Metrics     string

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RequestFile is the layout of a batch request file. JSON files use the
// same shape.
type RequestFile struct {
	Requests []engine.Request `yaml:"requests"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <requests-file>",
		Short: "Fold a file of builtin calls",
		Long: `Fold every call in a YAML or JSON request file concurrently and print
the outcomes in file order.

With --db the run and every outcome are journaled to a SQLite database,
which "constfold replay" can later re-fold to check determinism.

Request file:
  requests:
    - fn: sqrt
      type: ieee_double
      args: ["ieee_double=2"]

Exit codes:
  0 - Every request was evaluated
  1 - One or more requests were invalid
  2 - Command error (unreadable file, bad configuration, journal failure)

Examples:
  constfold batch calls.yaml
  constfold batch calls.yaml --db ./journal.db --concurrency 8
  constfold batch calls.json --metrics ./constfold.prom --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal the run to this SQLite database")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "requests folded at once (default GOMAXPROCS)")
	cmd.Flags().IntVar(&opts.MaxRequests, "max-requests", engine.DefaultMaxRequests, "reject files with more requests than this")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "write Prometheus metrics to this file")

	return cmd
}

// LoadRequests reads a request file. Unknown fields are rejected.
func LoadRequests(path string) ([]engine.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	var file RequestFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}
	return file.Requests, nil
}

func runBatch(opts *BatchOptions, path string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	reqs, err := LoadRequests(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load requests", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ids := opts.RunIDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	engineOpts := []engine.Option{
		engine.WithRegistry(cfg.Registry()),
		engine.WithFlags(cfg.Flags),
		engine.WithTarget(cfg.Target),
		engine.WithRunIDs(ids),
		engine.WithConcurrency(opts.Concurrency),
		engine.WithMaxRequests(opts.MaxRequests),
		engine.WithLogger(logger),
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithJournal(st))
	}

	eng := engine.New(engineOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch, err := eng.Run(ctx, reqs)
	if err != nil {
		if engine.IsQuotaError(err) {
			return WrapExitError(ExitCommandError, "request file too large", err)
		}
		return WrapExitError(ExitCommandError, "batch failed", err)
	}

	if opts.Metrics != "" {
		if err := prometheus.WriteToTextfile(opts.Metrics, eng.Metrics().Registry); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		logger.Debug("metrics written", slog.String("path", opts.Metrics))
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: batch}); err != nil {
			return err
		}
	} else {
		outputBatchText(cmd, batch)
	}

	if batch.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid request(s)", batch.Invalid))
	}
	return nil
}

func outputBatchText(cmd *cobra.Command, b *engine.Batch) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s\n", b.RunID)
	for _, o := range b.Outcomes {
		fmt.Fprintf(w, "  [%d] %s\n", o.Seq, describeOutcome(o))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d folded, %d not folded, %d invalid\n", b.Folded, b.NotFolded, b.Invalid)
}

// describeOutcome renders a call and its outcome on one line.
func describeOutcome(o engine.Outcome) string {
	call := fmt.Sprintf("%s(%s) : %s", o.Request.Fn, strings.Join(o.Request.Args, ", "), o.Request.Type)
	switch o.Status {
	case engine.StatusFolded:
		return call + " -> " + o.Result
	case engine.StatusNotFolded:
		return call + " -> not folded"
	default:
		return call + " -> invalid: " + o.Error
	}
}
