package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/constfold/internal/engine"
)

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <fn> <result-type> [args...]",
		Short: "Fold a single builtin call",
		Long: `Fold one builtin call on constant operands.

Operands and the result are written as typed constants, for example
"ieee_double=0.5", "u32=0xff" or 'ptr="abc\x00"'. A call that cannot be
folded without changing program behavior is reported as not folded.

Exit codes:
  0 - The call was evaluated (folded or not folded)
  2 - The call is malformed or the configuration failed to load

Examples:
  constfold eval sqrt ieee_double ieee_double=2
  constfold eval clz i32 u32=1
  constfold eval --rounding-math sqrt ieee_double ieee_double=2
  constfold eval --format json popcount i32 u64=0xff`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, cmd, engine.Request{Fn: args[0], Type: args[1], Args: args[2:]})
		},
	}

	return cmd
}

func runEval(opts *RootOptions, cmd *cobra.Command, req engine.Request) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return err
	}
	formatter.VerboseLog("flags: %v", cfg.Flags.Names())

	eng := engine.New(
		engine.WithRegistry(cfg.Registry()),
		engine.WithFlags(cfg.Flags),
		engine.WithTarget(cfg.Target),
		engine.WithLogger(newLogger(opts, cmd.ErrOrStderr())),
	)
	out := eng.Fold(req)

	switch out.Status {
	case engine.StatusInvalid:
		if err := formatter.Error("E_INVALID_REQUEST", out.Error, out.Request); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, out.Error)
	case engine.StatusNotFolded:
		if opts.Format == "json" {
			return formatter.Success(out)
		}
		fmt.Fprintln(formatter.Writer, "not folded")
		return nil
	default:
		if opts.Format == "json" {
			return formatter.Success(out)
		}
		return formatter.Success(out.Result)
	}
}
