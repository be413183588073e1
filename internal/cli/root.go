package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	ConfigDir string

	// Numeric safety overrides. Only flags given on the command line
	// replace the configured value.
	TrappingMath  bool
	RoundingMath  bool
	ErrnoMath     bool
	SignalingNaNs bool
	UnsafeMath    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the constfold CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "constfold",
		Short: "constfold - compile-time evaluation of builtin calls",
		Long: `Evaluate calls to math, bit and string builtins on constant operands,
the way an optimizing compiler folds them, and report when a call must be
left for run time.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigDir, "config", "", "directory of CUE files extending the built-in configuration")
	pf.BoolVar(&opts.TrappingMath, "trapping-math", false, "floating-point exceptions may be observed")
	pf.BoolVar(&opts.RoundingMath, "rounding-math", false, "the run-time rounding mode may differ from the default")
	pf.BoolVar(&opts.ErrnoMath, "errno-math", false, "math functions may set errno")
	pf.BoolVar(&opts.SignalingNaNs, "signaling-nans", false, "signaling NaNs must raise invalid")
	pf.BoolVar(&opts.UnsafeMath, "unsafe-math", false, "allow value-changing optimizations")

	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewFormatsCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the root command against the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
