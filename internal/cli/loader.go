package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/constfold/internal/config"
	"github.com/roach88/constfold/internal/fold"
)

// loadConfig builds the configuration from --config and applies any
// numeric safety flags given on the command line.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	applyFlagOverrides(opts, cmd, &cfg.Flags)
	return cfg, nil
}

func applyFlagOverrides(opts *RootOptions, cmd *cobra.Command, fl *fold.Flags) {
	flags := cmd.Flags()
	for _, o := range []struct {
		name string
		src  bool
		dst  *bool
	}{
		{"trapping-math", opts.TrappingMath, &fl.TrappingMath},
		{"rounding-math", opts.RoundingMath, &fl.RoundingMath},
		{"errno-math", opts.ErrnoMath, &fl.ErrnoMath},
		{"signaling-nans", opts.SignalingNaNs, &fl.SignalingNaNs},
		{"unsafe-math", opts.UnsafeMath, &fl.UnsafeMathOptimizations},
	} {
		if flags.Changed(o.name) {
			*o.dst = o.src
		}
	}
}

// newLogger logs to w: warnings and errors by default, everything with
// --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
