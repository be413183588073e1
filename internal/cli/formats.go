package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/constfold/internal/ir"
)

// NewFormatsCommand creates the formats command.
func NewFormatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the floating-point formats",
		Long: `List the floating-point formats type names resolve to: the built-in
formats plus any defined in the --config directory.

Examples:
  constfold formats
  constfold formats --config ./formats --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormats(rootOpts, cmd)
		},
	}

	return cmd
}

func runFormats(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: cfg.Formats})
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tRADIX\tPRECISION\tEMIN\tEMAX\tFEATURES")
	for _, f := range cfg.Formats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", f.Name, f.Radix, f.Precision, f.Emin, f.Emax, features(f))
	}
	return tw.Flush()
}

// features lists the optional capabilities of f, in a fixed order.
func features(f *ir.Format) string {
	var fs []string
	for _, c := range []struct {
		on   bool
		name string
	}{
		{f.HasDenorm, "denorm"},
		{f.HasInf, "inf"},
		{f.HasNaN, "nan"},
		{f.HasSignalingNaN, "snan"},
		{f.HasSignedZero, "signed-zero"},
		{f.RoundTowardsZero, "round-toward-zero"},
		{f.Composite, "composite"},
	} {
		if c.on {
			fs = append(fs, c.name)
		}
	}
	if len(fs) == 0 {
		return "-"
	}
	return strings.Join(fs, ",")
}
