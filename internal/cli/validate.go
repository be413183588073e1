package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/constfold/internal/config"
)

// ValidationResult holds the outcome of validating a configuration.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Formats []string `json:"formats"`
	Flags   []string `json:"flags"`
}

// ValidationErrorDetails locates a configuration error.
type ValidationErrorDetails struct {
	Field  string `json:"field,omitempty"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-dir>",
		Short: "Validate a configuration directory",
		Long: `Validate a directory of CUE files against the configuration schema.

The files are unified with the built-in defaults exactly as --config
would, and every format is checked for consistency.

Exit codes:
  0 - The configuration is valid
  1 - The configuration is invalid
  2 - The directory could not be read`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(dir)
	if err != nil {
		var ce *config.ConfigError
		if !errors.As(err, &ce) {
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		details := ValidationErrorDetails{Field: ce.Field}
		if ce.Pos.IsValid() {
			details.File = ce.Pos.Filename()
			details.Line = ce.Pos.Line()
			details.Column = ce.Pos.Column()
		}
		msg := ce.Message
		if ce.Field != "" {
			msg = ce.Field + ": " + msg
		}
		if ce.Err != nil {
			msg += ": " + ce.Err.Error()
		}
		if err := formatter.Error(string(ce.Code), msg, details); err != nil {
			return err
		}
		code := ExitFailure
		if ce.Code == config.ErrCodeNotFound || ce.Code == config.ErrCodeNoFiles {
			code = ExitCommandError
		}
		return WrapExitError(code, "invalid configuration", err)
	}

	result := ValidationResult{Valid: true, Formats: []string{}, Flags: []string{}}
	for _, f := range cfg.Formats {
		result.Formats = append(result.Formats, f.Name)
	}
	result.Flags = append(result.Flags, cfg.Flags.Names()...)
	formatter.VerboseLog("validated %d formats in %s", len(result.Formats), dir)

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ Configuration valid: %d formats", len(result.Formats)))
}
