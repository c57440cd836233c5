package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/platen/internal/protocol"
	"github.com/roach88/platen/internal/schema"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <payload.json>",
		Short: "Check a wire payload against the canonical schema",
		Long: `Validate a serialized command envelope without dispatching it.

The payload is checked against the canonical schema first, then decoded
the same way the interpreter would decode it. Violations are listed one
per line in text mode and as structured details in JSON mode.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read payload", err)
	}

	if err := schema.Validate(data); err != nil {
		var ve *schema.ViolationError
		if errors.As(err, &ve) {
			if formatter.Format == "json" {
				_ = formatter.Error(schema.ErrCodeSchemaViolation, "payload failed schema validation", ve.Violations)
			} else {
				fmt.Fprintf(formatter.Writer, "Error [%s]: payload failed schema validation\n", schema.ErrCodeSchemaViolation)
				for _, v := range ve.Violations {
					fmt.Fprintf(formatter.Writer, "  %s: %s\n", v.Path, v.Message)
				}
			}
			return NewExitError(ExitFailure, "payload failed schema validation")
		}
		return WrapExitError(ExitCommandError, "validate payload", err)
	}

	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		var perr *protocol.Error
		if errors.As(err, &perr) {
			_ = formatter.Error(string(perr.Code), perr.Message, perr)
			return NewExitError(ExitFailure, "payload failed decoding")
		}
		return WrapExitError(ExitCommandError, "decode payload", err)
	}

	return formatter.Success(fmt.Sprintf("payload is valid (version %s, %d commands)", env.Version, len(env.Commands)))
}
