package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/platen/internal/schema"
	"github.com/roach88/platen/internal/template"
)

// EmitOptions holds flags for the emit command.
type EmitOptions struct {
	*RootOptions
	ValuesFile string
	OutFile    string
	Pretty     bool
	Validate   bool
}

// NewEmitCommand creates the emit command.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "emit <template>",
		Short: "Render an embedded template to a wire payload",
		Long: `Render an embedded label template into a command envelope payload.

Field values come from a YAML file of key: value pairs. The payload is
written to stdout or --out. Validation against the canonical schema is an
explicit step, enabled with --validate.

Example:
  platen emit shelf_80x60 --values order.yaml --pretty --validate`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ValuesFile, "values", "", "YAML file with template field values")
	cmd.Flags().StringVar(&opts.OutFile, "out", "", "write payload to file instead of stdout")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent the payload")
	cmd.Flags().BoolVar(&opts.Validate, "validate", false, "validate the payload against the canonical schema")

	return cmd
}

func runEmit(opts *EmitOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	values, err := loadValues(opts.ValuesFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "load values", err)
	}
	formatter.VerboseLog("rendering template %s with %d value(s)", name, len(values))

	em, err := template.RenderNamed(name, values)
	if err != nil {
		return WrapExitError(ExitCommandError, "render template", err)
	}

	if opts.Validate {
		if err := em.Validate(); err != nil {
			var ve *schema.ViolationError
			if errors.As(err, &ve) {
				_ = formatter.Error(schema.ErrCodeSchemaViolation, "payload failed schema validation", ve.Violations)
				return NewExitError(ExitFailure, "payload failed schema validation")
			}
			return WrapExitError(ExitCommandError, "validate payload", err)
		}
		formatter.VerboseLog("payload conforms to the canonical schema")
	}

	data, err := em.Serialize(opts.Pretty)
	if err != nil {
		return WrapExitError(ExitCommandError, "serialize payload", err)
	}

	if opts.OutFile != "" {
		if err := os.WriteFile(opts.OutFile, data, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write payload", err)
		}
		return formatter.Success(fmt.Sprintf("payload written to %s (%d commands)", opts.OutFile, em.Len()))
	}

	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}

// loadValues reads a YAML mapping and coerces every value to a string,
// the way template fields expect them.
func loadValues(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			values[k] = ""
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}
