package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/platen/internal/driver/console"
	"github.com/roach88/platen/internal/driver/fingerprint"
	"github.com/roach88/platen/internal/interp"
	"github.com/roach88/platen/internal/journal"
	"github.com/roach88/platen/internal/protocol"
)

// Driver names accepted by run and replay.
const (
	DriverConsole     = "console"
	DriverFingerprint = "fingerprint"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Driver      string
	Addr        string
	DryRun      bool
	JournalPath string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <payload.json>",
		Short: "Dispatch a wire payload to a printer driver",
		Long: `Decode a command envelope and dispatch it to the selected driver.

The console driver writes a render trace to stdout. The fingerprint
driver sends commands to a network printer; with --dry-run it formats
every line without opening a connection. PLATEN_PRINTER_ADDR,
PLATEN_DRY_RUN and PLATEN_JOURNAL supply defaults for the matching
flags; explicit flags win.

When --journal points at a database each run is recorded with its
payload, dispatch counts and outcome, so it can be inspected with
"platen trace" and re-dispatched with "platen replay".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvDefaults(cmd, opts)
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", DriverConsole, "target driver (console|fingerprint)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "printer address for the fingerprint driver")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "format fingerprint commands without connecting")
	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "record the run in this journal database")

	return cmd
}

// applyEnvDefaults fills unset flags from the environment. Flags the
// user set explicitly are left alone.
func applyEnvDefaults(cmd *cobra.Command, opts *RunOptions) {
	cfg, err := LoadEnv()
	if err != nil {
		slog.Warn("ignoring environment defaults", "error", err)
		return
	}
	if !cmd.Flags().Changed("addr") {
		opts.Addr = cfg.PrinterAddr
	}
	if !cmd.Flags().Changed("dry-run") {
		opts.DryRun = cfg.DryRun
	}
	if !cmd.Flags().Changed("journal") && cfg.Journal != "" {
		opts.JournalPath = cfg.Journal
	}
}

func runRun(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read payload", err)
	}

	return dispatchPayload(cmd.Context(), formatter, opts, data, path, cmd.OutOrStdout())
}

// dispatchPayload decodes, runs, and optionally journals one payload.
// It is shared between run and replay.
func dispatchPayload(ctx context.Context, formatter *OutputFormatter, opts *RunOptions, data []byte, source string, trace io.Writer) error {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		var perr *protocol.Error
		if errors.As(err, &perr) {
			_ = formatter.Error(string(perr.Code), perr.Message, perr)
			return NewExitError(ExitFailure, "payload failed decoding")
		}
		return WrapExitError(ExitCommandError, "decode payload", err)
	}

	drv, err := buildDriver(opts, trace)
	if err != nil {
		return WrapExitError(ExitCommandError, "build driver", err)
	}

	var jrnl *journal.Journal
	if opts.JournalPath != "" {
		jrnl, err = journal.Open(opts.JournalPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "open journal", err)
		}
		defer jrnl.Close()
	}

	it := interp.New(drv, interp.WithLogger(slog.Default()))
	runErr := it.RunEnvelope(ctx, env)

	dispatched := len(env.Commands)
	status := journal.StatusOK
	errText := ""
	if runErr != nil {
		status = journal.StatusFailed
		errText = runErr.Error()
		if idx, ok := interp.DispatchedBefore(runErr); ok {
			dispatched = idx
		} else {
			dispatched = 0
		}
	}

	runID := journal.NewRunID()
	if jrnl != nil {
		rec := journal.Run{
			ID:                 runID,
			CreatedAt:          time.Now().UTC(),
			Driver:             opts.Driver,
			Source:             source,
			Payload:            string(data),
			CommandsTotal:      len(env.Commands),
			CommandsDispatched: dispatched,
			Status:             status,
			Error:              errText,
		}
		if rerr := jrnl.Record(ctx, rec); rerr != nil {
			return WrapExitError(ExitCommandError, "record run", rerr)
		}
		formatter.VerboseLog("journaled run %s (%s)", runID, status)
	}

	if runErr != nil {
		_ = formatter.Error(errorCode(runErr), runErr.Error(), map[string]any{
			"run_id":              runID,
			"commands_dispatched": dispatched,
			"commands_total":      len(env.Commands),
		})
		return NewExitError(ExitFailure, "run failed")
	}

	return formatter.Success(fmt.Sprintf("run %s: %d/%d commands dispatched via %s", runID, dispatched, len(env.Commands), opts.Driver))
}

func buildDriver(opts *RunOptions, trace io.Writer) (interp.Driver, error) {
	switch opts.Driver {
	case DriverConsole:
		return console.New(trace), nil
	case DriverFingerprint:
		fpOpts := []fingerprint.Option{}
		if opts.DryRun {
			fpOpts = append(fpOpts, fingerprint.DryRun())
		}
		return fingerprint.New(opts.Addr, fpOpts...), nil
	default:
		return nil, fmt.Errorf("unknown driver %q: must be %s or %s", opts.Driver, DriverConsole, DriverFingerprint)
	}
}

// errorCode maps a run error to its protocol error code for output.
func errorCode(err error) string {
	var perr *protocol.Error
	if errors.As(err, &perr) {
		return string(perr.Code)
	}
	var terr *fingerprint.TransportError
	if errors.As(err, &terr) {
		return fingerprint.ErrCodeTransportFailure
	}
	return "DISPATCH_FAILURE"
}
