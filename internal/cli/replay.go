package cli

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/platen/internal/journal"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Re-dispatch a journaled run",
		Long: `Fetch a recorded run from the journal and dispatch its payload again.

The stored payload is replayed byte for byte against the selected
driver, which defaults to the driver of the original run. The replay is
recorded as a new run whose source names the run it came from.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvDefaults(cmd, opts)
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "target driver (console|fingerprint); defaults to the original run's driver")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "printer address for the fingerprint driver")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "format fingerprint commands without connecting")
	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "journal database holding the run")

	return cmd
}

func runReplay(opts *RunOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.JournalPath == "" {
		return NewExitError(ExitCommandError, "replay requires --journal (or PLATEN_JOURNAL)")
	}

	jrnl, err := journal.Open(opts.JournalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	run, err := jrnl.Get(cmd.Context(), runID)
	cerr := jrnl.Close()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, "no journaled run with id "+runID)
		}
		return WrapExitError(ExitCommandError, "fetch run", err)
	}
	if cerr != nil {
		return WrapExitError(ExitCommandError, "close journal", cerr)
	}

	if opts.Driver == "" {
		opts.Driver = run.Driver
	}
	formatter.VerboseLog("replaying run %s (%d commands) via %s", run.ID, run.CommandsTotal, opts.Driver)

	return dispatchPayload(cmd.Context(), formatter, opts, []byte(run.Payload), "replay:"+run.ID, cmd.OutOrStdout())
}
