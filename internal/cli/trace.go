package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/platen/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	JournalPath string
	Driver      string
	Status      string
	Since       time.Duration
	Limit       int
	ShowPayload bool
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Inspect journaled runs",
		Long: `Show journaled interpretation runs.

With a run id, show that run in full. Without one, list recent runs
newest first, optionally filtered by driver, status, or age.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("journal") {
				if cfg, err := LoadEnv(); err == nil && cfg.Journal != "" {
					opts.JournalPath = cfg.Journal
				}
			}
			if len(args) == 1 {
				return runTraceOne(opts, args[0], cmd)
			}
			return runTraceList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "journal database to inspect")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "only list runs for this driver")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only list runs with this status (ok|failed)")
	cmd.Flags().DurationVar(&opts.Since, "since", 0, "only list runs newer than this age (e.g. 24h)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().BoolVar(&opts.ShowPayload, "payload", false, "include the stored payload when showing a run")

	return cmd
}

func openTraceJournal(opts *TraceOptions) (*journal.Journal, error) {
	if opts.JournalPath == "" {
		return nil, NewExitError(ExitCommandError, "trace requires --journal (or PLATEN_JOURNAL)")
	}
	jrnl, err := journal.Open(opts.JournalPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open journal", err)
	}
	return jrnl, nil
}

func runTraceOne(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	jrnl, err := openTraceJournal(opts)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	run, err := jrnl.Get(cmd.Context(), runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, "no journaled run with id "+runID)
		}
		return WrapExitError(ExitCommandError, "fetch run", err)
	}
	if !opts.ShowPayload {
		run.Payload = ""
	}

	if formatter.Format == "json" {
		return formatter.Success(run)
	}
	return formatter.Success(formatRun(run, opts.ShowPayload))
}

func runTraceList(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	jrnl, err := openTraceJournal(opts)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	filter := journal.Filter{
		Driver: opts.Driver,
		Status: opts.Status,
		Limit:  opts.Limit,
	}
	if opts.Since > 0 {
		filter.Since = time.Now().UTC().Add(-opts.Since)
	}

	runs, err := jrnl.List(cmd.Context(), filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	if formatter.Format == "json" {
		for i := range runs {
			runs[i].Payload = ""
		}
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		return formatter.Success("no journaled runs match")
	}
	var b strings.Builder
	for i, run := range runs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s  %s  %-11s  %d/%d  %s",
			run.CreatedAt.Format(time.RFC3339),
			run.ID,
			run.Driver,
			run.CommandsDispatched,
			run.CommandsTotal,
			run.Status,
		))
	}
	return formatter.Success(b.String())
}

func formatRun(run journal.Run, withPayload bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run:        %s\n", run.ID)
	fmt.Fprintf(&b, "created:    %s\n", run.CreatedAt.Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "driver:     %s\n", run.Driver)
	if run.Source != "" {
		fmt.Fprintf(&b, "source:     %s\n", run.Source)
	}
	fmt.Fprintf(&b, "commands:   %d/%d dispatched\n", run.CommandsDispatched, run.CommandsTotal)
	fmt.Fprintf(&b, "status:     %s", run.Status)
	if run.Error != "" {
		fmt.Fprintf(&b, "\nerror:      %s", run.Error)
	}
	if withPayload && run.Payload != "" {
		fmt.Fprintf(&b, "\npayload:\n%s", run.Payload)
	}
	return b.String()
}
