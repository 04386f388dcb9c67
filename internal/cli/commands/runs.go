package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/ledger"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit  int
	Format string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recorded process and sync runs",
		Long: `List the runs recorded in the run ledger, newest first.

Pass a run id to show the rows each table moved during that run.`,
		Example: `  # Recent runs
  leapmigrate runs

  # One run, per table
  leapmigrate runs 3f0c9d2e-5b7a-4c1e-9a44-0c2b8f6d1e77

  # Machine-readable
  leapmigrate runs --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowRun(cmd, args[0], opts)
			}
			return runListRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Output format: table, json, csv, markdown")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return formats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runListRuns(cmd *cobra.Command, opts *RunsOptions) error {
	cc := NewCommandContext(cmd)
	l, err := cc.OpenLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	runs, err := l.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}

	rows := make([][]any, len(runs))
	for i, r := range runs {
		rows[i] = []any{
			r.ID, r.Mode, string(r.Status),
			r.StartedAt.Local().Format(time.DateTime),
			formatDuration(r),
			r.Inserted, r.Updated, r.Error,
		}
	}
	return renderRows(cmd.OutOrStdout(), opts.Format,
		[]string{"id", "mode", "status", "started", "duration", "inserted", "updated", "error"}, rows)
}

func runShowRun(cmd *cobra.Command, id string, opts *RunsOptions) error {
	cc := NewCommandContext(cmd)
	l, err := cc.OpenLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	run, err := l.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	if opts.Format == "" || opts.Format == FormatTable {
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(w, "Run:      %s\n", run.ID)
		_, _ = fmt.Fprintf(w, "Mode:     %s\n", run.Mode)
		_, _ = fmt.Fprintf(w, "Source:   %s\n", run.Source)
		_, _ = fmt.Fprintf(w, "Target:   %s\n", run.Target)
		_, _ = fmt.Fprintf(w, "Status:   %s\n", run.Status)
		_, _ = fmt.Fprintf(w, "Duration: %s\n", formatDuration(run))
		if run.Error != "" {
			_, _ = fmt.Fprintf(w, "Error:    %s\n", failStyle.Render(run.Error))
		}
	}

	rows := make([][]any, len(run.Tables))
	for i, t := range run.Tables {
		rows[i] = []any{t.Table, t.Inserted, t.Updated}
	}
	return renderRows(cmd.OutOrStdout(), opts.Format, []string{"table", "inserted", "updated"}, rows)
}

func formatDuration(r *ledger.Run) string {
	if r.CompletedAt == nil {
		return "-"
	}
	return r.Duration().Round(time.Millisecond).String()
}
