package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Timeout time.Duration
}

// checkResult is the outcome of one connectivity check.
type checkResult struct {
	Role    string
	Address string
	Detail  string
	Err     error
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and test both connections",
		Long: `Validate sql_connection and no_sql_connection, then connect to the
source and the target at the same time and report the result of each.

Nothing is written to either side.`,
		Example: `  # Check the configuration in ./leapmigrate.yaml
  leapmigrate check

  # Give slow clusters more time
  leapmigrate check --timeout 30s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Time allowed for each connection")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions) error {
	cc := NewCommandContext(cmd)

	results := make([]checkResult, 2)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		results[0] = checkSource(ctx, cc, opts.Timeout)
		return nil
	})
	g.Go(func() error {
		results[1] = checkTarget(ctx, cc, opts.Timeout)
		return nil
	})
	_ = g.Wait()

	failed := printChecks(cmd.OutOrStdout(), results)
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

func checkSource(ctx context.Context, cc *CommandContext, timeout time.Duration) checkResult {
	res := checkResult{Role: "source", Address: cc.Cfg.SQLConnection.ConnectionString()}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := cc.OpenSource(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() { _ = r.Close() }()

	tables, err := r.Tables(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Detail = fmt.Sprintf("%d tables", len(tables))
	return res
}

func checkTarget(ctx context.Context, cc *CommandContext, timeout time.Duration) checkResult {
	res := checkResult{Role: "target", Address: cc.Cfg.NoSQLConnection.ConnectionString()}
	if err := cc.Cfg.ValidateTarget(); err != nil {
		res.Err = err
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res.Err = target.WithStore(ctx, cc.Cfg.NoSQLConnection, cc.Logger, func(store core.Store) error {
		res.Detail = fmt.Sprintf("database %s %s", cc.Cfg.NoSQLConnection.Database, store.State())
		return nil
	})
	return res
}

// printChecks writes one line per check and returns the number of failures.
func printChecks(w io.Writer, results []checkResult) int {
	title := cases.Title(language.English)
	failed := 0
	for _, r := range results {
		status := okStyle.Render("ok")
		detail := r.Detail
		if r.Err != nil {
			failed++
			status = failStyle.Render("FAIL")
			detail = r.Err.Error()
		}
		_, _ = fmt.Fprintf(w, "%-7s %-40s %s %s\n", title.String(r.Role), r.Address, status, dimStyle.Render(detail))
	}
	return failed
}
