package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/prompt"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

// DropOptions holds options for the drop command.
type DropOptions struct {
	Yes bool
}

// NewDropCommand creates the drop command.
func NewDropCommand() *cobra.Command {
	opts := &DropOptions{}
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the target database",
		Long: `Drop the no_sql_connection database and everything in it.

You are asked to confirm first unless --yes is given. Answering anything but
"y" or "yes" keeps the database.`,
		Example: `  # Drop after confirming
  leapmigrate drop

  # Drop without asking
  leapmigrate drop --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDrop(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runDrop(cmd *cobra.Command, opts *DropOptions) error {
	cc := NewCommandContext(cmd)
	if err := cc.Cfg.ValidateTarget(); err != nil {
		return err
	}

	err := target.WithStore(cmd.Context(), cc.Cfg.NoSQLConnection, cc.Logger, func(store core.Store) error {
		return store.DropDatabase(cmd.Context(), confirmer(cmd, opts.Yes))
	})
	if errors.Is(err, core.ErrDropDeclined) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Kept database %s\n", cc.Cfg.NoSQLConnection.Database)
		return nil
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), prompt.WarningStyle.Render("Dropped database "+cc.Cfg.NoSQLConnection.Database))
	return nil
}
