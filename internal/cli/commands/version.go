package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/pkg/source"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the leapmigrate version and the source and target adapters compiled in.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "leapmigrate v%s\n", version)
			_, _ = fmt.Fprintln(out, "Relational to Cassandra and MongoDB migration tool built with Go")
			_, _ = fmt.Fprintf(out, "%s %s\n", dimStyle.Render("sources:"), strings.Join(source.ListAdapters(), ", "))
			_, _ = fmt.Fprintf(out, "%s %s\n", dimStyle.Render("targets:"), strings.Join(target.ListAdapters(), ", "))
		},
	}
}
