package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/migrate"
)

// TranslationOptions holds options for the translation command.
type TranslationOptions struct {
	Output  string
	Summary bool
	Format  string
}

// NewTranslationCommand creates the translation command.
func NewTranslationCommand() *cobra.Command {
	opts := &TranslationOptions{}
	cmd := &cobra.Command{
		Use:     "translation",
		Aliases: []string{"t"},
		Short:   "Generate a translation file from the source schema",
		Long: `Read the tables of the sql_connection source and print a translation file
declaring every table with its columns.

Primary key columns become key columns. A table without a primary key gets
an "id" key column that the target fills in. Review the file, then point
the translation setting at it before running process or sync.`,
		Example: `  # Print the translation
  leapmigrate translation

  # Write it to the configured translation path
  leapmigrate translation --output translation.yaml

  # Show a table overview instead
  leapmigrate translation --summary`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTranslation(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the translation to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "Print a summary of the generated tables")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Summary format: table, json, csv, markdown")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return formats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTranslation(cmd *cobra.Command, opts *TranslationOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	r, err := cc.OpenSource(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	tr, err := migrate.Generate(ctx, r, cc.Logger)
	if err != nil {
		return fmt.Errorf("failed to generate translation: %w", err)
	}

	if opts.Summary {
		return renderTranslationSummary(cmd, tr, opts.Format)
	}

	if opts.Output == "" {
		return tr.Write(cmd.OutOrStdout())
	}
	if err := tr.Save(opts.Output); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d tables to %s\n", len(tr.Tables), opts.Output)
	return nil
}

func renderTranslationSummary(cmd *cobra.Command, tr *migrate.Translation, format string) error {
	rows := make([][]any, len(tr.Tables))
	for i, def := range tr.Tables {
		rows[i] = []any{def.Name, len(def.Columns), strings.Join(def.KeyColumns(), ", ")}
	}
	return renderRows(cmd.OutOrStdout(), format, []string{"table", "columns", "key"}, rows)
}
