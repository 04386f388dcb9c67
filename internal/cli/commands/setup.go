package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/cli/config"
	"github.com/leapstack-labs/leapmigrate/internal/ledger"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/source"

	// Register every source and target adapter.
	_ "github.com/leapstack-labs/leapmigrate/pkg/sources/duckdb"
	_ "github.com/leapstack-labs/leapmigrate/pkg/sources/postgres"
	_ "github.com/leapstack-labs/leapmigrate/pkg/sources/sqlite"
	_ "github.com/leapstack-labs/leapmigrate/pkg/targets/cassandra"
	_ "github.com/leapstack-labs/leapmigrate/pkg/targets/mongodb"
	_ "github.com/leapstack-labs/leapmigrate/pkg/targets/sqlite"
)

// Status styles.
var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext reads the config and logger stored by the root command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &CommandContext{
		Cfg:    config.GetConfig(ctx),
		Logger: config.GetLogger(ctx),
	}
}

// OpenSource creates and connects the configured source reader.
// The caller must close it.
func (c *CommandContext) OpenSource(ctx context.Context) (source.Reader, error) {
	if err := c.Cfg.ValidateSource(); err != nil {
		return nil, err
	}
	r, err := source.NewReader(c.Cfg.SQLConnection, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := r.Connect(ctx, c.Cfg.SQLConnection); err != nil {
		return nil, &core.ConnectionError{
			Adapter: c.Cfg.SQLConnection.Adapter,
			Target:  c.Cfg.SQLConnection.ConnectionString(),
			Err:     err,
		}
	}
	return r, nil
}

// OpenLedger opens the run ledger. The caller must close it.
func (c *CommandContext) OpenLedger(ctx context.Context) (*ledger.Ledger, error) {
	l, err := ledger.Open(ctx, c.Cfg.Ledger, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return l, nil
}
