// AngelaMos | 2026
// root.go

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/templates/asset-manager/internal/config"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
)

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "assetctl",
		Short:         "Asset Manager operator tool",
		Long:          "Schema migrations, admin bootstrap, key generation and reporting for the Asset Manager API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newCreateAdminCmd(opts),
		newKeygenCmd(),
		newStatsCmd(opts),
		newTokensCmd(opts),
	)

	return cmd
}

// connect loads the configuration and opens the database it names.
func (o *options) connect(ctx context.Context) (*config.Config, *core.Database, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func closeDB(w io.Writer, db *core.Database) {
	if err := db.Close(); err != nil {
		fmt.Fprintln(w, "warning: close database:", err)
	}
}
