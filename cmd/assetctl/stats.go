// AngelaMos | 2026
// stats.go

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/templates/asset-manager/internal/asset"
	"github.com/carterperez-dev/templates/asset-manager/internal/auth"
	"github.com/carterperez-dev/templates/asset-manager/internal/catalog"
	"github.com/carterperez-dev/templates/asset-manager/internal/stats"
	"github.com/carterperez-dev/templates/asset-manager/internal/user"
)

func newStatsCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the admin dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(cmd.ErrOrStderr(), db)

			svc := stats.NewService(
				asset.NewRepository(db.DB),
				user.NewService(user.NewRepository(db.DB), nil),
				catalog.NewService(catalog.NewRepository(db.DB, catalog.Categories), catalog.Categories),
				catalog.NewService(catalog.NewRepository(db.DB, catalog.Departments), catalog.Departments),
			)

			dashboard, err := svc.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(dashboard)
			}

			renderDashboard(cmd.OutOrStdout(), dashboard)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw dashboard document")

	return cmd
}

func newTokensCmd(opts *options) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Maintain refresh tokens",
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete refresh tokens that have expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(cmd.ErrOrStderr(), db)

			n, err := auth.NewRepository(db.DB).DeleteExpired(cmd.Context(), time.Now().Add(-grace))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired refresh token(s)\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&grace, "grace", 0, "keep tokens that expired within this window")

	cmd.AddCommand(prune)
	return cmd
}

func renderDashboard(w io.Writer, d *stats.Dashboard) {
	overview := newTable(w, "Overview")
	overview.AppendRows([]table.Row{
		{"Total assets", d.TotalAssets},
		{"Total value", d.TotalValue.StringFixed(2)},
		{"Created in last 24h", d.RecentActivity},
		{"Users", d.TotalUsers},
		{"Categories", d.TotalCategories},
		{"Departments", d.TotalDepartments},
	})
	overview.Render()

	renderTop(w, "Top categories", d.TopCategories)
	renderTop(w, "Top departments", d.TopDepartments)
	renderTop(w, "Statuses", d.TopStatuses)
}

func renderTop(w io.Writer, title string, entries []stats.TopEntry) {
	if len(entries) == 0 {
		return
	}

	t := newTable(w, title)
	t.AppendHeader(table.Row{"Name", "Count", "Share"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Name, e.Count, fmt.Sprintf("%d%%", e.Percent)})
	}
	t.Render()
}
