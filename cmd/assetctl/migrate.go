// AngelaMos | 2026
// migrate.go

package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/templates/asset-manager/internal/migrate"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, db, err := opts.connect(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDB(cmd.ErrOrStderr(), db)

				n, err := migrate.Up(cmd.Context(), db.DB.DB)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, db, err := opts.connect(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDB(cmd.ErrOrStderr(), db)

				m, err := migrate.Down(cmd.Context(), db.DB.DB)
				if err != nil {
					return err
				}

				if m == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
					return nil
				}

				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %05d %s\n", m.Version, m.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, db, err := opts.connect(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDB(cmd.ErrOrStderr(), db)

				migrations, err := migrate.Status(cmd.Context(), db.DB.DB)
				if err != nil {
					return err
				}

				renderMigrations(cmd.OutOrStdout(), migrations)
				return nil
			},
		},
	)

	return cmd
}

func renderMigrations(w io.Writer, migrations []migrate.Migration) {
	t := newTable(w, "Migrations")
	t.AppendHeader(table.Row{"Version", "Name", "State", "Applied At"})

	for _, m := range migrations {
		state := "pending"
		appliedAt := "-"
		if m.Applied {
			state = "applied"
			appliedAt = m.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{m.Version, m.Name, state, appliedAt})
	}

	t.Render()
}
