// AngelaMos | 2026
// admin.go

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/templates/asset-manager/internal/auth"
	"github.com/carterperez-dev/templates/asset-manager/internal/core"
	"github.com/carterperez-dev/templates/asset-manager/internal/user"
)

const generatedPasswordBytes = 12

func newCreateAdminCmd(opts *options) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long:  "Create an administrator account. A random password is generated and printed when --password is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}

			generated := password == ""
			if generated {
				token, err := core.GenerateSecureToken(generatedPasswordBytes)
				if err != nil {
					return err
				}
				password = token
			}

			_, db, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(cmd.ErrOrStderr(), db)

			svc := user.NewService(user.NewRepository(db.DB), nil)
			admin, err := svc.CreateAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created admin %s (%s)\n", admin.Email, admin.ID)
			if generated {
				fmt.Fprintf(out, "password: %s\n", password)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name")

	return cmd
}

func newKeygenCmd() *cobra.Command {
	var privatePath, publicPath string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the ES256 key pair used to sign access tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range []string{privatePath, publicPath} {
				if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
					return fmt.Errorf("create key directory: %w", err)
				}
			}

			if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privatePath, publicPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&privatePath, "private", "keys/private.pem", "private key output path")
	cmd.Flags().StringVar(&publicPath, "public", "keys/public.pem", "public key output path")

	return cmd
}
