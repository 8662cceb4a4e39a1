package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"boardhub/backend/config"
	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/repository/sqlstore"
	"boardhub/backend/service/auth"
)

func newUserCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login users",
	}

	var (
		email    string
		password string
		role     string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a login user",
		Example: `  boardhub user add --email ops@example.com --password 's3cret-pass'
  BOARDHUB_USER_PASSWORD='s3cret-pass' boardhub user add --email ops@example.com --role admin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("BOARDHUB_USER_PASSWORD")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log.Level, cmd.ErrOrStderr())

			store, err := sqlstore.Open(sqlstore.Config{Path: cfg.Database.Path, Logger: logger}, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			// 这里只建用户，不签发 token
			svc := auth.NewService(store.Repositories().User(), nil, nil, logger)
			user, err := svc.CreateUser(cmd.Context(), email, password, domain.UserRole(strings.ToLower(role)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "login email")
	add.Flags().StringVar(&password, "password", "", "login password (or BOARDHUB_USER_PASSWORD)")
	add.Flags().StringVar(&role, "role", string(domain.RoleUser), "admin or user")
	_ = add.MarkFlagRequired("email")

	cmd.AddCommand(add)
	return cmd
}
