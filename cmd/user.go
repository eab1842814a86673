package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bibliotek-ia/bibliotek/internal/auth"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserPromoteCmd(a), newUserCreateCmd(a), newUserListCmd(a))
	return cmd
}

func newUserPromoteCmd(a *app) *cobra.Command {
	var demote bool

	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant a user the admin role",
		Example: `  bibliotek user promote ana@example.com
  bibliotek user promote ana@example.com --demote`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			role := models.RoleAdmin
			if demote {
				role = models.RoleUser
			}
			u, err := store.SetRole(cmd.Context(), args[0], role)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", u.Name, u.Email, u.Role)
			return nil
		},
	}
	cmd.Flags().BoolVar(&demote, "demote", false, "Revoke the admin role instead")
	return cmd
}

func newUserCreateCmd(a *app) *cobra.Command {
	var (
		req   models.RegisterRequest
		admin bool
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create an account",
		Example: `  bibliotek user create --name "Ana" --email ana@example.com --password segredo --admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			role := models.RoleUser
			if admin {
				role = models.RoleAdmin
			}
			// Only the store is used; no tokens are issued here
			svc := auth.NewService(store, nil)
			u, err := svc.CreateUser(cmd.Context(), req, role)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with id %d as %s\n", u.Name, u.Email, u.ID, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 6 characters (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Create the account as an admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			users, err := store.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{
					fmt.Sprint(u.ID), u.Name, u.Email, u.Role,
					u.CreatedAt.Local().Format(time.DateTime), lastSeen(u.LastSeenAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("Users",
				[]string{"ID", "Name", "Email", "Role", "Created", "Last seen"},
				rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}

func lastSeen(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
