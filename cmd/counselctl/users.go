// cmd/counselctl/users.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
)

var (
	userName      string
	userEmail     string
	userPassword  string
	userRole      string
	listRole      string
	loginEmail    string
	loginPassword string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		role := models.Role(userRole)
		if !role.Valid() {
			return fmt.Errorf("role must be ADMIN, MANAGER or AGENT, got %q", userRole)
		}
		ctx := cmd.Context()
		s, err := openStores(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		u, err := store.NewUserStore(s.pg.DB, log).CreateUser(ctx, userName, userEmail, userPassword, role)
		if err != nil {
			return err
		}
		return printJSON(cmd, u)
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staff accounts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := openStores(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		users, err := store.NewUserStore(s.pg.DB, log).ListUsers(ctx, models.Role(listRole), false)
		if err != nil {
			return err
		}
		return printJSON(cmd, users)
	},
}

var usersLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check staff credentials and record the login",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := openStores(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		u, err := store.NewUserStore(s.pg.DB, log).Authenticate(ctx, loginEmail, loginPassword)
		if err != nil {
			return err
		}
		store.NewAuditLog(s.pg.DB, log).Record(ctx, u.ID, models.AuditLogin, "", map[string]interface{}{"via": "counselctl"})
		return printJSON(cmd, u)
	},
}

func init() {
	f := usersCreateCmd.Flags()
	f.StringVar(&userName, "name", "", "display name")
	f.StringVar(&userEmail, "email", "", "login email")
	f.StringVar(&userPassword, "password", "", "initial password")
	f.StringVar(&userRole, "role", string(models.RoleAgent), "ADMIN, MANAGER or AGENT")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersListCmd.Flags().StringVar(&listRole, "role", "", "only list this role")

	usersLoginCmd.Flags().StringVar(&loginEmail, "email", "", "login email")
	usersLoginCmd.Flags().StringVar(&loginPassword, "password", "", "password")
	_ = usersLoginCmd.MarkFlagRequired("email")
	_ = usersLoginCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersCreateCmd, usersListCmd, usersLoginCmd)
	rootCmd.AddCommand(usersCmd)
}
