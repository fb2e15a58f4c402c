package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userEnsureCmd = &cobra.Command{
	Use:   "ensure <email>",
	Short: "Create or refresh a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Users.EnsureUser(cmd.Context(), args[0], name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %d: %s (admin: %t)\n", u.ID, u.Email, u.IsAdmin)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.Users.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tADMIN")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", u.ID, u.Email, u.DisplayName, u.IsAdmin)
		}
		return w.Flush()
	},
}

var userAdminCmd = &cobra.Command{
	Use:   "admin <email> <true|false>",
	Short: "Set the global admin flag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flag, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("%w: %q is not a boolean", common.ErrorValidation, args[1])
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Users.GetUserByEmail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return a.Users.SetAdmin(cmd.Context(), u.ID, flag)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete a user with everything they own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Users.GetUserByEmail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return a.Users.DeleteUser(cmd.Context(), u.ID)
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage session tokens",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a session token for the --as user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := actor(cmd.Context(), a)
		if err != nil {
			return err
		}
		s, err := a.Users.CreateSession(cmd.Context(), u.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", s.Token, s.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

var sessionWhoamiCmd = &cobra.Command{
	Use:   "whoami <token>",
	Short: "Show the user behind a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Users.ResolveSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %d: %s\n", u.ID, u.Email)
		return nil
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout <token>",
	Short: "Revoke a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Users.DeleteSession(cmd.Context(), args[0])
	},
}

var sessionPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Users.PurgeExpiredSessions(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d sessions\n", n)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userEnsureCmd)
	userEnsureCmd.Flags().String("name", "", "Display name")
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userAdminCmd)
	userCmd.AddCommand(userDeleteCmd)

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionWhoamiCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
	sessionCmd.AddCommand(sessionPurgeCmd)
}
