package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophstore/internal/server"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/spf13/cobra"
)

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Manage access grants on collections and entries",
}

// resource parses "<collection|entry> <id>" and checks that the acting
// user administers it.
func resource(cmd *cobra.Command, a *server.App, args []string) (models.ResourceType, int64, error) {
	rt, err := models.ParseResourceType(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := parseID(args[1])
	if err != nil {
		return "", 0, err
	}
	u, err := actor(cmd.Context(), a)
	if err != nil {
		return "", 0, err
	}
	if _, err := a.Access.RequireAccess(cmd.Context(), u, rt, id, models.AccessAdmin); err != nil {
		return "", 0, err
	}
	return rt, id, nil
}

var accessGrantCmd = &cobra.Command{
	Use:   "grant <collection|entry> <id> <email> <READONLY|READWRITE|ADMIN>",
	Short: "Grant or change a user's access level",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := models.ParseAccessLevel(args[3])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rt, id, err := resource(cmd, a, args)
		if err != nil {
			return err
		}
		grantee, err := a.Users.GetUserByEmail(cmd.Context(), args[2])
		if err != nil {
			return err
		}
		g, err := a.Access.GrantAccess(cmd.Context(), grantee.ID, rt, id, level)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Granted %s on %s %d to %s\n", g.Level, rt, id, grantee.Email)
		return nil
	},
}

var accessRevokeCmd = &cobra.Command{
	Use:   "revoke <collection|entry> <id> <email>",
	Short: "Remove a user's grant",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rt, id, err := resource(cmd, a, args)
		if err != nil {
			return err
		}
		grantee, err := a.Users.GetUserByEmail(cmd.Context(), args[2])
		if err != nil {
			return err
		}
		return a.Access.RevokeAccess(cmd.Context(), grantee.ID, rt, id)
	},
}

var accessListCmd = &cobra.Command{
	Use:   "ls <collection|entry> <id>",
	Short: "List grants on a resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rt, id, err := resource(cmd, a, args)
		if err != nil {
			return err
		}
		grants, err := a.Access.ListAccess(cmd.Context(), rt, id)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tNAME\tLEVEL\tUPDATED")
		for _, g := range grants {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Email, g.DisplayName, g.Level, g.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var accessCheckCmd = &cobra.Command{
	Use:   "check <collection|entry> <id>",
	Short: "Show the acting user's effective access level",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := models.ParseResourceType(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := actor(cmd.Context(), a)
		if err != nil {
			return err
		}
		level, err := a.Access.CheckAccess(cmd.Context(), u, rt, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), level)
		return nil
	},
}

func init() {
	accessCmd.AddCommand(accessGrantCmd)
	accessCmd.AddCommand(accessRevokeCmd)
	accessCmd.AddCommand(accessListCmd)
	accessCmd.AddCommand(accessCheckCmd)
}
