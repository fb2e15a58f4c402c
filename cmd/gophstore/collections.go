package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
}

func printCollection(cmd *cobra.Command, c *models.Collection) {
	fmt.Fprintf(cmd.OutOrStdout(), "Collection %d: %s\nsecret: %s\n", c.ID, c.Name, c.Secret)
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := actor(cmd.Context(), a)
		if err != nil {
			return err
		}
		c, err := a.Collections.CreateCollection(cmd.Context(), u, services.NewCollection{
			Name:        args[0],
			Description: desc,
			Metadata:    optionalString(cmd, "metadata"),
			Origin:      optionalString(cmd, "origin"),
		})
		if err != nil {
			return err
		}
		printCollection(cmd, c)
		return nil
	},
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections visible to the acting user",
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
		list, err := a.Collections.ListCollections(cmd.Context(), u)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tOWNER\tCREATED")
		for _, c := range list {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", c.ID, c.Name, c.UserID, c.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var collectionUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change collection fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
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
		c, err := a.Collections.UpdateCollection(cmd.Context(), u, id, services.CollectionUpdate{
			Name:        optionalString(cmd, "name"),
			Description: optionalString(cmd, "description"),
			Metadata:    optionalString(cmd, "metadata"),
			Origin:      optionalString(cmd, "origin"),
		})
		if err != nil {
			return err
		}
		printCollection(cmd, c)
		return nil
	},
}

var collectionRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a collection and its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
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
		return a.Collections.DeleteCollection(cmd.Context(), u, id)
	},
}

var collectionRotateCmd = &cobra.Command{
	Use:   "rotate <id>",
	Short: "Replace the public secret of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
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
		c, err := a.Collections.RotateSecret(cmd.Context(), u, id)
		if err != nil {
			return err
		}
		printCollection(cmd, c)
		return nil
	},
}

func init() {
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCreateCmd.Flags().String("description", "", "Description")
	collectionCreateCmd.Flags().String("metadata", "", "Free-form metadata")
	collectionCreateCmd.Flags().String("origin", "", "Origin of the collection")

	collectionCmd.AddCommand(collectionUpdateCmd)
	collectionUpdateCmd.Flags().String("name", "", "New name")
	collectionUpdateCmd.Flags().String("description", "", "New description")
	collectionUpdateCmd.Flags().String("metadata", "", "New metadata")
	collectionUpdateCmd.Flags().String("origin", "", "New origin")

	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionRemoveCmd)
	collectionCmd.AddCommand(collectionRotateCmd)
}
