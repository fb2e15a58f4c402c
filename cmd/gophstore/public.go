package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/spf13/cobra"
)

// public commands need no --as: the secret is the capability.
var publicCmd = &cobra.Command{
	Use:   "public",
	Short: "Anonymous reads by secret",
}

var publicGetCmd = &cobra.Command{
	Use:   "get <key> <secret>",
	Short: "Write the content of the oldest entry with this key and value hash",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		_, rc, err := a.Public.OpenEntryBySecret(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(cmd.OutOrStdout(), rc)
		return err
	},
}

var publicCollectionCmd = &cobra.Command{
	Use:   "collection <secret>",
	Short: "List the entries of a collection by its secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var f models.EntryFilter
		f.Prefix, _ = cmd.Flags().GetString("prefix")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		c, list, err := a.Public.ListCollectionEntriesBySecret(cmd.Context(), args[0], f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n\n", c.Name, c.Description)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tTYPE\tSIZE\tSECRET")
		for _, e := range list {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Key, e.Type, e.Size, e.Secret)
		}
		return w.Flush()
	},
}

func init() {
	publicCmd.AddCommand(publicGetCmd)
	publicCmd.AddCommand(publicCollectionCmd)
	publicCollectionCmd.Flags().String("prefix", "", "Only keys starting with this")
}
