package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
	"github.com/spf13/cobra"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage entries",
}

// contentFlags reads --value or --file ("-" for stdin). Neither set means
// no content.
func contentFlags(cmd *cobra.Command) (models.Content, error) {
	str := optionalString(cmd, "value")
	path := optionalString(cmd, "file")
	if str == nil && path == nil {
		return nil, nil
	}

	var blob []byte
	if path != nil {
		var err error
		if *path == "-" {
			blob, err = io.ReadAll(cmd.InOrStdin())
		} else {
			blob, err = os.ReadFile(*path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading content: %w", err)
		}
		if blob == nil {
			blob = []byte{}
		}
	}
	return models.NewContent(str, blob)
}

func printEntry(cmd *cobra.Command, e *models.Entry) {
	fmt.Fprintf(cmd.OutOrStdout(), "Entry %d: %s (%s, %d bytes)\nsecret: %s\n", e.ID, e.Key, e.Type, e.Size, e.Secret)
}

var entryPutCmd = &cobra.Command{
	Use:   "put <key>",
	Short: "Create an entry from --value or --file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		content, err := contentFlags(cmd)
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
		e, err := a.Entries.CreateEntry(cmd.Context(), u, services.NewEntry{
			Key:          args[0],
			Type:         typ,
			Content:      content,
			Filename:     optionalString(cmd, "filename"),
			CollectionID: collectionFlag(cmd),
			Metadata:     optionalString(cmd, "metadata"),
			Origin:       optionalString(cmd, "origin"),
		})
		if err != nil {
			return err
		}
		printEntry(cmd, e)
		return nil
	},
}

var entryGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Write the content of an entry to stdout",
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
		_, rc, err := a.Entries.OpenEntry(cmd.Context(), u, id)
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(cmd.OutOrStdout(), rc)
		return err
	},
}

var entryListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List entries of the root or of --collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var f models.EntryFilter
		f.Prefix, _ = cmd.Flags().GetString("prefix")
		f.Contains, _ = cmd.Flags().GetString("contains")
		f.Limit, _ = cmd.Flags().GetInt("limit")
		f.Offset, _ = cmd.Flags().GetInt("offset")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := actor(cmd.Context(), a)
		if err != nil {
			return err
		}
		list, err := a.Entries.ListEntries(cmd.Context(), u, collectionFlag(cmd), f)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKEY\tTYPE\tSIZE\tSECRET")
		for _, e := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", e.ID, e.Key, e.Type, e.Size, e.Secret)
		}
		return w.Flush()
	},
}

var entryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change entry fields, content, or scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		content, err := contentFlags(cmd)
		if err != nil {
			return err
		}
		upd := services.EntryUpdate{
			Key:      optionalString(cmd, "key"),
			Content:  content,
			Type:     optionalString(cmd, "type"),
			Filename: optionalString(cmd, "filename"),
			Metadata: optionalString(cmd, "metadata"),
			Origin:   optionalString(cmd, "origin"),
		}
		if toRoot, _ := cmd.Flags().GetBool("root"); toRoot {
			upd.Move = &services.EntryScope{}
		} else if cid := collectionFlag(cmd); cid != nil {
			upd.Move = &services.EntryScope{CollectionID: cid}
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
		e, err := a.Entries.UpdateEntry(cmd.Context(), u, id, upd)
		if err != nil {
			return err
		}
		printEntry(cmd, e)
		return nil
	},
}

var entryRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an entry",
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
		return a.Entries.DeleteEntry(cmd.Context(), u, id)
	},
}

func init() {
	entryCmd.AddCommand(entryPutCmd)
	entryPutCmd.Flags().String("type", "string", "Declared type (string, integer, float, boolean, json or a media type)")
	entryPutCmd.Flags().String("value", "", "String content")
	entryPutCmd.Flags().String("file", "", "Read binary content from a file, - for stdin")
	entryPutCmd.Flags().String("filename", "", "Original file name")
	entryPutCmd.Flags().Int64("collection", 0, "Collection id, root when omitted")
	entryPutCmd.Flags().String("metadata", "", "Free-form metadata")
	entryPutCmd.Flags().String("origin", "", "Origin of the entry")
	entryPutCmd.MarkFlagsMutuallyExclusive("value", "file")

	entryCmd.AddCommand(entryGetCmd)

	entryCmd.AddCommand(entryListCmd)
	entryListCmd.Flags().Int64("collection", 0, "Collection id, root when omitted")
	entryListCmd.Flags().String("prefix", "", "Only keys starting with this")
	entryListCmd.Flags().String("contains", "", "Only keys containing this")
	entryListCmd.Flags().IntP("limit", "n", 0, "Maximum number of entries")
	entryListCmd.Flags().Int("offset", 0, "Entries to skip")

	entryCmd.AddCommand(entryUpdateCmd)
	entryUpdateCmd.Flags().String("key", "", "New key")
	entryUpdateCmd.Flags().String("type", "", "New type")
	entryUpdateCmd.Flags().String("value", "", "New string content")
	entryUpdateCmd.Flags().String("file", "", "New binary content from a file, - for stdin")
	entryUpdateCmd.Flags().String("filename", "", "New file name")
	entryUpdateCmd.Flags().String("metadata", "", "New metadata")
	entryUpdateCmd.Flags().String("origin", "", "New origin")
	entryUpdateCmd.Flags().Int64("collection", 0, "Move into this collection")
	entryUpdateCmd.Flags().Bool("root", false, "Move to the owner's root")
	entryUpdateCmd.MarkFlagsMutuallyExclusive("value", "file")
	entryUpdateCmd.MarkFlagsMutuallyExclusive("collection", "root")

	entryCmd.AddCommand(entryRemoveCmd)
}
