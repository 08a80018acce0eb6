// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Work with the contacts projection",
	Long: `Contacts manages the dashboard projection: one row per discovered
address with the author and paper it came from. The projection is a
convenience export; the send ledger remains the authority on who has
been contacted.`,
}

var contactsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the contacts projection as CSV",
	RunE:  runContactsExport,
}

func init() {
	contactsExportCmd.Flags().String("output", "", "write CSV to this file instead of stdout")

	contactsCmd.AddCommand(contactsExportCmd)
	rootCmd.AddCommand(contactsCmd)
}

func runContactsExport(cmd *cobra.Command, args []string) error {
	_, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	return sends.ExportCSV(cmd.Context(), out)
}
