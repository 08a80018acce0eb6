// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Scan profile affiliations for embedded contact addresses",
	Long: `Extract scans each profile's affiliation text for email addresses,
unions them with any candidates already present, and drops profiles that
end up with none. Surviving profiles also refresh the contacts projection
used by the dashboard export.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	store, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	_, err = extract.Run(cmd.Context(), store, sends, os.Stdout)
	return err
}
