// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Expand the latest paper snapshot into per-author profiles",
	Long: `Profile reads the most recent discovery snapshot and produces one
profile per (paper, author) pair. Authors without a last name are skipped.
If no discovery snapshot exists the command is a no-op.`,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	store, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	_, err = profile.Run(store, os.Stdout)
	return err
}
