// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-stage counts and total emails sent",
	Long: `Status reads the latest snapshot of each stage plus the send ledger
and prints aggregate counts. It never mutates any artifact; racing a
stage that is mid-run just shows the previous snapshot.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output counts as JSON")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	stats, err := status.Collect(cmd.Context(), store, sends)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("papers found:     %d\n", stats.PapersFound)
	fmt.Printf("authors profiled: %d\n", stats.AuthorsProfiled)
	fmt.Printf("with emails:      %d\n", stats.WithEmails)
	fmt.Printf("ready to send:    %d\n", stats.ReadyToSend)
	fmt.Printf("emails sent:      %d\n", stats.EmailsSent)
	return nil
}
