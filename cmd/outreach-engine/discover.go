// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/discover"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search for recently published papers matching the configured queries",
	Long: `Discover queries PubMed for each configured search term, restricted to
papers published within the recency window, merges the results, and
publishes a deduplicated snapshot. A query that fails contributes zero
papers; it never aborts the run.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringSlice("query", nil, "search terms (overrides discovery.queries in the config)")
	discoverCmd.Flags().Int("days-back", defaultDaysBack, "recency window in days (0 = today only)")
	discoverCmd.Flags().Int("max-results", defaultMaxResults, "maximum papers fetched per query")
	discoverCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg := discoveryConfig(cmd)
	if len(cfg.Queries) == 0 {
		return fmt.Errorf("no search queries: set discovery.queries in the config or pass --query")
	}
	if cfg.MaxResults <= 0 {
		return fmt.Errorf("max-results must be positive, got %d", cfg.MaxResults)
	}
	if cfg.DaysBack < 0 {
		return fmt.Errorf("days-back must be zero or positive, got %d", cfg.DaysBack)
	}

	store, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	client := &http.Client{Timeout: cfg.Timeout}
	provider := discover.NewPubMedProvider(client, cfg.APIKey)

	_, err = discover.Run(cmd.Context(), store, provider, cfg, os.Stdout)
	return err
}
