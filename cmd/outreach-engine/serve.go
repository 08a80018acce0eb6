// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/pipeline"
	"github.com/pdiddy/outreach-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP control surface",
	Long: `Serve exposes the pipeline over HTTP: trigger any stage (returns a
task ID immediately), poll task state, read the latest snapshot summary
per stage, view aggregate stats, and export the contacts projection as
CSV.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Bool("check-mx", false, "require an MX record on each candidate's domain")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	store, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	runners := stageRunners(cmd, store, sends, os.Stdout)
	srv := server.New(pipeline.NewDriver(), store, sends, runners, version)

	fmt.Fprintf(os.Stderr, "Listening on %s\n", addr)
	return srv.Router().Run(addr)
}
