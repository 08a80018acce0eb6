// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Filter candidate addresses against syntax and the send history",
	Long: `Validate normalizes every candidate address, drops malformed ones,
drops anything already contacted per the send ledger, and keeps the first
surviving candidate per profile. With --check-mx each candidate's domain
must also have a DNS mail-exchanger record.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("check-mx", false, "require an MX record on each candidate's domain")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	store, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	_, err = validate.Run(cmd.Context(), store, sends, validationConfig(cmd), os.Stdout)
	return err
}
