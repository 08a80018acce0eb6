// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/outreach"
	"github.com/pdiddy/outreach-engine/internal/secrets"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Send templated messages to validated contacts under the daily cap",
	Long: `Outreach processes the most recent validation snapshot in order,
rendering the message template for each record and delivering it over
SMTP. Sends stop once the daily budget is consumed; the remaining queue
is skipped and stays eligible for the next run. Every successful send is
recorded in the send ledger.`,
	RunE: runOutreach,
}

func init() {
	rootCmd.AddCommand(outreachCmd)
}

func runOutreach(cmd *cobra.Command, args []string) error {
	cfg, err := outreachConfig()
	if err != nil {
		return err
	}

	tmpl, err := loadMessageTemplate(cfg)
	if err != nil {
		return err
	}

	store, sends, err := openStores()
	if err != nil {
		return err
	}
	defer sends.Close()

	transport := &outreach.SMTPTransport{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SenderEmail,
		Password: secretValue(secrets.KeySMTPPassword),
	}

	_, report, err := outreach.Run(cmd.Context(), store, sends, transport, tmpl, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if report != nil && report.Failed > 0 {
		return fmt.Errorf("%d message(s) failed delivery", report.Failed)
	}
	return nil
}

func loadMessageTemplate(cfg types.OutreachConfig) (*template.Template, error) {
	data, err := os.ReadFile(cfg.TemplateFile)
	if err != nil {
		return nil, fmt.Errorf("reading message template %s: %w", cfg.TemplateFile, err)
	}
	t, err := outreach.LoadTemplate(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing message template %s: %w", cfg.TemplateFile, err)
	}
	return t, nil
}
