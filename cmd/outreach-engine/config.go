// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/secrets"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

const (
	defaultDataDir    = "data"
	defaultTimeout    = 30 * time.Second
	defaultUserAgent  = "outreach-engine/0.1"
	defaultDaysBack   = 7
	defaultMaxResults = 100
	defaultSendDelay  = 5 * time.Second
	defaultDailyCap   = 50
	defaultTemplate   = "templates/outreach.txt"
)

// dataDir resolves the base directory: flag, then config file, then default.
func dataDir() string {
	if dir, _ := rootCmd.PersistentFlags().GetString("data-dir"); dir != "" {
		return dir
	}
	if dir := viper.GetString("data_dir"); dir != "" {
		return dir
	}
	return defaultDataDir
}

// openStores opens the snapshot store and the send ledger under the data
// directory. The caller owns closing the ledger.
func openStores() (*snapshot.Store, *ledger.Store, error) {
	dir := dataDir()
	sends, err := ledger.Open(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening send ledger: %w", err)
	}
	return snapshot.NewStore(dir), sends, nil
}

// discoveryConfig builds the discovery settings from flags, falling back
// to the config file. Queries come from the flag when given, otherwise
// from discovery.queries in the config.
func discoveryConfig(cmd *cobra.Command) types.DiscoveryConfig {
	queries, _ := cmd.Flags().GetStringSlice("query")
	if len(queries) == 0 {
		queries = viper.GetStringSlice("discovery.queries")
	}

	daysBack, _ := cmd.Flags().GetInt("days-back")
	if !cmd.Flags().Changed("days-back") && viper.IsSet("discovery.days_back") {
		daysBack = viper.GetInt("discovery.days_back")
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	if !cmd.Flags().Changed("max-results") && viper.IsSet("discovery.max_results") {
		maxResults = viper.GetInt("discovery.max_results")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return types.DiscoveryConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Queries:      queries,
		DaysBack:     daysBack,
		MaxResults:   maxResults,
		ContactEmail: viper.GetString("discovery.contact_email"),
		APIKey:       secretValue(secrets.KeyNCBIAPIKey),
	}
}

// validationConfig builds the validation settings.
func validationConfig(cmd *cobra.Command) types.ValidationConfig {
	checkMX, _ := cmd.Flags().GetBool("check-mx")
	if !cmd.Flags().Changed("check-mx") {
		checkMX = viper.GetBool("validation.check_mx")
	}
	return types.ValidationConfig{CheckMX: checkMX}
}

// outreachConfig builds the outreach settings and validates the fields
// that cannot be defaulted.
func outreachConfig() (types.OutreachConfig, error) {
	cfg := types.OutreachConfig{
		SenderEmail:    viper.GetString("outreach.sender_email"),
		SMTPHost:       viper.GetString("outreach.smtp_host"),
		SMTPPort:       viper.GetInt("outreach.smtp_port"),
		Subject:        viper.GetString("outreach.subject"),
		TemplateFile:   viper.GetString("outreach.template_file"),
		MaxDailyEmails: viper.GetInt("outreach.max_daily_emails"),
		SendDelay:      viper.GetDuration("outreach.send_delay"),
	}

	if cfg.SenderEmail == "" {
		return cfg, fmt.Errorf("outreach.sender_email is not configured")
	}
	if cfg.SMTPHost == "" {
		return cfg, fmt.Errorf("outreach.smtp_host is not configured")
	}
	if cfg.Subject == "" {
		return cfg, fmt.Errorf("outreach.subject is not configured")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.TemplateFile == "" {
		cfg.TemplateFile = defaultTemplate
	}
	if cfg.MaxDailyEmails <= 0 {
		cfg.MaxDailyEmails = defaultDailyCap
	}
	if cfg.SendDelay == 0 {
		cfg.SendDelay = defaultSendDelay
	}
	return cfg, nil
}
