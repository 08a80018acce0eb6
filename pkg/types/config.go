// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "outreach-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DiscoveryConfig holds settings for the discovery stage.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline"`

	// Queries is the set of search terms. Each query is fetched
	// independently; results are merged and deduplicated by paper ID.
	Queries []string `json:"queries" yaml:"queries"`

	// DaysBack restricts results to papers published within the last N
	// days. Zero means today only.
	DaysBack int `json:"days_back" yaml:"days_back"`

	// MaxResults caps the number of papers fetched per query.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// ContactEmail is sent to the provider for polite-pool access
	// (NCBI asks for a contact address on E-utilities calls).
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`

	// APIKey is an optional provider API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// ValidationConfig holds settings for the validation stage.
type ValidationConfig struct {
	// CheckMX enables the mail-exchanger lookup on each candidate's
	// domain. A domain that fails the lookup is treated like a
	// syntactically invalid address: dropped, not retried.
	CheckMX bool `json:"check_mx" yaml:"check_mx"`
}

// OutreachConfig holds settings for the outreach stage.
type OutreachConfig struct {
	// SenderEmail is the From address and SMTP login identity.
	SenderEmail string `json:"sender_email" yaml:"sender_email"`

	// SMTPHost is the mail server hostname.
	SMTPHost string `json:"smtp_host" yaml:"smtp_host"`

	// SMTPPort is the mail server port. 465 selects implicit TLS;
	// anything else uses STARTTLS.
	SMTPPort int `json:"smtp_port" yaml:"smtp_port"`

	// Subject is the subject line for every outreach message.
	Subject string `json:"subject" yaml:"subject"`

	// TemplateFile is the path to the message body template.
	TemplateFile string `json:"template_file" yaml:"template_file"`

	// MaxDailyEmails is the per-run send budget. Once the budget is
	// consumed the remaining queue is skipped, not sent.
	MaxDailyEmails int `json:"max_daily_emails" yaml:"max_daily_emails"`

	// SendDelay is the pause after each successful send, pacing
	// deliveries against provider throttling.
	SendDelay time.Duration `json:"send_delay" yaml:"send_delay"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	// DataDir is the base directory for snapshots, the index, and the
	// send ledger.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Outreach   OutreachConfig   `json:"outreach" yaml:"outreach"`
}
