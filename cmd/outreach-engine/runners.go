// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outreach-engine/internal/discover"
	"github.com/pdiddy/outreach-engine/internal/extract"
	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/outreach"
	"github.com/pdiddy/outreach-engine/internal/pipeline"
	"github.com/pdiddy/outreach-engine/internal/profile"
	"github.com/pdiddy/outreach-engine/internal/secrets"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/internal/validate"
)

// stageRunners builds the closure for each pipeline stage, shared by the
// "run" driver and the HTTP control surface. Stage configuration is
// resolved when the runner executes, so config edits take effect without
// restarting a long-lived server.
func stageRunners(cmd *cobra.Command, store *snapshot.Store, sends *ledger.Store, w io.Writer) map[string]pipeline.Runner {
	return map[string]pipeline.Runner{
		snapshot.StageDiscovery: func(ctx context.Context) error {
			cfg := discoveryConfig(cmd)
			client := &http.Client{Timeout: cfg.Timeout}
			provider := discover.NewPubMedProvider(client, cfg.APIKey)
			_, err := discover.Run(ctx, store, provider, cfg, w)
			return err
		},
		snapshot.StageProfiling: func(ctx context.Context) error {
			_, err := profile.Run(store, w)
			return err
		},
		snapshot.StageExtraction: func(ctx context.Context) error {
			_, err := extract.Run(ctx, store, sends, w)
			return err
		},
		snapshot.StageValidation: func(ctx context.Context) error {
			_, err := validate.Run(ctx, store, sends, validationConfig(cmd), w)
			return err
		},
		snapshot.StageOutreach: func(ctx context.Context) error {
			cfg, err := outreachConfig()
			if err != nil {
				return err
			}
			tmpl, err := loadMessageTemplate(cfg)
			if err != nil {
				return err
			}
			transport := &outreach.SMTPTransport{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				From:     cfg.SenderEmail,
				Password: secretValue(secrets.KeySMTPPassword),
			}
			_, _, err = outreach.Run(ctx, store, sends, transport, tmpl, cfg, w)
			return err
		},
	}
}
