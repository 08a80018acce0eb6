// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package status aggregates counts across stage snapshots and the send
// ledger for observability. It is a pure reader: whatever snapshot exists
// at call time is what gets counted, and racing an in-flight producer is
// accepted staleness, not an error.
package status

import (
	"context"

	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
)

// Stats holds the per-stage counts for one point in time.
type Stats struct {
	PapersFound     int `json:"papers_found"`
	AuthorsProfiled int `json:"authors_profiled"`
	WithEmails      int `json:"with_emails"`
	ReadyToSend     int `json:"ready_to_send"`
	EmailsSent      int `json:"emails_sent"`
}

// Collect reads the latest snapshot envelope of each stage plus the ledger
// row count. A stage that has never published counts as zero.
func Collect(ctx context.Context, store *snapshot.Store, sends *ledger.Store) (Stats, error) {
	stats := Stats{
		PapersFound:     stageCount(store, snapshot.StageDiscovery),
		AuthorsProfiled: stageCount(store, snapshot.StageProfiling),
		WithEmails:      stageCount(store, snapshot.StageExtraction),
		ReadyToSend:     stageCount(store, snapshot.StageValidation),
	}

	sent, err := sends.SendCount(ctx)
	if err != nil {
		return stats, err
	}
	stats.EmailsSent = sent
	return stats, nil
}

func stageCount(store *snapshot.Store, stage string) int {
	meta, err := store.LatestMeta(stage)
	if err != nil {
		return 0
	}
	return meta.Count
}
