// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover queries a paper search provider for each configured
// search term and publishes one deduplicated snapshot of paper records.
package discover

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

// Provider searches a single external paper source. A failed call counts
// as zero results for that query; retry and backoff live inside the
// provider, not here.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.DiscoveryConfig) ([]types.PaperRecord, error)
}

// Output holds the merged results and per-query failures of one run.
type Output struct {
	Papers      []types.PaperRecord
	DupsRemoved int
	QueryErrors []string
}

// Discover fetches every configured query from the provider and merges the
// results, deduplicating by paper ID. A query that fails is logged and
// contributes nothing; it never aborts the run.
func Discover(ctx context.Context, p Provider, cfg types.DiscoveryConfig, w io.Writer) Output {
	var all []types.PaperRecord
	var queryErrors []string

	for _, query := range cfg.Queries {
		fmt.Fprintf(w, "searching %s: %q\n", p.Name(), query)
		papers, err := p.Search(ctx, query, cfg)
		if err != nil {
			msg := fmt.Sprintf("%s: %q: %v", p.Name(), query, err)
			queryErrors = append(queryErrors, msg)
			fmt.Fprintf(w, "warning: query failed, continuing: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "  %d papers\n", len(papers))
		all = append(all, papers...)
	}

	merged, removed := mergeByID(all)
	return Output{Papers: merged, DupsRemoved: removed, QueryErrors: queryErrors}
}

// mergeByID deduplicates papers by ID. The last record seen for an ID wins;
// external identifiers are content-stable so the choice is harmless. The
// first-seen position is kept so output order is deterministic.
func mergeByID(papers []types.PaperRecord) ([]types.PaperRecord, int) {
	seen := make(map[string]int)
	var merged []types.PaperRecord
	removed := 0

	for _, paper := range papers {
		if idx, ok := seen[paper.ID]; ok {
			merged[idx] = paper
			removed++
			continue
		}
		seen[paper.ID] = len(merged)
		merged = append(merged, paper)
	}
	return merged, removed
}

// Run executes the discovery stage end to end: fetch, merge, publish.
func Run(ctx context.Context, store *snapshot.Store, p Provider, cfg types.DiscoveryConfig, w io.Writer) (*snapshot.Meta, error) {
	if len(cfg.Queries) == 0 {
		return nil, fmt.Errorf("no search queries configured")
	}

	out := Discover(ctx, p, cfg, w)

	meta, err := snapshot.Write(store, snapshot.StageDiscovery, out.Papers)
	if err != nil {
		return nil, fmt.Errorf("publishing discovery snapshot: %w", err)
	}

	fmt.Fprintf(w, "\npublished %d unique papers (%d duplicates removed, %d queries failed) as %s\n",
		len(out.Papers), out.DupsRemoved, len(out.QueryErrors), meta.Version)
	return &meta, nil
}
