// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract scans profile affiliation text for embedded contact
// addresses. It is the only stage allowed to grow a profile's candidate
// email list; every later stage only narrows it.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

// emailPattern matches addresses embedded in affiliation text, e.g.
// "Dept of X, contact: a.b@uni.edu".
var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// FindEmails returns all addresses embedded in text, in order of
// appearance.
func FindEmails(text string) []string {
	return emailPattern.FindAllString(text, -1)
}

// Enrich unions each profile's existing candidates with every address
// found in its affiliation strings, deduplicating case-sensitively while
// preserving first-seen order. Case folding belongs to validation.
// Profiles that end up with no candidates are dropped.
func Enrich(profiles []types.ProfileRecord) []types.ProfileRecord {
	var enriched []types.ProfileRecord

	for _, p := range profiles {
		seen := make(map[string]struct{}, len(p.Emails))
		var emails []string
		add := func(email string) {
			if _, ok := seen[email]; ok {
				return
			}
			seen[email] = struct{}{}
			emails = append(emails, email)
		}

		for _, email := range p.Emails {
			add(email)
		}
		for _, affiliation := range p.Affiliations {
			for _, email := range FindEmails(affiliation) {
				add(email)
			}
		}

		if len(emails) == 0 {
			continue
		}
		p.Emails = emails
		enriched = append(enriched, p)
	}
	return enriched
}

// Run loads the latest profiling snapshot, enriches it, publishes the
// extraction snapshot, and refreshes the contacts projection. A missing
// or unreadable profiling snapshot makes the stage a no-op.
func Run(ctx context.Context, store *snapshot.Store, contacts *ledger.Store, w io.Writer) (*snapshot.Meta, error) {
	snap, err := snapshot.Latest[types.ProfileRecord](store, snapshot.StageProfiling)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			fmt.Fprintln(w, "no profiling snapshot yet; nothing to extract")
			return nil, nil
		}
		fmt.Fprintf(w, "warning: profiling snapshot unreadable, treating as empty: %v\n", err)
		return nil, nil
	}

	enriched := Enrich(snap.Records)

	meta, err := snapshot.Write(store, snapshot.StageExtraction, enriched)
	if err != nil {
		return nil, fmt.Errorf("publishing extraction snapshot: %w", err)
	}

	// Refresh the dashboard projection. Failures here never block the
	// pipeline; the projection is convenience, not authority.
	if contacts != nil {
		for _, p := range enriched {
			if err := contacts.UpsertContact(ctx, p); err != nil {
				fmt.Fprintf(w, "warning: contact upsert failed: %v\n", err)
			}
		}
	}

	fmt.Fprintf(w, "found addresses for %d of %d profiles as %s\n",
		len(enriched), len(snap.Records), meta.Version)
	return &meta, nil
}
