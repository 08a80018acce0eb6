// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile expands discovered papers into one profile per
// (paper, author) pair. The stage is a pure transform: the same discovery
// snapshot always yields the same profile set.
package profile

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

// Expand produces one ProfileRecord per (paper, author) pair. Authors
// without a last name cannot form a display identity and are skipped.
// Emails the source supplied directly are carried in as seed candidates;
// extraction grows the list later.
func Expand(papers []types.PaperRecord) []types.ProfileRecord {
	var profiles []types.ProfileRecord

	for _, paper := range papers {
		for _, author := range paper.Authors {
			first := strings.TrimSpace(author.FirstName)
			last := strings.TrimSpace(author.LastName)
			if last == "" {
				continue
			}

			p := types.ProfileRecord{
				Name:         strings.TrimSpace(first + " " + last),
				FirstName:    first,
				LastName:     last,
				Affiliations: author.Affiliation,
				PaperTitle:   paper.Title,
				PaperID:      paper.ID,
				Journal:      paper.Journal,
				Emails:       []string{},
			}
			if author.Email != "" {
				p.Emails = append(p.Emails, author.Email)
			}
			profiles = append(profiles, p)
		}
	}
	return profiles
}

// Run loads the latest discovery snapshot, expands it, and publishes the
// profiling snapshot. A missing discovery snapshot makes the stage a
// no-op; an unreadable one is treated the same way, with a warning.
func Run(store *snapshot.Store, w io.Writer) (*snapshot.Meta, error) {
	snap, err := snapshot.Latest[types.PaperRecord](store, snapshot.StageDiscovery)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			fmt.Fprintln(w, "no discovery snapshot yet; nothing to profile")
			return nil, nil
		}
		fmt.Fprintf(w, "warning: discovery snapshot unreadable, treating as empty: %v\n", err)
		return nil, nil
	}

	profiles := Expand(snap.Records)

	meta, err := snapshot.Write(store, snapshot.StageProfiling, profiles)
	if err != nil {
		return nil, fmt.Errorf("publishing profiling snapshot: %w", err)
	}

	fmt.Fprintf(w, "profiled %d authors from %d papers as %s\n",
		len(profiles), len(snap.Records), meta.Version)
	return &meta, nil
}
