// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate filters candidate addresses down to one outreach-ready
// address per profile: normalized, syntactically plausible, and never
// contacted before. The send ledger is the sole dedup authority.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

// DomainChecker is the optional deeper validity gate. A domain that fails
// the check is treated like a syntactically invalid address: dropped, not
// retried.
type DomainChecker interface {
	HasMailExchanger(ctx context.Context, domain string) bool
}

// MXChecker checks domains against DNS mail-exchanger records.
type MXChecker struct {
	Resolver *net.Resolver
}

// HasMailExchanger reports whether domain has at least one MX record.
func (c *MXChecker) HasMailExchanger(ctx context.Context, domain string) bool {
	resolver := c.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	records, err := resolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

// Filter reduces each profile to its first valid, never-contacted
// candidate, in the order extraction produced them. Profiles with no
// surviving candidate are dropped entirely. checker may be nil to skip
// the domain gate.
func Filter(ctx context.Context, profiles []types.ProfileRecord, history map[string]struct{}, checker DomainChecker, w io.Writer) []types.ValidatedRecord {
	var validated []types.ValidatedRecord

	for _, p := range profiles {
		email, ok := firstValid(ctx, p.Emails, history, checker, w)
		if !ok {
			continue
		}
		validated = append(validated, types.ValidatedRecord{
			Name:       p.Name,
			FirstName:  p.FirstName,
			Email:      email,
			PaperTitle: p.PaperTitle,
			Journal:    p.Journal,
		})
	}
	return validated
}

func firstValid(ctx context.Context, candidates []string, history map[string]struct{}, checker DomainChecker, w io.Writer) (string, bool) {
	for _, candidate := range candidates {
		email := strings.ToLower(strings.TrimSpace(candidate))
		if email == "" || strings.Count(email, "@") != 1 {
			continue
		}
		if _, sent := history[email]; sent {
			fmt.Fprintf(w, "skipping %s: already contacted\n", email)
			continue
		}
		if checker != nil {
			domain := email[strings.Index(email, "@")+1:]
			if !checker.HasMailExchanger(ctx, domain) {
				fmt.Fprintf(w, "skipping %s: no mail exchanger for %s\n", email, domain)
				continue
			}
		}
		return email, true
	}
	return "", false
}

// Run loads the latest extraction snapshot and the full send history,
// filters, and publishes the validation snapshot. A missing or unreadable
// extraction snapshot makes the stage a no-op.
func Run(ctx context.Context, store *snapshot.Store, sends *ledger.Store, cfg types.ValidationConfig, w io.Writer) (*snapshot.Meta, error) {
	snap, err := snapshot.Latest[types.ProfileRecord](store, snapshot.StageExtraction)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			fmt.Fprintln(w, "no extraction snapshot yet; nothing to validate")
			return nil, nil
		}
		fmt.Fprintf(w, "warning: extraction snapshot unreadable, treating as empty: %v\n", err)
		return nil, nil
	}

	history, err := sends.SentEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading send history: %w", err)
	}

	var checker DomainChecker
	if cfg.CheckMX {
		checker = &MXChecker{}
	}

	validated := Filter(ctx, snap.Records, history, checker, w)

	meta, err := snapshot.Write(store, snapshot.StageValidation, validated)
	if err != nil {
		return nil, fmt.Errorf("publishing validation snapshot: %w", err)
	}

	fmt.Fprintf(w, "%d of %d profiles ready for outreach (%d addresses in history) as %s\n",
		len(validated), len(snap.Records), len(history), meta.Version)
	return &meta, nil
}
