// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outreach delivers one templated message per validated record,
// under a per-run budget, recording every successful send in the ledger.
// Sends are strictly sequential; the inter-send delay is backpressure
// against the mail provider, not a concurrency primitive.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

// State is the terminal state of one record within a run.
type State string

const (
	StateSent    State = "sent"
	StateFailed  State = "failed"
	StateSkipped State = "skipped"
)

// Outcome records the terminal state of one validated record.
type Outcome struct {
	Record types.ValidatedRecord `json:"record" yaml:"record"`
	State  State                 `json:"state" yaml:"state"`
	Reason string                `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Report summarizes one outreach run.
type Report struct {
	Sent     int
	Failed   int
	Skipped  int
	Outcomes []Outcome
}

// Transport delivers a single message. Connection details and credentials
// are the implementation's concern.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// pause waits for the pacing delay or context cancellation. Declared as a
// var so tests can avoid real sleeps.
var pause = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// LoadTemplate parses the message body template. The template receives
// author_name, paper_title, and journal_name.
func LoadTemplate(text string) (*template.Template, error) {
	return template.New("message").Option("missingkey=zero").Parse(text)
}

// RenderBody fills the template for one recipient. The greeting uses the
// first name when the source supplied one, the full name otherwise.
func RenderBody(tmpl *template.Template, r types.ValidatedRecord) (string, error) {
	name := r.FirstName
	if name == "" {
		name = r.Name
	}
	var b strings.Builder
	err := tmpl.Execute(&b, map[string]string{
		"author_name":  name,
		"paper_title":  r.PaperTitle,
		"journal_name": r.Journal,
	})
	if err != nil {
		return "", fmt.Errorf("rendering message for %s: %w", r.Email, err)
	}
	return b.String(), nil
}

// Send processes records in order under the configured budget. Once
// cfg.MaxDailyEmails sends have succeeded, the entire remaining queue is
// skipped: the budget is a circuit breaker, not a per-record filter. A
// delivery failure is logged and the run continues; failed records consume
// no budget and stay eligible for the next run. Every successful send is
// paired with exactly one ledger append before the counter advances.
func Send(ctx context.Context, records []types.ValidatedRecord, t Transport, tmpl *template.Template, cfg types.OutreachConfig, sends *ledger.Store, w io.Writer) (Report, error) {
	report := Report{Outcomes: make([]Outcome, 0, len(records))}

	for i, record := range records {
		if report.Sent >= cfg.MaxDailyEmails {
			fmt.Fprintf(w, "daily budget of %d reached; skipping %d remaining\n",
				cfg.MaxDailyEmails, len(records)-i)
			for _, rest := range records[i:] {
				report.Outcomes = append(report.Outcomes, Outcome{
					Record: rest, State: StateSkipped, Reason: "daily budget reached",
				})
				report.Skipped++
			}
			break
		}

		body, err := RenderBody(tmpl, record)
		if err != nil {
			fmt.Fprintf(w, "failed: %s (%v)\n", record.Email, err)
			report.Outcomes = append(report.Outcomes, Outcome{
				Record: record, State: StateFailed, Reason: err.Error(),
			})
			report.Failed++
			continue
		}

		if err := t.Send(ctx, record.Email, cfg.Subject, body); err != nil {
			fmt.Fprintf(w, "failed: %s (%v)\n", record.Email, err)
			report.Outcomes = append(report.Outcomes, Outcome{
				Record: record, State: StateFailed, Reason: err.Error(),
			})
			report.Failed++
			continue
		}

		// The ledger append is the durable commit for this send. If it
		// fails the address could be contacted again on a future run,
		// so stop the run rather than keep sending unrecorded.
		if err := sends.Append(ctx, time.Now(), record.Email); err != nil {
			report.Outcomes = append(report.Outcomes, Outcome{
				Record: record, State: StateSent, Reason: "ledger append failed",
			})
			report.Sent++
			return report, fmt.Errorf("send to %s delivered but not recorded: %w", record.Email, err)
		}

		fmt.Fprintf(w, "sent: %s\n", record.Email)
		report.Outcomes = append(report.Outcomes, Outcome{Record: record, State: StateSent})
		report.Sent++

		if err := pause(ctx, cfg.SendDelay); err != nil {
			return report, err
		}
	}

	return report, nil
}

// Run loads the latest validation snapshot, sends under the budget, and
// publishes the outcome snapshot. A missing or unreadable validation
// snapshot makes the stage a no-op.
func Run(ctx context.Context, store *snapshot.Store, sends *ledger.Store, t Transport, tmpl *template.Template, cfg types.OutreachConfig, w io.Writer) (*snapshot.Meta, *Report, error) {
	snap, err := snapshot.Latest[types.ValidatedRecord](store, snapshot.StageValidation)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			fmt.Fprintln(w, "no validation snapshot yet; nothing to send")
			return nil, nil, nil
		}
		fmt.Fprintf(w, "warning: validation snapshot unreadable, treating as empty: %v\n", err)
		return nil, nil, nil
	}

	report, sendErr := Send(ctx, snap.Records, t, tmpl, cfg, sends, w)

	meta, err := snapshot.Write(store, snapshot.StageOutreach, report.Outcomes)
	if err != nil {
		if sendErr != nil {
			return nil, &report, sendErr
		}
		return nil, &report, fmt.Errorf("publishing outreach snapshot: %w", err)
	}

	fmt.Fprintf(w, "\noutreach summary: %d sent, %d failed, %d skipped (of %d) as %s\n",
		report.Sent, report.Failed, report.Skipped, len(snap.Records), meta.Version)
	return &meta, &report, sendErr
}
