// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists the send history and the contacts projection in
// SQLite. The sends table is append-only and is the single authority for
// "has this address already been contacted"; the contacts table is a
// convenience projection for dashboard export and is never consulted for
// deduplication.
package ledger

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/outreach-engine/pkg/types"
)

const dbFile = "outreach.db"

// Store manages the outreach SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database under dataDir, creating the
// schema if it does not exist.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sends (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			sent_at TEXT NOT NULL,
			email TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sends_email ON sends(email)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			email TEXT PRIMARY KEY,
			name TEXT,
			affiliations TEXT,
			paper_title TEXT,
			paper_id TEXT,
			journal TEXT,
			updated_at TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Append records one successful send. Rows are only ever inserted; nothing
// rewrites or compacts the table.
func (s *Store) Append(ctx context.Context, sentAt time.Time, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sends (sent_at, email) VALUES (?, ?)`,
		sentAt.UTC().Format(time.RFC3339), email,
	)
	if err != nil {
		return fmt.Errorf("appending send for %s: %w", email, err)
	}
	return nil
}

// SentEmails returns the full membership set of addresses ever sent to.
func (s *Store) SentEmails(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT email FROM sends`)
	if err != nil {
		return nil, fmt.Errorf("querying send history: %w", err)
	}
	defer rows.Close()

	history := make(map[string]struct{})
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scanning send history: %w", err)
		}
		history[email] = struct{}{}
	}
	return history, rows.Err()
}

// Contains reports whether email has ever been sent to. The email index
// makes this a point lookup rather than a scan.
func (s *Store) Contains(ctx context.Context, email string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sends WHERE email = ?`, email,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking send history for %s: %w", email, err)
	}
	return n > 0, nil
}

// SendCount returns the total number of send rows.
func (s *Store) SendCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM sends`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sends: %w", err)
	}
	return n, nil
}

// UpsertContact writes a profile into the contacts projection, keyed by
// its first candidate email. Profiles without an email are ignored.
func (s *Store) UpsertContact(ctx context.Context, p types.ProfileRecord) error {
	if len(p.Emails) == 0 {
		return nil
	}

	affiliations, _ := json.Marshal(p.Affiliations)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (email, name, affiliations, paper_title, paper_id, journal, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			name=excluded.name, affiliations=excluded.affiliations,
			paper_title=excluded.paper_title, paper_id=excluded.paper_id,
			journal=excluded.journal, updated_at=excluded.updated_at`,
		p.Emails[0], p.Name, string(affiliations),
		p.PaperTitle, p.PaperID, p.Journal,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting contact %s: %w", p.Emails[0], err)
	}
	return nil
}

// Contact is one row of the contacts projection.
type Contact struct {
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Affiliations []string `json:"affiliations"`
	PaperTitle   string   `json:"paper_title"`
	PaperID      string   `json:"paper_id"`
	Journal      string   `json:"journal"`
}

// Contacts returns all rows of the contacts projection, ordered by email.
func (s *Store) Contacts(ctx context.Context) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email, name, affiliations, paper_title, paper_id, journal
		 FROM contacts ORDER BY email`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		var affiliations string
		if err := rows.Scan(&c.Email, &c.Name, &affiliations, &c.PaperTitle, &c.PaperID, &c.Journal); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		if affiliations != "" {
			// Stored as JSON; a decode failure leaves the list empty.
			json.Unmarshal([]byte(affiliations), &c.Affiliations)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ExportCSV writes the contacts projection to w as CSV with a header row.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	contacts, err := s.Contacts(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Email", "Affiliations", "Paper Title", "Paper ID", "Journal"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, c := range contacts {
		affiliations, _ := json.Marshal(c.Affiliations)
		row := []string{c.Name, c.Email, string(affiliations), c.PaperTitle, c.PaperID, c.Journal}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", c.Email, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
