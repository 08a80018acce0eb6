// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProfileRecord is one (paper, author) pair produced by the profiling
// stage. A paper with five authors yields five ProfileRecords sharing
// PaperID, PaperTitle, and Journal.
type ProfileRecord struct {
	// Name is the display name ("First Last").
	Name string `json:"name" yaml:"name"`

	// FirstName is the author's given name.
	FirstName string `json:"first_name" yaml:"first_name"`

	// LastName is the author's family name. Always non-empty.
	LastName string `json:"last_name" yaml:"last_name"`

	// Affiliations lists the raw affiliation strings for this author.
	Affiliations []string `json:"affiliations" yaml:"affiliations"`

	// PaperTitle is the title of the paper this profile came from.
	PaperTitle string `json:"paper_title" yaml:"paper_title"`

	// PaperID is the external identifier of the paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Journal is the journal name of the paper.
	Journal string `json:"journal" yaml:"journal"`

	// Emails holds candidate contact addresses. Profiling seeds it with
	// any address the source supplied; extraction grows it from
	// affiliation text. Order is first-seen and later stages depend on
	// it staying stable.
	Emails []string `json:"emails" yaml:"emails"`
}

// ValidatedRecord is a ProfileRecord that survived validation, reduced to
// the single address chosen for outreach. Email is always lowercase,
// trimmed, and absent from the send ledger at validation time.
type ValidatedRecord struct {
	Name       string `json:"name" yaml:"name"`
	FirstName  string `json:"first_name" yaml:"first_name"`
	Email      string `json:"email" yaml:"email"`
	PaperTitle string `json:"paper_title" yaml:"paper_title"`
	Journal    string `json:"journal" yaml:"journal"`
}
