// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the outreach-engine
// pipeline: paper records produced by discovery, author profiles, validated
// outreach records, and per-stage configuration.
package types

// AuthorRef is an author entry nested inside a PaperRecord. It has no
// identity of its own; profiling expands it into a ProfileRecord.
type AuthorRef struct {
	// FirstName is the author's given name as reported by the source.
	FirstName string `json:"first_name" yaml:"first_name"`

	// LastName is the author's family name. Authors without a last name
	// cannot form a display identity and are skipped during profiling.
	LastName string `json:"last_name" yaml:"last_name"`

	// Affiliation lists the raw affiliation strings attached to this
	// author. Affiliation text frequently embeds contact addresses.
	Affiliation []string `json:"affiliation" yaml:"affiliation"`

	// Email is a contact address when the source supplies one directly.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// PaperRecord is one published paper returned by the discovery stage.
// ID is the stable external identifier (e.g. a PubMed ID) and is the
// deduplication key for the discovery output set.
type PaperRecord struct {
	// ID is the canonical identifier from the source.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Journal is the journal or venue name.
	Journal string `json:"journal" yaml:"journal"`

	// PubDate is the publication date as reported by the source. Sources
	// return partial dates ("2026-Jan"), so this stays a string.
	PubDate string `json:"pub_date" yaml:"pub_date"`

	// DOI is the digital object identifier, when present.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Authors lists the paper authors in source order.
	Authors []AuthorRef `json:"authors" yaml:"authors"`

	// Source identifies which provider found this paper (e.g. "pubmed").
	Source string `json:"source" yaml:"source"`
}
