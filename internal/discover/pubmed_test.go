// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/outreach-engine/pkg/types"
)

const efetchXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>39012345</PMID>
      <Article>
        <Journal>
          <JournalIssue>
            <PubDate><Year>2026</Year><Month>Aug</Month><Day>14</Day></PubDate>
          </JournalIssue>
          <Title>Journal of Testing</Title>
        </Journal>
        <ArticleTitle>Deep learning for unit tests</ArticleTitle>
        <ELocationID EIdType="pii">S0000</ELocationID>
        <ELocationID EIdType="doi">10.1000/jt.2026.01</ELocationID>
        <AuthorList>
          <Author>
            <LastName>Curie</LastName>
            <ForeName>Marie</ForeName>
            <AffiliationInfo>
              <Affiliation>Dept of Physics, contact: m.curie@uni.edu</Affiliation>
            </AffiliationInfo>
          </Author>
          <Author>
            <CollectiveName>The Testing Consortium</CollectiveName>
          </Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func pubmedTestServer(t *testing.T, idList string, efetchCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "esearch"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"esearchresult":{"idlist":[` + idList + `]}}`))
		case strings.Contains(r.URL.Path, "efetch"):
			if efetchCalls != nil {
				atomic.AddInt32(efetchCalls, 1)
			}
			w.Header().Set("Content-Type", "text/xml")
			w.Write([]byte(efetchXML))
		default:
			http.NotFound(w, r)
		}
	}))
}

func fastProvider(ts *httptest.Server) *PubMedProvider {
	p := NewPubMedProvider(ts.Client(), "test-key")
	return p
}

func TestPubMedSearchParsesArticles(t *testing.T) {
	ts := pubmedTestServer(t, `"39012345"`, nil)
	defer ts.Close()
	orig := eutilsBase
	eutilsBase = ts.URL
	defer func() { eutilsBase = orig }()

	cfg := types.DiscoveryConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		DaysBack:   7,
		MaxResults: 10,
	}
	papers, err := fastProvider(ts).Search(context.Background(), "unit testing", cfg)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("len(papers) = %d, want 1", len(papers))
	}

	p := papers[0]
	if p.ID != "39012345" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.Title != "Deep learning for unit tests" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Journal != "Journal of Testing" {
		t.Errorf("Journal = %q", p.Journal)
	}
	if p.DOI != "10.1000/jt.2026.01" {
		t.Errorf("DOI = %q, want the doi ELocationID, not the pii", p.DOI)
	}
	if p.PubDate != "2026-Aug-14" {
		t.Errorf("PubDate = %q", p.PubDate)
	}
	if p.Source != "pubmed" {
		t.Errorf("Source = %q", p.Source)
	}
	if len(p.Authors) != 2 {
		t.Fatalf("len(Authors) = %d, want 2 (collective author kept)", len(p.Authors))
	}
	if p.Authors[0].LastName != "Curie" || p.Authors[0].FirstName != "Marie" {
		t.Errorf("author = %+v", p.Authors[0])
	}
	if len(p.Authors[0].Affiliation) != 1 || !strings.Contains(p.Authors[0].Affiliation[0], "m.curie@uni.edu") {
		t.Errorf("affiliation = %v", p.Authors[0].Affiliation)
	}
	if p.Authors[1].LastName != "" {
		t.Errorf("collective author should have empty last name, got %q", p.Authors[1].LastName)
	}
}

func TestPubMedSearchNoResultsSkipsEfetch(t *testing.T) {
	var efetchCalls int32
	ts := pubmedTestServer(t, ``, &efetchCalls)
	defer ts.Close()
	orig := eutilsBase
	eutilsBase = ts.URL
	defer func() { eutilsBase = orig }()

	cfg := types.DiscoveryConfig{MaxResults: 10}
	papers, err := fastProvider(ts).Search(context.Background(), "no hits", cfg)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("len(papers) = %d, want 0", len(papers))
	}
	if atomic.LoadInt32(&efetchCalls) != 0 {
		t.Error("efetch should not be called when esearch returns no IDs")
	}
}

func TestPubMedSearchServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	orig := eutilsBase
	eutilsBase = ts.URL
	defer func() { eutilsBase = orig }()

	if _, err := fastProvider(ts).Search(context.Background(), "q", types.DiscoveryConfig{}); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestPoliteParamsIncludeIdentification(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
	}))
	defer ts.Close()
	orig := eutilsBase
	eutilsBase = ts.URL
	defer func() { eutilsBase = orig }()

	cfg := types.DiscoveryConfig{ContactEmail: "me@example.org", APIKey: "k123", MaxResults: 5}
	p := NewPubMedProvider(ts.Client(), cfg.APIKey)
	if _, err := p.Search(context.Background(), "q", cfg); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"tool=outreach-engine", "email=me%40example.org", "api_key=k123", "datetype=pdat"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}
