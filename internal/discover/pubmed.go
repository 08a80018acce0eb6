// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/outreach-engine/internal/httputil"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

// eutilsBase is the NCBI E-utilities endpoint. Declared as a var so tests
// can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedProvider queries PubMed through the NCBI E-utilities API: esearch
// for matching IDs, then efetch for article metadata.
type PubMedProvider struct {
	Client *http.Client

	// limiter paces requests to NCBI. Without an API key NCBI allows
	// 3 requests per second; with one, 10.
	limiter *rate.Limiter
}

// NewPubMedProvider returns a provider with request pacing appropriate for
// whether an API key is configured.
func NewPubMedProvider(client *http.Client, apiKey string) *PubMedProvider {
	rps := rate.Limit(3)
	if apiKey != "" {
		rps = rate.Limit(10)
	}
	return &PubMedProvider{
		Client:  client,
		limiter: rate.NewLimiter(rps, 1),
	}
}

// Name returns the provider identifier.
func (p *PubMedProvider) Name() string { return "pubmed" }

// Search finds papers matching query published within the last
// cfg.DaysBack days, up to cfg.MaxResults.
func (p *PubMedProvider) Search(ctx context.Context, query string, cfg types.DiscoveryConfig) ([]types.PaperRecord, error) {
	ids, err := p.searchIDs(ctx, query, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return p.fetchDetails(ctx, ids, cfg)
}

// esearchResponse is the JSON shape of the esearch endpoint.
type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (p *PubMedProvider) searchIDs(ctx context.Context, query string, cfg types.DiscoveryConfig) ([]string, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	params := url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retmax":   {fmt.Sprintf("%d", maxResults)},
		"reldate":  {fmt.Sprintf("%d", cfg.DaysBack)},
		"datetype": {"pdat"},
		"retmode":  {"json"},
	}
	p.politeParams(params, cfg)

	var er esearchResponse
	if err := p.getJSON(ctx, eutilsBase+"/esearch.fcgi?"+params.Encode(), cfg, &er); err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}
	return er.Result.IDList, nil
}

// pubmedArticleSet mirrors the efetch XML payload, down to the fields the
// pipeline keeps.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title   string `xml:"ArticleTitle"`
			Journal struct {
				Title string `xml:"Title"`
				Issue struct {
					PubDate struct {
						Year  string `xml:"Year"`
						Month string `xml:"Month"`
						Day   string `xml:"Day"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			ELocationIDs []struct {
				Type  string `xml:"EIdType,attr"`
				Value string `xml:",chardata"`
			} `xml:"ELocationID"`
			AuthorList struct {
				Authors []struct {
					LastName     string `xml:"LastName"`
					ForeName     string `xml:"ForeName"`
					Affiliations []struct {
						Affiliation string `xml:"Affiliation"`
					} `xml:"AffiliationInfo"`
				} `xml:"Author"`
			} `xml:"AuthorList"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

func (p *PubMedProvider) fetchDetails(ctx context.Context, ids []string, cfg types.DiscoveryConfig) ([]types.PaperRecord, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	p.politeParams(params, cfg)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eutilsBase+"/efetch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating efetch request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("efetch returned HTTP %d", resp.StatusCode)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	papers := make([]types.PaperRecord, 0, len(set.Articles))
	for _, article := range set.Articles {
		papers = append(papers, parseArticle(article))
	}
	return papers, nil
}

func (p *PubMedProvider) getJSON(ctx context.Context, reqURL string, cfg types.DiscoveryConfig, v any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// politeParams adds the NCBI identification parameters. NCBI asks callers
// to send a tool name and contact address; the API key raises rate limits.
func (p *PubMedProvider) politeParams(params url.Values, cfg types.DiscoveryConfig) {
	params.Set("tool", "outreach-engine")
	if cfg.ContactEmail != "" {
		params.Set("email", cfg.ContactEmail)
	}
	if cfg.APIKey != "" {
		params.Set("api_key", cfg.APIKey)
	}
}

// parseArticle converts one efetch article into a PaperRecord.
func parseArticle(article pubmedArticle) types.PaperRecord {
	citation := article.Citation

	paper := types.PaperRecord{
		ID:      citation.PMID,
		Title:   strings.TrimSpace(citation.Article.Title),
		Journal: strings.TrimSpace(citation.Article.Journal.Title),
		PubDate: formatPubDate(
			citation.Article.Journal.Issue.PubDate.Year,
			citation.Article.Journal.Issue.PubDate.Month,
			citation.Article.Journal.Issue.PubDate.Day,
		),
		Source: "pubmed",
	}

	for _, eloc := range citation.Article.ELocationIDs {
		if eloc.Type == "doi" {
			paper.DOI = strings.TrimSpace(eloc.Value)
			break
		}
	}

	for _, a := range citation.Article.AuthorList.Authors {
		// Collective authors carry no LastName; keep them anyway and
		// let profiling drop what it cannot name.
		author := types.AuthorRef{
			FirstName: strings.TrimSpace(a.ForeName),
			LastName:  strings.TrimSpace(a.LastName),
		}
		for _, aff := range a.Affiliations {
			if text := strings.TrimSpace(aff.Affiliation); text != "" {
				author.Affiliation = append(author.Affiliation, text)
			}
		}
		paper.Authors = append(paper.Authors, author)
	}

	return paper
}

// formatPubDate joins the available date parts ("2026", "Jan", "15") with
// dashes, tolerating partial dates.
func formatPubDate(year, month, day string) string {
	var parts []string
	for _, part := range []string{year, month, day} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "-")
}
