// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Arxiv queries the arXiv Atom API. arXiv carries no citation links and no
// author ids, so records never expand the frontier and author ids are
// derived from the normalized name.
type Arxiv struct {
	Transport

	PageSize int
}

var _ Adapter = (*Arxiv)(nil)

// NewArxiv creates the adapter.
func NewArxiv(t Transport, pageSize int) *Arxiv {
	return &Arxiv{Transport: t, PageSize: pageSize}
}

// Name returns the provider name.
func (a *Arxiv) Name() string { return ArxivName }

// Search fetches one page. The page token is the result offset.
func (a *Arxiv) Search(ctx context.Context, q Query, pageToken string) (Page, error) {
	terms := strings.Fields(q.Text)
	if len(terms) == 0 {
		return Page{}, fmt.Errorf("empty arXiv query")
	}
	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return Page{}, fmt.Errorf("invalid arXiv page token %q: %w", pageToken, err)
		}
		start = n
	}

	// Multi-word queries are searched as a quoted phrase.
	searchQuery := "all:" + strings.Join(terms, " ")
	if len(terms) > 1 {
		searchQuery = `all:"` + strings.Join(terms, " ") + `"`
	}
	params := url.Values{
		"search_query": {searchQuery},
		"start":        {strconv.Itoa(start)},
		"max_results":  {strconv.Itoa(a.maxResults())},
	}

	body, err := a.get(ctx, ArxivName, "query", arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return Page{}, &FetchError{Source: ArxivName, Endpoint: "query", Err: fmt.Errorf("parsing response: %w", err)}
	}

	page := Page{Total: feed.TotalResults}
	for _, entry := range feed.Entries {
		rec, err := normalizeArxivEntry(entry)
		if err != nil {
			page.Skipped++
			continue
		}
		page.Records = append(page.Records, rec)
	}

	next := start + len(feed.Entries)
	if len(feed.Entries) == 0 || next >= feed.TotalResults {
		page.Done = true
	} else {
		page.Next = strconv.Itoa(next)
	}
	return page, nil
}

// FetchRelated looks up one paper by its arXiv id.
func (a *Arxiv) FetchRelated(ctx context.Context, ref string) (Record, error) {
	params := url.Values{"id_list": {strings.TrimSpace(ref)}}

	body, err := a.get(ctx, ArxivName, "query?id_list", arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return Record{}, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return Record{}, &FetchError{Source: ArxivName, Endpoint: "query?id_list", Err: fmt.Errorf("parsing response: %w", err)}
	}
	if len(feed.Entries) == 0 {
		return Record{}, ErrNotFound
	}
	return normalizeArxivEntry(feed.Entries[0])
}

// Normalize converts one Atom <entry> element.
func (a *Arxiv) Normalize(raw []byte) (Record, error) {
	var entry arxivEntry
	if err := xml.Unmarshal(raw, &entry); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return normalizeArxivEntry(entry)
}

func normalizeArxivEntry(e arxivEntry) (Record, error) {
	id := extractArxivID(e.ID)
	if id == "" {
		return Record{}, ErrMalformedRecord
	}

	p := types.Paper{
		Title:     strings.Join(strings.Fields(e.Title), " "),
		DOI:       optString(e.DOI),
		Abstract:  optString(e.Summary),
		Publisher: optString(e.JournalRef),
		Source:    ArxivName,
		SourceRef: id,
		Topics:    []string{},
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		year := t.Year()
		p.Year = &year
	}
	for _, c := range e.Categories {
		p.Topics = appendUnique(p.Topics, c.Term)
	}

	rec := Record{Paper: p}
	for _, au := range e.Authors {
		name := strings.Join(strings.Fields(au.Name), " ")
		if name == "" {
			continue
		}
		rec.Authors = append(rec.Authors, types.Author{
			ID:           ArxivName + ":" + strings.ToLower(name),
			Name:         name,
			Institutions: appendUnique([]string{}, au.Affiliations...),
			Source:       ArxivName,
		})
	}
	return rec, nil
}

func (a *Arxiv) maxResults() int {
	if a.PageSize <= 0 {
		return 20
	}
	return a.PageSize
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// arXiv Atom feed XML structures. Tags carry no namespace so that both the
// Atom and the arxiv/opensearch extension elements match by local name.
type arxivFeed struct {
	TotalResults int          `xml:"totalResults"`
	Entries      []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	DOI        string          `xml:"doi"`
	JournalRef string          `xml:"journal_ref"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name         string   `xml:"name"`
	Affiliations []string `xml:"affiliation"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}
