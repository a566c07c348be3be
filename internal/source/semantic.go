// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API root. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const (
	semanticFields = "paperId,title,abstract,year,venue,citationCount,externalIds,fieldsOfStudy," +
		"authors.authorId,authors.name,authors.affiliations,references.paperId,citations.paperId"
	semanticMaxPage = 100
)

// SemanticScholar queries the Semantic Scholar Graph API. Search uses
// offset pagination; records carry both reference and citation links.
type SemanticScholar struct {
	Transport

	APIKey   string
	PageSize int
}

var _ Adapter = (*SemanticScholar)(nil)

// NewSemanticScholar creates the adapter from its configuration.
func NewSemanticScholar(t Transport, cfg types.SemanticScholarConfig, pageSize int) *SemanticScholar {
	return &SemanticScholar{Transport: t, APIKey: cfg.APIKey, PageSize: pageSize}
}

// Name returns the provider name.
func (a *SemanticScholar) Name() string { return SemanticScholarName }

// Search fetches one page. The page token is the result offset.
func (a *SemanticScholar) Search(ctx context.Context, q Query, pageToken string) (Page, error) {
	if strings.TrimSpace(q.Text) == "" {
		return Page{}, fmt.Errorf("empty Semantic Scholar query")
	}
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return Page{}, fmt.Errorf("invalid Semantic Scholar page token %q: %w", pageToken, err)
		}
		offset = n
	}

	params := url.Values{
		"query":  {q.Text},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(a.limit())},
		"fields": {semanticFields},
	}

	body, err := a.get(ctx, SemanticScholarName, "paper/search", semanticAPIBase+"/paper/search?"+params.Encode(), a.header())
	if err != nil {
		return Page{}, err
	}

	var resp semanticSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, &FetchError{Source: SemanticScholarName, Endpoint: "paper/search", Err: fmt.Errorf("parsing response: %w", err)}
	}

	page := Page{Total: resp.Total}
	for _, raw := range resp.Data {
		rec, err := a.Normalize(raw)
		if err != nil {
			page.Skipped++
			continue
		}
		page.Records = append(page.Records, rec)
	}

	if len(resp.Data) == 0 || resp.Next == nil || *resp.Next <= offset {
		page.Done = true
	} else {
		page.Next = strconv.Itoa(*resp.Next)
	}
	return page, nil
}

// FetchRelated looks up one paper by its Semantic Scholar paper id.
func (a *SemanticScholar) FetchRelated(ctx context.Context, ref string) (Record, error) {
	params := url.Values{"fields": {semanticFields}}
	reqURL := semanticAPIBase + "/paper/" + url.PathEscape(strings.TrimSpace(ref)) + "?" + params.Encode()

	body, err := a.get(ctx, SemanticScholarName, "paper/{id}", reqURL, a.header())
	if err != nil {
		return Record{}, err
	}
	return a.Normalize(body)
}

// Normalize converts one Semantic Scholar paper object.
func (a *SemanticScholar) Normalize(raw []byte) (Record, error) {
	var sp semanticPaper
	if err := json.Unmarshal(raw, &sp); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	id := strings.TrimSpace(sp.PaperID)
	if id == "" {
		return Record{}, ErrMalformedRecord
	}

	p := types.Paper{
		Title:     strings.TrimSpace(sp.Title),
		Year:      optPositive(sp.Year),
		Citations: optCount(sp.CitationCount),
		Publisher: optString(sp.Venue),
		Source:    SemanticScholarName,
		SourceRef: id,
		Topics:    appendUnique([]string{}, sp.FieldsOfStudy...),
	}
	if sp.Abstract != nil {
		p.Abstract = optString(*sp.Abstract)
	}
	if sp.ExternalIDs != nil {
		p.DOI = optString(sp.ExternalIDs.DOI)
	}

	rec := Record{Paper: p}
	for _, au := range sp.Authors {
		if au.AuthorID == nil || *au.AuthorID == "" {
			continue
		}
		rec.Authors = append(rec.Authors, types.Author{
			ID:           SemanticScholarName + ":" + *au.AuthorID,
			Name:         au.Name,
			Institutions: appendUnique([]string{}, au.Affiliations...),
			Source:       SemanticScholarName,
		})
	}
	for _, ref := range sp.References {
		if ref.PaperID != nil && *ref.PaperID != "" {
			rec.References = append(rec.References, *ref.PaperID)
		}
	}
	for _, c := range sp.Citations {
		if c.PaperID != nil && *c.PaperID != "" {
			rec.CitedBy = append(rec.CitedBy, *c.PaperID)
		}
	}
	return rec, nil
}

func (a *SemanticScholar) limit() int {
	n := a.PageSize
	if n <= 0 {
		n = 20
	}
	if n > semanticMaxPage {
		n = semanticMaxPage
	}
	return n
}

func (a *SemanticScholar) header() http.Header {
	h := http.Header{}
	if a.APIKey != "" {
		h.Set("x-api-key", a.APIKey)
	}
	return h
}

// Semantic Scholar API JSON structures.
type semanticSearchResponse struct {
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Next   *int              `json:"next"`
	Data   []json.RawMessage `json:"data"`
}

type semanticPaper struct {
	PaperID       string               `json:"paperId"`
	Title         string               `json:"title"`
	Abstract      *string              `json:"abstract"`
	Year          *int                 `json:"year"`
	Venue         string               `json:"venue"`
	CitationCount *int                 `json:"citationCount"`
	FieldsOfStudy []string             `json:"fieldsOfStudy"`
	ExternalIDs   *semanticExternalIDs `json:"externalIds"`
	Authors       []semanticAuthor     `json:"authors"`
	References    []semanticPaperRef   `json:"references"`
	Citations     []semanticPaperRef   `json:"citations"`
}

type semanticAuthor struct {
	AuthorID     *string  `json:"authorId"`
	Name         string   `json:"name"`
	Affiliations []string `json:"affiliations"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticPaperRef struct {
	PaperID *string `json:"paperId"`
}
