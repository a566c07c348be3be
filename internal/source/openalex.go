// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// openAlexBase is the OpenAlex API root. Declared as a var so tests can
// substitute an httptest server.
var openAlexBase = "https://api.openalex.org"

const (
	doiResolverPrefix = "https://doi.org/"
	openAlexMaxPage   = 200
)

// OpenAlex queries the OpenAlex works API. Search uses cursor pagination.
type OpenAlex struct {
	Transport

	Email    string
	Filter   string
	Sort     string
	PageSize int
}

var (
	_ Adapter       = (*OpenAlex)(nil)
	_ CitedByLister = (*OpenAlex)(nil)
)

// NewOpenAlex creates the adapter from its configuration.
func NewOpenAlex(t Transport, cfg types.OpenAlexConfig, pageSize int) *OpenAlex {
	return &OpenAlex{
		Transport: t,
		Email:     cfg.Email,
		Filter:    cfg.Filter,
		Sort:      cfg.Sort,
		PageSize:  pageSize,
	}
}

// Name returns the provider name.
func (a *OpenAlex) Name() string { return OpenAlexName }

// Search fetches one page of works. The first page uses cursor "*".
func (a *OpenAlex) Search(ctx context.Context, q Query, pageToken string) (Page, error) {
	if q.Text == "" && a.Filter == "" {
		return Page{}, fmt.Errorf("empty OpenAlex query")
	}
	cursor := pageToken
	if cursor == "" {
		cursor = "*"
	}

	params := url.Values{
		"cursor":   {cursor},
		"per_page": {strconv.Itoa(a.perPage())},
	}
	if q.Text != "" {
		params.Set("search", q.Text)
	}
	if a.Filter != "" {
		params.Set("filter", a.Filter)
	}
	if a.Sort != "" {
		params.Set("sort", a.Sort)
	}
	a.polite(params)

	body, err := a.get(ctx, OpenAlexName, "works", openAlexBase+"/works?"+params.Encode(), nil)
	if err != nil {
		return Page{}, err
	}

	var resp openAlexListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, &FetchError{Source: OpenAlexName, Endpoint: "works", Err: fmt.Errorf("parsing response: %w", err)}
	}

	page := Page{Total: resp.Meta.Count}
	for _, raw := range resp.Results {
		rec, err := a.Normalize(raw)
		if err != nil {
			page.Skipped++
			continue
		}
		page.Records = append(page.Records, rec)
	}

	if len(resp.Results) == 0 || resp.Meta.NextCursor == nil || *resp.Meta.NextCursor == "" {
		page.Done = true
	} else {
		page.Next = *resp.Meta.NextCursor
	}
	return page, nil
}

// FetchRelated looks up one work by its short OpenAlex id (e.g. "W2741809807").
func (a *OpenAlex) FetchRelated(ctx context.Context, ref string) (Record, error) {
	params := url.Values{}
	a.polite(params)
	reqURL := openAlexBase + "/works/" + url.PathEscape(shortOpenAlexID(ref))
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	body, err := a.get(ctx, OpenAlexName, "works/{id}", reqURL, nil)
	if err != nil {
		return Record{}, err
	}
	return a.Normalize(body)
}

// CitedBy returns one page of works citing ref.
func (a *OpenAlex) CitedBy(ctx context.Context, ref string) ([]Record, error) {
	params := url.Values{
		"filter":   {"cites:" + shortOpenAlexID(ref)},
		"per_page": {strconv.Itoa(a.perPage())},
	}
	a.polite(params)

	body, err := a.get(ctx, OpenAlexName, "works?filter=cites", openAlexBase+"/works?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp openAlexListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Source: OpenAlexName, Endpoint: "works?filter=cites", Err: fmt.Errorf("parsing response: %w", err)}
	}

	var records []Record
	for _, raw := range resp.Results {
		if rec, err := a.Normalize(raw); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Normalize converts one OpenAlex work object.
func (a *OpenAlex) Normalize(raw []byte) (Record, error) {
	var w openAlexWork
	if err := json.Unmarshal(raw, &w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	id := shortOpenAlexID(w.ID)
	if id == "" {
		return Record{}, ErrMalformedRecord
	}

	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	p := types.Paper{
		Title:     strings.TrimSpace(title),
		DOI:       optString(strings.TrimPrefix(w.DOI, doiResolverPrefix)),
		Year:      optPositive(w.PublicationYear),
		Citations: optCount(w.CitedByCount),
		Abstract:  ReconstructAbstract(w.AbstractInvertedIndex),
		Source:    OpenAlexName,
		SourceRef: id,
		Topics:    []string{},
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		p.Publisher = optString(w.PrimaryLocation.Source.DisplayName)
	}
	for _, t := range w.Topics {
		p.Topics = appendUnique(p.Topics, t.DisplayName)
	}

	rec := Record{Paper: p}
	for _, as := range w.Authorships {
		authorID := shortOpenAlexID(as.Author.ID)
		if authorID == "" {
			continue
		}
		author := types.Author{
			ID:           OpenAlexName + ":" + authorID,
			Name:         as.Author.DisplayName,
			Institutions: []string{},
			Source:       OpenAlexName,
		}
		for _, inst := range as.Institutions {
			author.Institutions = appendUnique(author.Institutions, inst.DisplayName)
		}
		rec.Authors = append(rec.Authors, author)
	}
	for _, ref := range w.ReferencedWorks {
		if s := shortOpenAlexID(ref); s != "" {
			rec.References = append(rec.References, s)
		}
	}
	for _, rel := range w.RelatedWorks {
		if s := shortOpenAlexID(rel); s != "" {
			rec.Related = append(rec.Related, s)
		}
	}
	return rec, nil
}

func (a *OpenAlex) perPage() int {
	n := a.PageSize
	if n <= 0 {
		n = 25
	}
	if n > openAlexMaxPage {
		n = openAlexMaxPage
	}
	return n
}

// polite adds the mailto parameter for polite pool access.
func (a *OpenAlex) polite(params url.Values) {
	if a.Email != "" {
		params.Set("mailto", a.Email)
	}
}

// shortOpenAlexID strips the "https://openalex.org/" prefix
// ("https://openalex.org/W123" → "W123").
func shortOpenAlexID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return id
}

// OpenAlex API JSON structures.
type openAlexListResponse struct {
	Meta    openAlexMeta      `json:"meta"`
	Results []json.RawMessage `json:"results"`
}

type openAlexMeta struct {
	Count      int     `json:"count"`
	PerPage    int     `json:"per_page"`
	NextCursor *string `json:"next_cursor"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DisplayName           string               `json:"display_name"`
	DOI                   string               `json:"doi"`
	PublicationYear       *int                 `json:"publication_year"`
	CitedByCount          *int                 `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	Topics                []openAlexTopic      `json:"topics"`
	ReferencedWorks       []string             `json:"referenced_works"`
	RelatedWorks          []string             `json:"related_works"`
}

type openAlexAuthorship struct {
	Author       openAlexAuthor        `json:"author"`
	Institutions []openAlexInstitution `json:"institutions"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexInstitution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source *openAlexSource `json:"source"`
}

type openAlexSource struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexTopic struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
