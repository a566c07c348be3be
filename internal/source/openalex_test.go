// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

const sampleOpenAlexWork = `{
  "id": "https://openalex.org/W2741809807",
  "title": "Attention Is All You Need",
  "doi": "https://doi.org/10.5555/3295222.3295349",
  "publication_year": 2017,
  "cited_by_count": 1200,
  "authorships": [
    {"author": {"id": "https://openalex.org/A1", "display_name": "Ashish Vaswani"},
     "institutions": [{"id": "I1", "display_name": "Google Brain"}, {"id": "I1", "display_name": "Google Brain"}]},
    {"author": {"id": null, "display_name": "Anonymous"}, "institutions": []},
    {"author": {"id": "https://openalex.org/A2", "display_name": "Noam Shazeer"}}
  ],
  "abstract_inverted_index": {"We": [0], "propose": [1], "attention": [2]},
  "primary_location": {"source": {"id": "S1", "display_name": "NeurIPS"}},
  "topics": [{"id": "T1", "display_name": "Natural Language Processing"}],
  "referenced_works": ["https://openalex.org/W1", "https://openalex.org/W2"],
  "related_works": ["https://openalex.org/W3"]
}`

const sparseOpenAlexWork = `{
  "id": "https://openalex.org/W3210812345",
  "title": null,
  "display_name": "BERT",
  "doi": null,
  "publication_year": null,
  "cited_by_count": 0,
  "abstract_inverted_index": null,
  "primary_location": null
}`

func withOpenAlexServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	old := openAlexBase
	openAlexBase = ts.URL
	t.Cleanup(func() {
		openAlexBase = old
		ts.Close()
	})
	return ts
}

func TestOpenAlexNormalize_FullRecord(t *testing.T) {
	a := &OpenAlex{}
	rec, err := a.Normalize([]byte(sampleOpenAlexWork))
	require.NoError(t, err)

	p := rec.Paper
	assert.Equal(t, "W2741809807", p.SourceRef)
	assert.Equal(t, "W2741809807", rec.NativeID())
	assert.Empty(t, p.ID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	require.NotNil(t, p.DOI)
	assert.Equal(t, "10.5555/3295222.3295349", *p.DOI)
	require.NotNil(t, p.Year)
	assert.Equal(t, 2017, *p.Year)
	require.NotNil(t, p.Citations)
	assert.Equal(t, 1200, *p.Citations)
	require.NotNil(t, p.Abstract)
	assert.Equal(t, "We propose attention", *p.Abstract)
	require.NotNil(t, p.Publisher)
	assert.Equal(t, "NeurIPS", *p.Publisher)
	assert.Equal(t, []string{"Natural Language Processing"}, p.Topics)
	assert.Equal(t, OpenAlexName, p.Source)

	require.Len(t, rec.Authors, 2, "authors without id are dropped")
	assert.Equal(t, types.Author{
		ID:           "openalex:A1",
		Name:         "Ashish Vaswani",
		Institutions: []string{"Google Brain"},
		Source:       OpenAlexName,
	}, rec.Authors[0])
	assert.Equal(t, []string{}, rec.Authors[1].Institutions)

	assert.Equal(t, []string{"W1", "W2"}, rec.References)
	assert.Equal(t, []string{"W3"}, rec.Related)
	assert.Empty(t, rec.CitedBy)
}

func TestOpenAlexNormalize_MissingFieldsAreNull(t *testing.T) {
	a := &OpenAlex{}
	rec, err := a.Normalize([]byte(sparseOpenAlexWork))
	require.NoError(t, err)

	p := rec.Paper
	assert.Equal(t, "BERT", p.Title, "display_name is the title fallback")
	assert.Nil(t, p.DOI)
	assert.Nil(t, p.Year)
	assert.Nil(t, p.Abstract)
	assert.Nil(t, p.Publisher)
	require.NotNil(t, p.Citations)
	assert.Equal(t, 0, *p.Citations)
	assert.Equal(t, []string{}, p.Topics)
}

func TestOpenAlexNormalize_MalformedRecord(t *testing.T) {
	a := &OpenAlex{}
	_, err := a.Normalize([]byte(`{"title": "no id"}`))
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = a.Normalize([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestOpenAlexSearch_CursorPagination(t *testing.T) {
	var captured []string
	withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = append(captured, r.URL.RawQuery)
		assert.Equal(t, "/works", r.URL.Path)
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "*":
			fmt.Fprintf(w, `{"meta": {"count": 3, "next_cursor": "abc"}, "results": [%s, {"title": "no id"}]}`, sampleOpenAlexWork)
		case "abc":
			fmt.Fprintf(w, `{"meta": {"count": 3, "next_cursor": null}, "results": [%s]}`, sparseOpenAlexWork)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})

	budget := &countingBudget{}
	a := NewOpenAlex(testTransport(budget), types.OpenAlexConfig{Email: "me@example.com", Filter: "type:article", Sort: "cited_by_count:desc"}, 50)

	page, err := a.Search(context.Background(), Query{Text: "graph neural networks"}, "")
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, 1, page.Skipped)
	assert.Equal(t, 3, page.Total)
	assert.False(t, page.Done)
	assert.Equal(t, "abc", page.Next)

	page, err = a.Search(context.Background(), Query{Text: "graph neural networks"}, page.Next)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.True(t, page.Done)
	assert.Empty(t, page.Next)

	assert.Equal(t, 2, budget.count())
	require.Len(t, captured, 2)
	for _, want := range []string{"search=graph+neural+networks", "per_page=50", "mailto=me%40example.com", "filter=type%3Aarticle", "sort=cited_by_count%3Adesc"} {
		assert.Contains(t, captured[0], want)
	}
}

func TestOpenAlexSearch_FilterOnlyQuery(t *testing.T) {
	withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("search"))
		fmt.Fprint(w, `{"meta": {"count": 0, "next_cursor": null}, "results": []}`)
	})
	a := NewOpenAlex(testTransport(&countingBudget{}), types.OpenAlexConfig{Filter: "primary_topic.subfield.id:subfields/1702"}, 10)
	page, err := a.Search(context.Background(), Query{}, "")
	require.NoError(t, err)
	assert.True(t, page.Done)

	a.Filter = ""
	_, err = a.Search(context.Background(), Query{}, "")
	assert.Error(t, err)
}

func TestOpenAlexSearch_HTTPErrorIsFetchError(t *testing.T) {
	var calls int32
	withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	budget := &countingBudget{}
	obs := &recordingObserver{}
	tr := testTransport(budget)
	tr.Observer = obs
	a := NewOpenAlex(tr, types.OpenAlexConfig{}, 10)

	_, err := a.Search(context.Background(), Query{Text: "x"}, "")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, OpenAlexName, fe.Source)
	assert.Equal(t, "works", fe.Endpoint)
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
	assert.Contains(t, fe.Error(), "HTTP 500")

	// Two attempts, each consuming the budget once.
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, budget.count())
	assert.Len(t, obs.requests, 2)
	assert.Equal(t, []string{"openalex works"}, obs.failures)
}

func TestOpenAlexFetchRelated(t *testing.T) {
	withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/works/W2741809807":
			fmt.Fprint(w, sampleOpenAlexWork)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	budget := &countingBudget{}
	a := NewOpenAlex(testTransport(budget), types.OpenAlexConfig{}, 10)

	rec, err := a.FetchRelated(context.Background(), "https://openalex.org/W2741809807")
	require.NoError(t, err)
	assert.Equal(t, "W2741809807", rec.NativeID())

	_, err = a.FetchRelated(context.Background(), "W404")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, budget.count())
}

func TestOpenAlexCitedBy(t *testing.T) {
	withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cites:W9", r.URL.Query().Get("filter"))
		fmt.Fprintf(w, `{"meta": {"count": 1}, "results": [%s, {"id": ""}]}`, sampleOpenAlexWork)
	})

	a := NewOpenAlex(testTransport(&countingBudget{}), types.OpenAlexConfig{}, 10)
	records, err := a.CitedBy(context.Background(), "W9")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "W2741809807", records[0].NativeID())
}

func TestShortOpenAlexID(t *testing.T) {
	assert.Equal(t, "W1", shortOpenAlexID("https://openalex.org/W1"))
	assert.Equal(t, "W1", shortOpenAlexID(" W1 "))
	assert.Equal(t, "", shortOpenAlexID(""))
	assert.False(t, strings.Contains(shortOpenAlexID("https://openalex.org/A5"), "/"))
}
