// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

const sampleSemanticPaper = `{
  "paperId": "abc123",
  "title": "Graph Attention Networks",
  "abstract": "We present graph attention networks.",
  "year": 2018,
  "venue": "ICLR",
  "citationCount": 9000,
  "fieldsOfStudy": ["Computer Science", "Mathematics", "Computer Science"],
  "externalIds": {"DOI": "10.48550/arXiv.1710.10903", "ArXiv": "1710.10903"},
  "authors": [
    {"authorId": "1", "name": "Petar Velickovic", "affiliations": ["Cambridge"]},
    {"authorId": null, "name": "Unknown"}
  ],
  "references": [{"paperId": "ref1"}, {"paperId": null}],
  "citations": [{"paperId": "cit1"}, {"paperId": "cit2"}]
}`

func withSemanticServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(handler)
	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() {
		semanticAPIBase = old
		ts.Close()
	})
}

func TestSemanticScholarNormalize(t *testing.T) {
	a := &SemanticScholar{}
	rec, err := a.Normalize([]byte(sampleSemanticPaper))
	require.NoError(t, err)

	p := rec.Paper
	assert.Equal(t, "abc123", p.SourceRef)
	assert.Equal(t, "Graph Attention Networks", p.Title)
	require.NotNil(t, p.DOI)
	assert.Equal(t, "10.48550/arXiv.1710.10903", *p.DOI)
	require.NotNil(t, p.Year)
	assert.Equal(t, 2018, *p.Year)
	require.NotNil(t, p.Citations)
	assert.Equal(t, 9000, *p.Citations)
	require.NotNil(t, p.Publisher)
	assert.Equal(t, "ICLR", *p.Publisher)
	require.NotNil(t, p.Abstract)
	assert.Equal(t, []string{"Computer Science", "Mathematics"}, p.Topics)
	assert.Equal(t, SemanticScholarName, p.Source)

	require.Len(t, rec.Authors, 1)
	assert.Equal(t, "semantic_scholar:1", rec.Authors[0].ID)
	assert.Equal(t, []string{"Cambridge"}, rec.Authors[0].Institutions)

	assert.Equal(t, []string{"ref1"}, rec.References)
	assert.Equal(t, []string{"cit1", "cit2"}, rec.CitedBy)
	assert.Empty(t, rec.Related)
}

func TestSemanticScholarNormalize_Sparse(t *testing.T) {
	a := &SemanticScholar{}
	rec, err := a.Normalize([]byte(`{"paperId": "x", "title": "T", "abstract": null, "year": null, "externalIds": null}`))
	require.NoError(t, err)
	assert.Nil(t, rec.Paper.Abstract)
	assert.Nil(t, rec.Paper.Year)
	assert.Nil(t, rec.Paper.DOI)
	assert.Nil(t, rec.Paper.Citations)
	assert.Nil(t, rec.Paper.Publisher)

	_, err = a.Normalize([]byte(`{"title": "no id"}`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestSemanticScholarSearch_OffsetPagination(t *testing.T) {
	var offsets []string
	withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/search", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "graph attention", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		offsets = append(offsets, r.URL.Query().Get("offset"))
		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprintf(w, `{"total": 3, "offset": 0, "next": 2, "data": [%s, {"title": "no id"}]}`, sampleSemanticPaper)
		default:
			fmt.Fprint(w, `{"total": 3, "offset": 2, "data": [{"paperId": "z", "title": "Last"}]}`)
		}
	})

	a := NewSemanticScholar(testTransport(&countingBudget{}), types.SemanticScholarConfig{APIKey: "secret-key"}, 2)

	page, err := a.Search(context.Background(), Query{Text: "graph attention"}, "")
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, 1, page.Skipped)
	assert.Equal(t, 3, page.Total)
	assert.False(t, page.Done)
	assert.Equal(t, "2", page.Next)

	page, err = a.Search(context.Background(), Query{Text: "graph attention"}, page.Next)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.True(t, page.Done)

	assert.Equal(t, []string{"0", "2"}, offsets)
}

func TestSemanticScholarSearch_Errors(t *testing.T) {
	a := NewSemanticScholar(testTransport(&countingBudget{}), types.SemanticScholarConfig{}, 10)

	_, err := a.Search(context.Background(), Query{Text: "  "}, "")
	assert.Error(t, err)

	_, err = a.Search(context.Background(), Query{Text: "x"}, "not-a-number")
	assert.Error(t, err)
}

func TestSemanticScholarFetchRelated(t *testing.T) {
	withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("x-api-key"), "no key configured")
		if r.URL.Path == "/paper/abc123" {
			fmt.Fprint(w, sampleSemanticPaper)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	a := NewSemanticScholar(testTransport(&countingBudget{}), types.SemanticScholarConfig{}, 10)

	rec, err := a.FetchRelated(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", rec.NativeID())

	_, err = a.FetchRelated(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
