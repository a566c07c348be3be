// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source issues paginated and point queries against paper-metadata
// providers and normalizes their responses into canonical Paper and Author
// values. Each provider (OpenAlex, Semantic Scholar, arXiv) implements Adapter.
package source

import (
	"context"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// Provider names, also used as the Paper.Source tag and the provider-id key scope.
const (
	OpenAlexName        = "openalex"
	SemanticScholarName = "semantic_scholar"
	ArxivName           = "arxiv"
)

// Query is one seed query of a crawl.
type Query struct {
	// Text is the free-text search term. It may be empty when the provider
	// accepts a filter-only query.
	Text string

	// Topic is the label recorded on papers found through this query.
	Topic string
}

// Record is one normalized provider record. Paper.ID is empty until the
// entity resolver assigns it; Paper.SourceRef holds the provider-native id.
type Record struct {
	Paper   types.Paper
	Authors []types.Author

	// References lists provider-native ids of papers this paper cites.
	References []string

	// CitedBy lists provider-native ids of papers citing this paper.
	CitedBy []string

	// Related lists provider-native ids of related works.
	Related []string
}

// NativeID returns the provider-native id of the record.
func (r Record) NativeID() string { return r.Paper.SourceRef }

// Page is one page of search results.
type Page struct {
	Records []Record

	// Next is the token for the following page. It is empty when Done.
	Next string
	Done bool

	// Skipped counts records dropped because they carried no provider id.
	Skipped int

	// Total is the provider's estimate of matching records, when reported.
	Total int
}

// Adapter queries one provider. Every HTTP call it makes consumes the
// provider's rate limiter exactly once. Transport and HTTP failures are
// returned as *FetchError; adapters never retry beyond the bounded backoff of
// the shared transport.
type Adapter interface {
	// Name returns the provider name.
	Name() string

	// Search issues one paginated call. An empty pageToken requests the first page.
	Search(ctx context.Context, q Query, pageToken string) (Page, error)

	// Normalize converts one raw provider record. It performs no I/O and
	// returns ErrMalformedRecord when the record has no provider id.
	Normalize(raw []byte) (Record, error)

	// FetchRelated looks up a single paper by its provider-native id.
	// It returns ErrNotFound when the provider does not know the id.
	FetchRelated(ctx context.Context, ref string) (Record, error)
}

// CitedByLister is implemented by adapters whose search records do not carry
// backward citation links, so they need a separate request per paper.
type CitedByLister interface {
	CitedBy(ctx context.Context, ref string) ([]Record, error)
}
