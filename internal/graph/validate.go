// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"fmt"
	"strings"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// ConsistencyError reports a dataset that must not be exported: edges whose
// endpoints are not among its nodes, or a canonical id used by more than one
// paper.
type ConsistencyError struct {
	Dangling   []types.Edge
	Duplicates []string
}

func (e *ConsistencyError) Error() string {
	var parts []string
	if n := len(e.Dangling); n > 0 {
		first := e.Dangling[0]
		parts = append(parts, fmt.Sprintf("%d dangling edge(s), first %s %s -> %s", n, first.Type, first.From, first.To))
	}
	if n := len(e.Duplicates); n > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate paper id(s), first %s", n, e.Duplicates[0]))
	}
	return "graph consistency violation: " + strings.Join(parts, "; ")
}

// Validate checks that every edge of d references recorded nodes (authors
// for the source of WROTE edges, papers otherwise) and that paper and author
// ids are unique. It returns a *ConsistencyError listing every violation.
func Validate(d types.Dataset) error {
	papers := make(map[string]struct{}, len(d.Works))
	authors := make(map[string]struct{}, len(d.Authors))
	cerr := &ConsistencyError{}

	for _, p := range d.Works {
		if _, ok := papers[p.ID]; ok {
			cerr.Duplicates = append(cerr.Duplicates, p.ID)
			continue
		}
		papers[p.ID] = struct{}{}
	}
	for _, a := range d.Authors {
		if _, ok := authors[a.ID]; ok {
			cerr.Duplicates = append(cerr.Duplicates, a.ID)
			continue
		}
		authors[a.ID] = struct{}{}
	}

	for _, e := range d.Edges() {
		from := papers
		if e.Type == types.EdgeWrote {
			from = authors
		}
		_, okFrom := from[e.From]
		_, okTo := papers[e.To]
		if !okFrom || !okTo {
			cerr.Dangling = append(cerr.Dangling, e)
		}
	}

	if len(cerr.Dangling) > 0 || len(cerr.Duplicates) > 0 {
		return cerr
	}
	return nil
}
