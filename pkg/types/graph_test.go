// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeTypeValid(t *testing.T) {
	for _, et := range []EdgeType{EdgeWrote, EdgeCites, EdgeRelated} {
		assert.True(t, et.Valid(), et)
	}
	assert.False(t, EdgeType("").Valid())
	assert.False(t, EdgeType("cites").Valid())
}

func TestDatasetCountsAndEdges(t *testing.T) {
	d := Dataset{
		Works:       []Paper{{ID: "P1"}, {ID: "P2", Stub: true}, {ID: "P3", Stub: true}},
		Authors:     []Author{{ID: "openalex:A1"}},
		WritesWork:  []Authorship{{AuthorID: "openalex:A1", PaperID: "P1"}},
		Citations:   []Relation{{From: "P1", To: "P2"}, {From: "P1", To: "P1"}},
		RelatedWork: []Relation{{From: "P1", To: "P3"}},
	}

	assert.Equal(t, DatasetCounts{Papers: 3, Stubs: 2, Authors: 1, Wrote: 1, Cites: 2, Related: 1}, d.Counts())
	assert.Equal(t, []Edge{
		{From: "openalex:A1", To: "P1", Type: EdgeWrote},
		{From: "P1", To: "P2", Type: EdgeCites},
		{From: "P1", To: "P1", Type: EdgeCites},
		{From: "P1", To: "P3", Type: EdgeRelated},
	}, d.Edges())
}
