// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EdgeType classifies a directed relation in the citation graph.
type EdgeType string

const (
	// EdgeWrote links an author to a paper.
	EdgeWrote EdgeType = "WROTE"
	// EdgeCites links a citing paper to the cited paper.
	EdgeCites EdgeType = "CITES"
	// EdgeRelated links a paper to a related-work paper.
	EdgeRelated EdgeType = "RELATED"
)

// Valid reports whether t is one of the known edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeWrote, EdgeCites, EdgeRelated:
		return true
	}
	return false
}

// Edge is a directed relation between two canonical ids. For WROTE edges
// From is an author id; otherwise both endpoints are paper ids.
// Identity is the (From, To, Type) tuple.
type Edge struct {
	From string   `json:"from" yaml:"from"`
	To   string   `json:"to" yaml:"to"`
	Type EdgeType `json:"type" yaml:"type"`
}

// Relation is a paper-to-paper pair in the exported document.
type Relation struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Authorship is an author-to-paper pair in the exported document.
type Authorship struct {
	AuthorID string `json:"author_id" yaml:"author_id"`
	PaperID  string `json:"paper_id" yaml:"paper_id"`
}

// Dataset is the output document consumed by the graph-database loader and
// the downstream analysis stages. Every relation references canonical ids only.
type Dataset struct {
	Works       []Paper      `json:"works" yaml:"works"`
	Authors     []Author     `json:"authors" yaml:"authors"`
	WritesWork  []Authorship `json:"writes_work" yaml:"writes_work"`
	Citations   []Relation   `json:"citations" yaml:"citations"`
	RelatedWork []Relation   `json:"related_work" yaml:"related_work"`
}

// DatasetCounts summarizes a Dataset for progress and export reporting.
type DatasetCounts struct {
	Papers  int `json:"papers" yaml:"papers"`
	Stubs   int `json:"stubs" yaml:"stubs"`
	Authors int `json:"authors" yaml:"authors"`
	Wrote   int `json:"wrote" yaml:"wrote"`
	Cites   int `json:"cites" yaml:"cites"`
	Related int `json:"related" yaml:"related"`
}

// Counts returns node and edge counts for d.
func (d Dataset) Counts() DatasetCounts {
	c := DatasetCounts{
		Papers:  len(d.Works),
		Authors: len(d.Authors),
		Wrote:   len(d.WritesWork),
		Cites:   len(d.Citations),
		Related: len(d.RelatedWork),
	}
	for _, p := range d.Works {
		if p.Stub {
			c.Stubs++
		}
	}
	return c
}

// Edges returns every relation of d as typed edges, in document order.
func (d Dataset) Edges() []Edge {
	edges := make([]Edge, 0, len(d.WritesWork)+len(d.Citations)+len(d.RelatedWork))
	for _, w := range d.WritesWork {
		edges = append(edges, Edge{From: w.AuthorID, To: w.PaperID, Type: EdgeWrote})
	}
	for _, c := range d.Citations {
		edges = append(edges, Edge{From: c.From, To: c.To, Type: EdgeCites})
	}
	for _, r := range d.RelatedWork {
		edges = append(edges, Edge{From: r.From, To: r.To, Type: EdgeRelated})
	}
	return edges
}
