// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph accumulates the paper, author and edge sets of a crawl run
// and produces the exported Dataset.
//
// Nodes are keyed by canonical id and edges by their (From, To, Type) tuple,
// so every insert is a set-union. Ids absorbed by a later resolver merge stay
// in the assembler as recorded; Snapshot rewrites them through an Aliaser so
// the exported document never carries two ids for one paper.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

var (
	// ErrUnknownAuthor reports a WROTE edge whose author was never added.
	ErrUnknownAuthor = errors.New("unknown author")

	// ErrEmptyID reports a node or edge endpoint without an id.
	ErrEmptyID = errors.New("empty id")
)

// Aliaser maps a possibly absorbed paper id to its surviving canonical id.
// resolve.Resolver implements it.
type Aliaser interface {
	Canonical(id string) string
}

type identity struct{}

func (identity) Canonical(id string) string { return id }

// Assembler holds the graph of one crawl run. It is safe for concurrent use,
// although the crawl frontier applies mutations from a single goroutine.
type Assembler struct {
	mu sync.Mutex

	aliases Aliaser

	papers     map[string]*types.Paper
	paperOrder []string

	authors     map[string]types.Author
	authorOrder []string

	edges     map[types.Edge]struct{}
	edgeOrder []types.Edge
}

// New creates an empty Assembler. A nil Aliaser leaves ids unchanged.
func New(aliases Aliaser) *Assembler {
	if aliases == nil {
		aliases = identity{}
	}
	return &Assembler{
		aliases: aliases,
		papers:  make(map[string]*types.Paper),
		authors: make(map[string]types.Author),
		edges:   make(map[types.Edge]struct{}),
	}
}

// AddPaper records p under p.ID. Adding a known id merges the two records: a
// full record replaces a placeholder, known fields are never overwritten by
// nil ones, and topic labels are unioned in order.
func (a *Assembler) AddPaper(p types.Paper) error {
	if p.ID == "" {
		return fmt.Errorf("adding paper %q: %w", p.Title, ErrEmptyID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.putPaper(p)
	return nil
}

// AddPlaceholder records a stub node for id unless the id is already known.
// source and ref identify the provider record the stub stands for.
func (a *Assembler) AddPlaceholder(id, source, ref string) error {
	if id == "" {
		return fmt.Errorf("adding placeholder for %s %q: %w", source, ref, ErrEmptyID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.papers[id]; !ok {
		a.putPaper(stub(id, source, ref))
	}
	return nil
}

// AddAuthor records an author. Re-adding a known id is a no-op apart from
// filling in a missing name and new institutions.
func (a *Assembler) AddAuthor(au types.Author) error {
	if au.ID == "" {
		return fmt.Errorf("adding author %q: %w", au.Name, ErrEmptyID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.authors[au.ID]
	if !ok {
		au.Institutions = appendUnique(make([]string, 0, len(au.Institutions)), au.Institutions...)
		a.authors[au.ID] = au
		a.authorOrder = append(a.authorOrder, au.ID)
		return nil
	}
	if existing.Name == "" {
		existing.Name = au.Name
	}
	existing.Institutions = appendUnique(existing.Institutions, au.Institutions...)
	a.authors[au.ID] = existing
	return nil
}

// AddEdge records e and reports whether it was new. A paper endpoint that is
// not yet known is created as a placeholder in the same step, so forward
// references are accepted in any arrival order. A WROTE edge requires its
// author to have been added first.
func (a *Assembler) AddEdge(e types.Edge) (bool, error) {
	if !e.Type.Valid() {
		return false, fmt.Errorf("adding edge %s -> %s: invalid type %q", e.From, e.To, e.Type)
	}
	if e.From == "" || e.To == "" {
		return false, fmt.Errorf("adding %s edge %q -> %q: %w", e.Type, e.From, e.To, ErrEmptyID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.edges[e]; ok {
		return false, nil
	}

	if e.Type == types.EdgeWrote {
		if _, ok := a.authors[e.From]; !ok {
			return false, fmt.Errorf("adding WROTE edge %s -> %s: %w", e.From, e.To, ErrUnknownAuthor)
		}
	} else if _, ok := a.papers[e.From]; !ok {
		a.putPaper(stub(e.From, "", ""))
	}
	if _, ok := a.papers[e.To]; !ok {
		a.putPaper(stub(e.To, "", ""))
	}

	a.edges[e] = struct{}{}
	a.edgeOrder = append(a.edgeOrder, e)
	return true, nil
}

// HasPaper reports whether id (or the id it was merged into) is a recorded
// paper, placeholder or not.
func (a *Assembler) HasPaper(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.papers[id]; ok {
		return true
	}
	_, ok := a.papers[a.aliases.Canonical(id)]
	return ok
}

// Counts returns the running node and edge counts as recorded, before
// aliasing. They are meant for progress reporting; Snapshot().Counts() is
// authoritative.
func (a *Assembler) Counts() types.DatasetCounts {
	a.mu.Lock()
	defer a.mu.Unlock()

	c := types.DatasetCounts{Papers: len(a.papers), Authors: len(a.authors)}
	for _, p := range a.papers {
		if p.Stub {
			c.Stubs++
		}
	}
	for _, e := range a.edgeOrder {
		switch e.Type {
		case types.EdgeWrote:
			c.Wrote++
		case types.EdgeCites:
			c.Cites++
		case types.EdgeRelated:
			c.Related++
		}
	}
	return c
}

// SnapshotOptions tunes Snapshot.
type SnapshotOptions struct {
	// DropSelfLoops removes paper-to-paper edges whose endpoints resolve to
	// the same canonical id.
	DropSelfLoops bool
}

// Snapshot returns the assembled graph as a Dataset. Paper ids are rewritten
// to their canonical ids, papers that merged into one id are combined, and
// edges that became duplicates after rewriting are emitted once. The result
// shares no mutable state with the Assembler, so it can be taken at any time
// during a crawl.
func (a *Assembler) Snapshot(opts SnapshotOptions) types.Dataset {
	a.mu.Lock()
	defer a.mu.Unlock()

	ds := types.Dataset{
		Works:       []types.Paper{},
		Authors:     []types.Author{},
		WritesWork:  []types.Authorship{},
		Citations:   []types.Relation{},
		RelatedWork: []types.Relation{},
	}

	merged := make(map[string]*types.Paper, len(a.papers))
	var order []string
	for _, id := range a.paperOrder {
		p := copyPaper(*a.papers[id])
		p.ID = a.aliases.Canonical(id)
		if existing, ok := merged[p.ID]; ok {
			mergePaper(existing, p)
			continue
		}
		merged[p.ID] = &p
		order = append(order, p.ID)
	}
	for _, id := range order {
		ds.Works = append(ds.Works, *merged[id])
	}

	for _, id := range a.authorOrder {
		au := a.authors[id]
		au.Institutions = append([]string{}, au.Institutions...)
		ds.Authors = append(ds.Authors, au)
	}

	seen := make(map[types.Edge]struct{}, len(a.edgeOrder))
	for _, e := range a.edgeOrder {
		if e.Type != types.EdgeWrote {
			e.From = a.aliases.Canonical(e.From)
		}
		e.To = a.aliases.Canonical(e.To)
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}

		switch e.Type {
		case types.EdgeWrote:
			ds.WritesWork = append(ds.WritesWork, types.Authorship{AuthorID: e.From, PaperID: e.To})
		case types.EdgeCites:
			if opts.DropSelfLoops && e.From == e.To {
				continue
			}
			ds.Citations = append(ds.Citations, types.Relation{From: e.From, To: e.To})
		case types.EdgeRelated:
			if opts.DropSelfLoops && e.From == e.To {
				continue
			}
			ds.RelatedWork = append(ds.RelatedWork, types.Relation{From: e.From, To: e.To})
		}
	}
	return ds
}

// putPaper inserts or merges p. Callers hold a.mu.
func (a *Assembler) putPaper(p types.Paper) {
	p = copyPaper(p)
	if existing, ok := a.papers[p.ID]; ok {
		mergePaper(existing, p)
		return
	}
	a.papers[p.ID] = &p
	a.paperOrder = append(a.paperOrder, p.ID)
}

func stub(id, source, ref string) types.Paper {
	return types.Paper{ID: id, Topics: []string{}, Source: source, SourceRef: ref, Stub: true}
}

// mergePaper folds src into dst, which keeps its id.
func mergePaper(dst *types.Paper, src types.Paper) {
	if dst.Stub && !src.Stub {
		id, topics := dst.ID, dst.Topics
		*dst = src
		dst.ID = id
		dst.Topics = appendUnique(topics, src.Topics...)
		return
	}

	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.DOI == nil {
		dst.DOI = src.DOI
	}
	if dst.Year == nil {
		dst.Year = src.Year
	}
	if dst.Citations == nil {
		dst.Citations = src.Citations
	}
	if dst.Abstract == nil {
		dst.Abstract = src.Abstract
	}
	if dst.Publisher == nil {
		dst.Publisher = src.Publisher
	}
	if dst.Source == "" {
		dst.Source = src.Source
	}
	if dst.SourceRef == "" {
		dst.SourceRef = src.SourceRef
	}
	dst.Topics = appendUnique(dst.Topics, src.Topics...)
}

func copyPaper(p types.Paper) types.Paper {
	p.Topics = append(make([]string, 0, len(p.Topics)), p.Topics...)
	return p
}

func appendUnique(dst []string, values ...string) []string {
	if dst == nil {
		dst = []string{}
	}
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
