// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl drives the traversal of a crawl run. For every seed query and
// every enabled source it pages through the search results, resolves each
// record to its canonical id, records it in the graph and expands its direct
// citation, cited-by and related-work neighbors by one hop.
//
// Neighbor point lookups run on a bounded worker pool. Every resolver and
// assembler mutation happens on the goroutine calling Run.
package crawl

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/raquelpanapalen/trendgraph/internal/graph"
	"github.com/raquelpanapalen/trendgraph/internal/resolve"
	"github.com/raquelpanapalen/trendgraph/internal/source"
	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

var (
	// ErrAllSegmentsFailed reports a run where no segment returned a page.
	ErrAllSegmentsFailed = errors.New("every query segment failed")

	// ErrNoAdapters reports a run without an enabled source.
	ErrNoAdapters = errors.New("no source enabled")
)

// DefaultWorkers bounds concurrent neighbor lookups when the configuration
// leaves it unset.
const DefaultWorkers = 4

// Observer receives crawl events that feed run metrics.
type Observer interface {
	ObserveSkipped(source string, n int)
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithLogger sets the frontier logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Frontier) { f.log = log }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(f *Frontier) { f.observer = o }
}

// Frontier is the traversal state of one crawl run.
type Frontier struct {
	adapters []source.Adapter
	resolver *resolve.Resolver
	graph    *graph.Assembler
	cfg      types.CrawlConfig
	log      zerolog.Logger
	observer Observer

	// visit is keyed by canonical id; absorbed ids are folded into their
	// survivor after every merge.
	visit      map[string]VisitState
	seenMerges int

	summary Summary
}

// New creates a Frontier writing into g. The assembler should alias through
// the same resolver so merged ids collapse on export.
func New(adapters []source.Adapter, r *resolve.Resolver, g *graph.Assembler, cfg types.CrawlConfig, opts ...Option) *Frontier {
	f := &Frontier{
		adapters: adapters,
		resolver: r,
		graph:    g,
		cfg:      cfg,
		log:      zerolog.Nop(),
		visit:    make(map[string]VisitState),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run crawls every query against every adapter in order. A failing search
// abandons its segment only; the crawl continues with the next one.
//
// Run returns ErrAllSegmentsFailed when no segment produced a page, the
// context error when ctx is cancelled (the graph keeps everything applied so
// far), and any assembler error as fatal.
func (f *Frontier) Run(ctx context.Context, queries []source.Query) (Summary, error) {
	if len(f.adapters) == 0 {
		return f.summary, ErrNoAdapters
	}

	for _, q := range queries {
		for _, ad := range f.adapters {
			if err := ctx.Err(); err != nil {
				return f.finish(), err
			}
			rep, err := f.runSegment(ctx, ad, q)
			f.summary.Segments = append(f.summary.Segments, rep)
			if err != nil {
				return f.finish(), err
			}
			if ctx.Err() != nil {
				return f.finish(), ctx.Err()
			}
		}
	}

	sum := f.finish()
	f.log.Info().
		Int("segments", len(sum.Segments)).
		Int("failed_segments", sum.FailedSegments()).
		Int("pages", sum.Pages).
		Int("records", sum.Records).
		Int("skipped", sum.Skipped).
		Int("neighbor_fetches", sum.NeighborFetches).
		Int("neighbor_failures", sum.NeighborFailures).
		Int("merges", sum.Merges).
		Msg("crawl finished")

	if sum.allFailed() {
		return sum, ErrAllSegmentsFailed
	}
	return sum, nil
}

// State returns the visit state of a paper id, following merges.
func (f *Frontier) State(id string) VisitState {
	return f.visit[f.resolver.Canonical(id)]
}

func (f *Frontier) finish() Summary {
	f.summary.Merges = f.resolver.Merges()
	return f.summary
}

// runSegment pages through one query on one source. The returned error is
// fatal to the run; a search failure is reported in the SegmentReport.
func (f *Frontier) runSegment(ctx context.Context, ad source.Adapter, q source.Query) (SegmentReport, error) {
	rep := SegmentReport{Source: ad.Name(), Query: q.Text, State: StateIdle}
	log := f.log.With().Str("source", ad.Name()).Str("query", q.Text).Logger()

	token := ""
	for {
		if f.cfg.MaxPages > 0 && rep.Pages >= f.cfg.MaxPages {
			log.Debug().Int("pages", rep.Pages).Msg("page cap reached")
			break
		}

		f.transition(log, &rep, StatePaging)
		page, err := ad.Search(ctx, q, token)
		if err != nil {
			rep.Err = err
			if ctx.Err() == nil {
				log.Error().Err(err).Int("page", rep.Pages+1).Msg("search failed, abandoning segment")
			}
			break
		}
		rep.Pages++
		f.summary.Pages++

		if page.Skipped > 0 {
			f.summary.Skipped += page.Skipped
			log.Warn().Int("skipped", page.Skipped).Msg("skipped records without provider id")
			if f.observer != nil {
				f.observer.ObserveSkipped(ad.Name(), page.Skipped)
			}
		}

		records := page.Records
		if f.cfg.MaxResults > 0 {
			if remaining := f.cfg.MaxResults - rep.Records; len(records) > remaining {
				records = records[:remaining]
			}
		}

		f.transition(log, &rep, StateExpanding)
		if err := f.expand(ctx, ad, q, records, log); err != nil {
			return rep, err
		}
		rep.Records += len(records)
		f.summary.Records += len(records)

		if page.Done {
			break
		}
		if f.cfg.MaxResults > 0 && rep.Records >= f.cfg.MaxResults {
			log.Debug().Int("records", rep.Records).Msg("result cap reached")
			break
		}
		if ctx.Err() != nil {
			break
		}
		token = page.Next
	}

	f.transition(log, &rep, StateDone)
	return rep, nil
}

func (f *Frontier) transition(log zerolog.Logger, rep *SegmentReport, to SegmentState) {
	if rep.State == to {
		return
	}
	log.Debug().Stringer("from", rep.State).Stringer("to", to).Msg("segment state")
	rep.State = to
}

// job is one neighbor request of the expansion phase.
type job struct {
	// ref is the provider-native reference to look up.
	ref string
	// id is the canonical id the reference resolved to when queued.
	id string
	// citedBy marks a cited-by listing for the primary paper id instead of
	// a point lookup.
	citedBy bool

	record  source.Record
	records []source.Record
	err     error
}

// expand applies one page of primary records and then fetches and applies
// their unvisited one-hop neighbors. Links of neighbor records are not
// followed.
func (f *Frontier) expand(ctx context.Context, ad source.Adapter, q source.Query, records []source.Record, log zerolog.Logger) error {
	src := ad.Name()
	var jobs []*job

	for _, rec := range records {
		id, err := f.applyPrimary(src, q, rec)
		if err != nil {
			return err
		}

		for _, ref := range rec.References {
			j, err := f.link(src, ref, id, types.EdgeCites, true)
			if err != nil {
				return err
			}
			jobs = appendJob(jobs, j)
		}
		for _, ref := range rec.CitedBy {
			j, err := f.link(src, ref, id, types.EdgeCites, false)
			if err != nil {
				return err
			}
			jobs = appendJob(jobs, j)
		}
		for _, ref := range rec.Related {
			j, err := f.link(src, ref, id, types.EdgeRelated, true)
			if err != nil {
				return err
			}
			jobs = appendJob(jobs, j)
		}

		if _, ok := ad.(source.CitedByLister); ok && f.cfg.ExpandCitedBy {
			jobs = append(jobs, &job{ref: rec.NativeID(), id: id, citedBy: true})
		}
	}

	// A queued neighbor may have been returned as a primary record later on
	// the same page.
	pending := jobs[:0]
	for _, j := range jobs {
		if j.citedBy || f.State(j.id) != Fetched {
			pending = append(pending, j)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	f.fetch(ctx, ad, pending)
	if err := ctx.Err(); err != nil {
		return nil
	}

	for _, j := range pending {
		var err error
		if j.citedBy {
			err = f.applyCitedBy(src, j, log)
		} else {
			err = f.applyNeighbor(src, j, log)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// fetch runs the jobs on a pool of at most cfg.Workers goroutines. Each job
// stores its own result; failures never cancel the other jobs.
func (f *Frontier) fetch(ctx context.Context, ad source.Adapter, jobs []*job) {
	workers := f.cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if ctx.Err() != nil {
				j.err = ctx.Err()
				return nil
			}
			if j.citedBy {
				j.records, j.err = ad.(source.CitedByLister).CitedBy(ctx, j.ref)
			} else {
				j.record, j.err = ad.FetchRelated(ctx, j.ref)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// applyPrimary records a paper returned by a search page.
func (f *Frontier) applyPrimary(src string, q source.Query, rec source.Record) (string, error) {
	id, err := f.resolveRecord(src, rec)
	if err != nil {
		return "", err
	}

	p := rec.Paper
	p.ID = id
	p.Topics = prependTopic(q.Topic, p.Topics)
	if err := f.addRecord(p, rec.Authors); err != nil {
		return "", err
	}
	f.setState(id, Fetched)
	return id, nil
}

// link records the edge between a primary paper and a neighbor reference
// and returns a lookup job when the neighbor is unvisited.
func (f *Frontier) link(src, ref, self string, typ types.EdgeType, outgoing bool) (*job, error) {
	key, ok := resolve.ProviderKey(src, ref)
	if !ok {
		return nil, nil
	}
	nid, err := f.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	f.fold()

	if err := f.graph.AddPlaceholder(nid, src, ref); err != nil {
		return nil, err
	}
	e := types.Edge{From: self, To: nid, Type: typ}
	if !outgoing {
		e.From, e.To = nid, self
	}
	if _, err := f.graph.AddEdge(e); err != nil {
		return nil, err
	}

	if f.State(nid) != Unvisited {
		return nil, nil
	}
	f.setState(nid, Queued)
	return &job{ref: ref, id: nid}, nil
}

// applyNeighbor records a fetched one-hop neighbor. A failed lookup leaves
// the neighbor queued; its placeholder node stays in the graph.
func (f *Frontier) applyNeighbor(src string, j *job, log zerolog.Logger) error {
	if j.err != nil {
		f.summary.NeighborFailures++
		if errors.Is(j.err, source.ErrNotFound) {
			log.Debug().Str("ref", j.ref).Msg("neighbor not found")
		} else {
			log.Warn().Err(j.err).Str("ref", j.ref).Msg("neighbor lookup failed")
		}
		return nil
	}
	f.summary.NeighborFetches++

	// The queried reference joins the record's keys so that a provider
	// redirect still lands on the placeholder's cluster.
	extra, _ := resolve.ProviderKey(src, j.ref)
	id, err := f.resolveRecord(src, j.record, extra)
	if err != nil {
		return err
	}

	p := j.record.Paper
	p.ID = id
	if err := f.addRecord(p, j.record.Authors); err != nil {
		return err
	}
	f.setState(id, Fetched)
	return nil
}

// applyCitedBy records the papers citing a primary paper as neighbors.
func (f *Frontier) applyCitedBy(src string, j *job, log zerolog.Logger) error {
	f.summary.CitedByLookups++
	if j.err != nil {
		f.summary.NeighborFailures++
		log.Warn().Err(j.err).Str("ref", j.ref).Msg("cited-by lookup failed")
		return nil
	}

	for _, rec := range j.records {
		id, err := f.resolveRecord(src, rec)
		if err != nil {
			return err
		}
		if f.State(id) != Fetched {
			p := rec.Paper
			p.ID = id
			if err := f.addRecord(p, rec.Authors); err != nil {
				return err
			}
			f.setState(id, Fetched)
			f.summary.NeighborFetches++
		}
		if _, err := f.graph.AddEdge(types.Edge{From: id, To: j.id, Type: types.EdgeCites}); err != nil {
			return err
		}
	}
	return nil
}

// addRecord records a paper with its authors and WROTE edges.
func (f *Frontier) addRecord(p types.Paper, authors []types.Author) error {
	if err := f.graph.AddPaper(p); err != nil {
		return err
	}
	for _, a := range authors {
		if err := f.graph.AddAuthor(a); err != nil {
			return err
		}
		if _, err := f.graph.AddEdge(types.Edge{From: a.ID, To: p.ID, Type: types.EdgeWrote}); err != nil {
			return err
		}
	}
	return nil
}

func (f *Frontier) resolveRecord(src string, rec source.Record, extra ...resolve.Key) (string, error) {
	keys := resolve.KeysFor(src, rec.NativeID(), rec.Paper.Title, rec.Paper.DOI)
	keys = append(keys, extra...)
	id, err := f.resolver.Resolve(keys...)
	if err != nil {
		return "", fmt.Errorf("resolving %s record %q: %w", src, rec.NativeID(), err)
	}
	f.fold()
	return id, nil
}

func (f *Frontier) setState(id string, s VisitState) {
	c := f.resolver.Canonical(id)
	if s > f.visit[c] {
		f.visit[c] = s
	}
}

// fold moves the visit state of absorbed ids onto their survivors after a
// resolver merge, keeping the most advanced state.
func (f *Frontier) fold() {
	merges := f.resolver.Merges()
	if merges == f.seenMerges {
		return
	}
	f.seenMerges = merges

	for id, s := range f.visit {
		c := f.resolver.Canonical(id)
		if c == id {
			continue
		}
		delete(f.visit, id)
		if s > f.visit[c] {
			f.visit[c] = s
		}
	}
}

func appendJob(jobs []*job, j *job) []*job {
	if j == nil {
		return jobs
	}
	return append(jobs, j)
}

// prependTopic puts the seed topic label first, keeping the provider labels
// in order without duplicates.
func prependTopic(topic string, topics []string) []string {
	out := make([]string, 0, len(topics)+1)
	if topic != "" {
		out = append(out, topic)
	}
	for _, t := range topics {
		dup := false
		for _, o := range out {
			if o == t {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}
