// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raquelpanapalen/trendgraph/internal/crawl"
	"github.com/raquelpanapalen/trendgraph/internal/export"
	"github.com/raquelpanapalen/trendgraph/internal/graph"
	"github.com/raquelpanapalen/trendgraph/internal/observability"
	"github.com/raquelpanapalen/trendgraph/internal/ratelimit"
	"github.com/raquelpanapalen/trendgraph/internal/resolve"
	"github.com/raquelpanapalen/trendgraph/internal/secrets"
	"github.com/raquelpanapalen/trendgraph/internal/source"
	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the configured sources and export the citation graph",
	Long: `Crawl runs every seed query against every enabled source. Each result
page is resolved into canonical papers, and the direct references, citing
papers and related works of every result are fetched once (one hop).

Without --query the topics of --topics-file are crawled, and without either
the built-in catalogue is used (see "trendgraph topics").
The output format follows the extension of --output (.json, .yaml, .db)
unless --format is given. An interrupted crawl (Ctrl-C) still exports what
was assembled so far.`,
	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	secrets.Apply(&cfg.Sources, loadedSecrets)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(observability.DefaultNamespace)
	resolver := resolve.New(resolve.WithMergeHook(func(survivor, absorbed string) {
		metrics.ObserveMerge(survivor, absorbed)
		logger.Debug().Str("survivor", survivor).Str("absorbed", absorbed).Msg("merged paper identities")
	}))
	assembler := graph.New(resolver)

	queries, err := seedQueries(cfg.Crawl)
	if err != nil {
		return err
	}
	adapters, limiters := buildAdapters(cfg, logger, metrics)
	logger.Info().
		Int("queries", len(queries)).
		Strs("sources", adapterNames(adapters)).
		Int("max_pages", cfg.Crawl.MaxPages).
		Int("max_results", cfg.Crawl.MaxResults).
		Msg("starting crawl")

	frontier := crawl.New(adapters, resolver, assembler, cfg.Crawl,
		crawl.WithLogger(observability.WithComponent(logger, "crawl")),
		crawl.WithObserver(metrics),
	)
	start := time.Now()
	summary, runErr := frontier.Run(ctx, queries)

	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		if errors.Is(runErr, crawl.ErrAllSegmentsFailed) {
			return allFailedError(summary, runErr)
		}
		return fmt.Errorf("crawl aborted: %w", runErr)
	}
	if interrupted {
		logger.Warn().Msg("crawl interrupted, exporting partial graph")
	}

	ex, err := export.New(cfg.Export.Output, cfg.Export.Format, observability.WithComponent(logger, "export"))
	if err != nil {
		return err
	}
	ds := assembler.Snapshot(graph.SnapshotOptions{DropSelfLoops: cfg.Export.DropSelfLoops})
	counts, err := ex.Export(context.WithoutCancel(ctx), ds, cfg.Export.Output)
	if err != nil {
		return err
	}
	metrics.SetGraphCounts(counts)

	if cfg.Export.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.Export.MetricsFile); err != nil {
			return err
		}
	}

	printCrawlSummary(os.Stdout, summary, counts, limiters, time.Since(start))
	fmt.Fprintf(os.Stdout, "Exported to %s\n", cfg.Export.Output)

	if interrupted {
		return fmt.Errorf("crawl interrupted: partial graph exported to %s", cfg.Export.Output)
	}
	return nil
}

// buildAdapters creates the enabled adapters, each with its own request
// budget, in a fixed order: OpenAlex, Semantic Scholar, arXiv.
func buildAdapters(cfg types.PipelineConfig, log zerolog.Logger, metrics *observability.Metrics) ([]source.Adapter, []*ratelimit.Limiter) {
	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	var (
		adapters []source.Adapter
		limiters []*ratelimit.Limiter
	)
	transport := func(name string) source.Transport {
		lim := ratelimit.New(name, cfg.Quota,
			ratelimit.WithLogger(observability.WithComponent(log, "ratelimit")),
			ratelimit.WithWaitHook(metrics.QuotaWaitHook(name)),
		)
		limiters = append(limiters, lim)
		return source.Transport{
			Client:   client,
			Budget:   lim,
			HTTP:     cfg.HTTP,
			Observer: metrics,
			Log:      observability.WithComponent(log, "source").With().Str("source", name).Logger(),
		}
	}

	if cfg.Sources.OpenAlex.Enabled {
		adapters = append(adapters, source.NewOpenAlex(transport(source.OpenAlexName), cfg.Sources.OpenAlex, cfg.Crawl.PageSize))
	}
	if cfg.Sources.SemanticScholar.Enabled {
		adapters = append(adapters, source.NewSemanticScholar(transport(source.SemanticScholarName), cfg.Sources.SemanticScholar, cfg.Crawl.PageSize))
	}
	if cfg.Sources.Arxiv.Enabled {
		adapters = append(adapters, source.NewArxiv(transport(source.ArxivName), cfg.Crawl.PageSize))
	}
	return adapters, limiters
}

// seedQueries returns the configured queries, the topics of the configured
// topic file, or the default topic catalogue, in that order.
func seedQueries(cfg types.CrawlConfig) ([]source.Query, error) {
	if qs := crawl.TextQueries(cfg.Queries); len(qs) > 0 {
		return qs, nil
	}
	if cfg.TopicsFile != "" {
		topics, err := crawl.ReadTopicFile(cfg.TopicsFile)
		if err != nil {
			return nil, err
		}
		return crawl.TopicQueries(topics), nil
	}
	return crawl.TopicQueries(crawl.DefaultTopics()), nil
}

func adapterNames(adapters []source.Adapter) []string {
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	return names
}

// allFailedError names the last failing segment so the user can tell which
// endpoint is down.
func allFailedError(summary crawl.Summary, err error) error {
	for i := len(summary.Segments) - 1; i >= 0; i-- {
		if seg := summary.Segments[i]; seg.Err != nil {
			return fmt.Errorf("%w (last: %s query %q: %v)", err, seg.Source, seg.Query, seg.Err)
		}
	}
	return err
}

func printCrawlSummary(w io.Writer, s crawl.Summary, c types.DatasetCounts, limiters []*ratelimit.Limiter, elapsed time.Duration) {
	fmt.Fprintf(w, "Crawl finished in %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(w, "  Segments:  %d (%d failed)\n", len(s.Segments), s.FailedSegments())
	fmt.Fprintf(w, "  Pages:     %d\n", s.Pages)
	fmt.Fprintf(w, "  Records:   %d (%d skipped)\n", s.Records, s.Skipped)
	fmt.Fprintf(w, "  Neighbors: %d fetched, %d failed\n", s.NeighborFetches, s.NeighborFailures)
	fmt.Fprintf(w, "  Merges:    %d\n", s.Merges)

	var reqs []string
	for _, l := range limiters {
		reqs = append(reqs, fmt.Sprintf("%s=%d", l.Name(), l.Total()))
	}
	if len(reqs) > 0 {
		fmt.Fprintf(w, "  Requests:  %s\n", strings.Join(reqs, " "))
	}

	fmt.Fprintf(w, "  Papers:    %d (%d stubs)\n", c.Papers, c.Stubs)
	fmt.Fprintf(w, "  Authors:   %d\n", c.Authors)
	fmt.Fprintf(w, "  Edges:     WROTE=%d CITES=%d RELATED=%d\n", c.Wrote, c.Cites, c.Related)

	for _, seg := range s.Segments {
		if seg.Err != nil {
			fmt.Fprintf(w, "  FAILED %s %q: %v\n", seg.Source, seg.Query, seg.Err)
		}
	}
}

func init() {
	f := crawlCmd.Flags()
	f.StringP("output", "o", defaultOutput, "output path (.json, .yaml or .db)")
	f.String("format", "", "output format: json, yaml or sqlite (default: from --output extension)")
	f.StringSliceP("query", "q", nil, "seed query (repeatable; default: built-in topic catalogue)")
	f.String("topics-file", "", "YAML topic catalogue to crawl instead of the built-in one")
	f.Int("max-results", 100, "maximum primary results per query and source")
	f.Int("max-pages", 3, "maximum result pages per query and source")
	f.Int("page-size", 100, "results requested per page")
	f.Int("workers", crawl.DefaultWorkers, "concurrent neighbor lookups")
	f.Duration("interval", time.Second, "minimum delay between two requests to one source")
	f.Int("quota", 100000, "requests per source per 24h window (0 = unlimited)")
	f.Bool("openalex", true, "query OpenAlex")
	f.Bool("semantic-scholar", false, "query Semantic Scholar")
	f.Bool("arxiv", false, "query arXiv")
	f.String("openalex-filter", "", "OpenAlex works filter expression")
	f.Bool("expand-cited-by", false, "also fetch papers citing each result where the source needs a separate request")
	f.Bool("drop-self-loops", false, "drop citation self-loops produced by merged records")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this file")

	mustBind(viper.GetViper(), f, map[string]string{
		"output":           "export.output",
		"format":           "export.format",
		"drop-self-loops":  "export.drop_self_loops",
		"metrics-file":     "export.metrics_file",
		"query":            "crawl.queries",
		"topics-file":      "crawl.topics_file",
		"max-results":      "crawl.max_results",
		"max-pages":        "crawl.max_pages",
		"page-size":        "crawl.page_size",
		"workers":          "crawl.workers",
		"expand-cited-by":  "crawl.expand_cited_by",
		"interval":         "quota.interval",
		"quota":            "quota.daily_quota",
		"openalex":         "sources.openalex.enabled",
		"semantic-scholar": "sources.semantic_scholar.enabled",
		"arxiv":            "sources.arxiv.enabled",
		"openalex-filter":  "sources.openalex.filter",
	})

	rootCmd.AddCommand(crawlCmd)
}
