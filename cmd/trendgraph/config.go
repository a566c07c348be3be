// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/raquelpanapalen/trendgraph/internal/crawl"
	"github.com/raquelpanapalen/trendgraph/internal/httputil"
	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

const (
	envPrefix = "TRENDGRAPH"

	defaultOutput    = "dataset.json"
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
	defaultUserAgent = "trendgraph/0.1"
)

// setDefaults registers every configuration key so that environment
// variables and config files can override any of them.
func setDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.user_agent", defaultUserAgent)
	v.SetDefault("http.max_attempts", httputil.DefaultMaxAttempts)
	v.SetDefault("http.retry_base_delay", time.Second)

	v.SetDefault("quota.daily_quota", 100000)
	v.SetDefault("quota.interval", time.Second)
	v.SetDefault("quota.progress_every", 100)

	v.SetDefault("sources.openalex.enabled", true)
	v.SetDefault("sources.openalex.email", "")
	v.SetDefault("sources.openalex.filter", "")
	v.SetDefault("sources.openalex.sort", "")
	v.SetDefault("sources.semantic_scholar.enabled", false)
	v.SetDefault("sources.semantic_scholar.api_key", "")
	v.SetDefault("sources.arxiv.enabled", false)

	v.SetDefault("crawl.queries", []string{})
	v.SetDefault("crawl.topics_file", "")
	v.SetDefault("crawl.page_size", 100)
	v.SetDefault("crawl.max_pages", 3)
	v.SetDefault("crawl.max_results", 100)
	v.SetDefault("crawl.workers", crawl.DefaultWorkers)
	v.SetDefault("crawl.expand_cited_by", false)

	v.SetDefault("export.output", defaultOutput)
	v.SetDefault("export.format", "")
	v.SetDefault("export.drop_self_loops", false)
	v.SetDefault("export.metrics_file", "")

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.format", defaultLogFormat)
	v.SetDefault("logging.output", "stderr")
}

// loadConfig decodes the merged settings of v.
func loadConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg types.PipelineConfig) error {
	switch {
	case cfg.Crawl.PageSize < 0:
		return fmt.Errorf("crawl.page_size must not be negative")
	case cfg.Crawl.MaxPages < 0:
		return fmt.Errorf("crawl.max_pages must not be negative")
	case cfg.Crawl.MaxResults < 0:
		return fmt.Errorf("crawl.max_results must not be negative")
	case cfg.Quota.DailyQuota < 0:
		return fmt.Errorf("quota.daily_quota must not be negative")
	case cfg.Quota.Interval < 0:
		return fmt.Errorf("quota.interval must not be negative")
	case cfg.Export.Output == "":
		return fmt.Errorf("export.output is required")
	}
	if !cfg.Sources.OpenAlex.Enabled && !cfg.Sources.SemanticScholar.Enabled && !cfg.Sources.Arxiv.Enabled {
		return fmt.Errorf("no source enabled: enable at least one of openalex, semantic_scholar, arxiv")
	}
	return nil
}

// mustBind binds flags to configuration keys. A missing flag is a
// programming error.
func mustBind(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag --%s: %v", name, err))
		}
	}
}
