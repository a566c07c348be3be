// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every provider adapter.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trendgraph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxAttempts is the total number of attempts per HTTP call, including
	// the first one (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// QuotaConfig holds the request budget for one provider.
type QuotaConfig struct {
	// DailyQuota is the number of requests allowed per 24h window.
	// Zero disables the quota.
	DailyQuota int `json:"daily_quota" yaml:"daily_quota" mapstructure:"daily_quota"`

	// Interval is the minimum delay between two requests (default 1s).
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// ProgressEvery logs the request count every N requests (default 100).
	ProgressEvery int `json:"progress_every" yaml:"progress_every" mapstructure:"progress_every"`
}

// OpenAlexConfig configures the OpenAlex adapter.
type OpenAlexConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Email is sent as the mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// Filter is passed verbatim as the works filter expression.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty" mapstructure:"filter"`

	// Sort is the works sort order (e.g. "cited_by_count:desc").
	Sort string `json:"sort,omitempty" yaml:"sort,omitempty" mapstructure:"sort"`
}

// SemanticScholarConfig configures the Semantic Scholar adapter.
type SemanticScholarConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// APIKey is an optional API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// ArxivConfig configures the arXiv adapter.
type ArxivConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// SourcesConfig groups the per-provider settings.
type SourcesConfig struct {
	OpenAlex        OpenAlexConfig        `json:"openalex" yaml:"openalex" mapstructure:"openalex"`
	SemanticScholar SemanticScholarConfig `json:"semantic_scholar" yaml:"semantic_scholar" mapstructure:"semantic_scholar"`
	Arxiv           ArxivConfig           `json:"arxiv" yaml:"arxiv" mapstructure:"arxiv"`
}

// CrawlConfig holds the frontier settings.
type CrawlConfig struct {
	// Queries overrides the default topic catalogue when non-empty.
	Queries []string `json:"queries,omitempty" yaml:"queries,omitempty" mapstructure:"queries"`

	// TopicsFile names a YAML topic catalogue used instead of the built-in
	// one. Queries take precedence over it.
	TopicsFile string `json:"topics_file,omitempty" yaml:"topics_file,omitempty" mapstructure:"topics_file"`

	// PageSize is the number of records requested per page (default 100).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// MaxPages caps primary page iterations per query (default 3).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// MaxResults caps primary records per query, i.e. per topic (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Workers bounds concurrent neighbor lookups (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// ExpandCitedBy enables the backward cited-by lookup where a provider
	// needs a separate request for it.
	ExpandCitedBy bool `json:"expand_cited_by" yaml:"expand_cited_by" mapstructure:"expand_cited_by"`
}

// ExportConfig holds the output settings.
type ExportConfig struct {
	// Output is the dataset path. The extension selects the format unless
	// Format is set.
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// Format is one of "json", "yaml" or "sqlite".
	Format string `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`

	// DropSelfLoops removes paper self-loops produced by merges.
	DropSelfLoops bool `json:"drop_self_loops" yaml:"drop_self_loops" mapstructure:"drop_self_loops"`

	// MetricsFile, when set, receives the run metrics in Prometheus text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output is "stderr" or "stdout".
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// PipelineConfig groups every setting of a crawl run.
type PipelineConfig struct {
	HTTP    HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
	Quota   QuotaConfig   `json:"quota" yaml:"quota" mapstructure:"quota"`
	Sources SourcesConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
	Crawl   CrawlConfig   `json:"crawl" yaml:"crawl" mapstructure:"crawl"`
	Export  ExportConfig  `json:"export" yaml:"export" mapstructure:"export"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}
