// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trendgraph CLI. It crawls paper
// metadata providers for a set of seed topics and exports a deduplicated
// citation and authorship graph.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raquelpanapalen/trendgraph/internal/observability"
	"github.com/raquelpanapalen/trendgraph/internal/secrets"
	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// logger is configured from --log-level and --log-format before any
	// subcommand runs.
	logger = zerolog.Nop()
)

// rootCmd is the base command for the trendgraph CLI.
var rootCmd = &cobra.Command{
	Use:   "trendgraph",
	Short: "Crawl paper metadata providers into a citation graph dataset",
	Long: `trendgraph queries paper metadata providers (OpenAlex, Semantic Scholar,
arXiv) for a set of seed topics, expands every result by one citation hop,
merges records of the same paper across providers, and exports the resulting
works, authors, authorship, citation and related-work collections.

Settings come from flags, TRENDGRAPH_* environment variables and
trendgraph.yaml, in that order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var logCfg types.LoggingConfig
		if err := viper.UnmarshalKey("logging", &logCfg); err != nil {
			return fmt.Errorf("decoding logging configuration: %w", err)
		}
		logger = observability.NewLogger(logCfg)
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./trendgraph.yaml or ~/.config/trendgraph/trendgraph.yaml)")
	pf.String("log-level", defaultLogLevel, "log level: trace, debug, info, warn, error")
	pf.String("log-format", defaultLogFormat, "log format: console or json")

	mustBind(viper.GetViper(), pf, map[string]string{
		"log-level":  "logging.level",
		"log-format": "logging.format",
	})
}

func initConfig() {
	v := viper.GetViper()
	setDefaults(v)

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("trendgraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "trendgraph"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
