// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raquelpanapalen/trendgraph/internal/crawl"
)

var topicsYAML bool

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the built-in seed topics",
	Long: `Topics prints the catalogue used when neither --query nor --topics-file
is given. With --yaml the catalogue is printed as a topic file that can be
edited and passed back to "trendgraph crawl --topics-file".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics := crawl.DefaultTopics()
		out := cmd.OutOrStdout()

		if topicsYAML {
			return crawl.WriteTopicFile(out, topics)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TREND\tTOPIC")
		for _, t := range topics {
			fmt.Fprintf(tw, "%s\t%s\n", t.Trend, t.Name)
		}
		return tw.Flush()
	},
}

func init() {
	topicsCmd.Flags().BoolVar(&topicsYAML, "yaml", false, "print the catalogue as a topic file")
	rootCmd.AddCommand(topicsCmd)
}
