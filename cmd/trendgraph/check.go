// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raquelpanapalen/trendgraph/internal/export"
	"github.com/raquelpanapalen/trendgraph/internal/graph"
)

var checkFormat string

var checkCmd = &cobra.Command{
	Use:   "check <dataset>",
	Short: "Validate an exported dataset",
	Long: `Check reads a dataset written by "trendgraph crawl" and verifies that
every edge endpoint exists and that no paper id appears twice.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ds, err := export.Read(cmd.Context(), path, checkFormat)
		if err != nil {
			return err
		}
		if err := graph.Validate(ds); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		c := ds.Counts()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: ok\n", path)
		fmt.Fprintf(out, "  Papers:  %d (%d stubs)\n", c.Papers, c.Stubs)
		fmt.Fprintf(out, "  Authors: %d\n", c.Authors)
		fmt.Fprintf(out, "  Edges:   WROTE=%d CITES=%d RELATED=%d\n", c.Wrote, c.Cites, c.Related)
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "", "dataset format: json, yaml or sqlite (default: from extension)")
	rootCmd.AddCommand(checkCmd)
}
