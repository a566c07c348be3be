// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes the assembled graph to its durable representation
// and reads it back for re-validation. Every export is checked with
// graph.Validate first; a dataset with dangling edges is never written.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/raquelpanapalen/trendgraph/internal/graph"
	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// DetectFormat returns the format named by override, or the one implied by
// the extension of path when override is empty. Unknown extensions fall
// back to JSON.
func DetectFormat(path, override string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "":
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, yaml or sqlite)", override)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return FormatJSON, nil
	}
}

// Exporter writes datasets in one format.
type Exporter struct {
	Format Format
	Log    zerolog.Logger
}

// New creates an Exporter for path, choosing the format as DetectFormat does.
func New(path, format string, log zerolog.Logger) (*Exporter, error) {
	f, err := DetectFormat(path, format)
	if err != nil {
		return nil, err
	}
	return &Exporter{Format: f, Log: log}, nil
}

// Export validates ds and writes it to path, replacing any previous file
// only once the new one is complete. It logs and returns the dataset counts.
func (e *Exporter) Export(ctx context.Context, ds types.Dataset, path string) (types.DatasetCounts, error) {
	if err := graph.Validate(ds); err != nil {
		return types.DatasetCounts{}, fmt.Errorf("refusing to export %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return types.DatasetCounts{}, fmt.Errorf("creating output directory: %w", err)
		}
	}

	var err error
	switch e.Format {
	case FormatJSON, "":
		err = writeEncoded(path, ds, marshalJSON)
	case FormatYAML:
		err = writeEncoded(path, ds, yaml.Marshal)
	case FormatSQLite:
		err = writeSQLite(ctx, path, ds)
	default:
		err = fmt.Errorf("unknown export format %q", e.Format)
	}
	if err != nil {
		return types.DatasetCounts{}, err
	}

	c := ds.Counts()
	e.Log.Info().
		Str("path", path).
		Str("format", string(e.Format)).
		Int("papers", c.Papers).
		Int("stubs", c.Stubs).
		Int("authors", c.Authors).
		Int("wrote", c.Wrote).
		Int("cites", c.Cites).
		Int("related", c.Related).
		Msg("dataset exported")
	return c, nil
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeEncoded marshals ds and writes it through a temporary file in the
// destination directory.
func writeEncoded(path string, ds types.Dataset, marshal func(any) ([]byte, error)) error {
	data, err := marshal(ds)
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	return writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}

// Read loads a dataset previously written by Export.
func Read(ctx context.Context, path, format string) (types.Dataset, error) {
	f, err := DetectFormat(path, format)
	if err != nil {
		return types.Dataset{}, err
	}
	if f == FormatSQLite {
		return readSQLite(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.Dataset{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var ds types.Dataset
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &ds)
	default:
		err = json.Unmarshal(data, &ds)
	}
	if err != nil {
		return types.Dataset{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ds, nil
}
