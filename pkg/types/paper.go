// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for the trendgraph crawler:
// the canonical Paper and Author value objects, typed graph edges, the exported
// Dataset document, and the configuration structs for every stage.
package types

// Paper is the canonical record for one real-world paper. Nullable fields are
// pointers so that "unknown" (nil) stays distinguishable from a real zero value.
type Paper struct {
	// ID is the canonical id assigned by the entity resolver. It is stable for
	// the run and shared by every provider record of the same paper.
	ID string `json:"paper_id" yaml:"paper_id"`

	// Title is the paper title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// DOI is the bare DOI without resolver prefix, or nil when unknown.
	DOI *string `json:"doi" yaml:"doi"`

	// Year is the publication year, or nil when unknown.
	Year *int `json:"year" yaml:"year"`

	// Citations is the provider's citation count, or nil when unknown.
	Citations *int `json:"citations" yaml:"citations"`

	// Abstract is the plain-text abstract, or nil when the provider has none.
	Abstract *string `json:"abstract" yaml:"abstract"`

	// Publisher is the venue or journal display name, or nil when unknown.
	Publisher *string `json:"publisher" yaml:"publisher"`

	// Topics lists topic labels in order: seed topic first, then provider labels.
	Topics []string `json:"topics" yaml:"topics"`

	// Source names the provider the record came from (e.g. "openalex").
	Source string `json:"source" yaml:"source"`

	// SourceRef is the provider-native identifier of the record.
	SourceRef string `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`

	// Stub marks a placeholder node created for an edge endpoint whose record
	// was never retrieved.
	Stub bool `json:"stub,omitempty" yaml:"stub,omitempty"`
}

// Author is a paper author. Author ids are scoped per provider
// (e.g. "openalex:A5023888391"); authors are not merged across providers.
type Author struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Institutions []string `json:"institutions" yaml:"institutions"`
	Source       string   `json:"source" yaml:"source"`
}
