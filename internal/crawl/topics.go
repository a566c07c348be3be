// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"strings"

	"github.com/raquelpanapalen/trendgraph/internal/source"
)

// Topic trend categories.
const (
	TrendEmerging    = "emerging"
	TrendEstablished = "established"
	TrendDeclining   = "declining"
)

// Topic is one seed query of the default catalogue.
type Topic struct {
	Name  string `json:"name" yaml:"name"`
	Trend string `json:"trend" yaml:"trend"`
}

var defaultTopics = map[string][]string{
	TrendEmerging: {
		"Retrieval-Augmented Generation",
		"Multimodal AI",
		"AI for Drug Discovery",
		"Self-Supervised Learning",
		"AI Safety and Alignment",
		"Diffusion Models",
		"Neurosymbolic AI",
		"Foundation Models",
		"GNNs in Biology",
		"AI for Computational Creativity",
	},
	TrendEstablished: {
		"Vision Transformers",
		"Text-to-Image Generation",
		"Natural Language Generation",
		"Reinforcement Learning",
		"Graph Neural Networks",
		"Federated Learning",
		"Causal Inference in ML",
		"Explainable AI",
		"Neural Architecture Search",
		"Adversarial ML",
	},
	TrendDeclining: {
		"Handcrafted Feature Engineering",
		"Shallow ML",
		"CNNs for Vision",
		"Rule-Based Expert Systems",
		"LSTMs in NLP",
		"Face Recognition and Emotion Detection",
		"Crowdsourced Data Labeling",
		"ETL Pipelines",
		"Autonomous Chatbots",
		"Image Super-Resolution",
	},
}

// DefaultTopics returns the built-in topic catalogue, emerging topics first.
func DefaultTopics() []Topic {
	var topics []Topic
	for _, trend := range []string{TrendEmerging, TrendEstablished, TrendDeclining} {
		for _, name := range defaultTopics[trend] {
			topics = append(topics, Topic{Name: name, Trend: trend})
		}
	}
	return topics
}

// TopicQueries turns topics into seed queries labelled with the topic name.
func TopicQueries(topics []Topic) []source.Query {
	queries := make([]source.Query, 0, len(topics))
	for _, t := range topics {
		queries = append(queries, source.Query{Text: t.Name, Topic: t.Name})
	}
	return queries
}

// TextQueries turns free-text queries into seed queries. Blank and repeated
// entries are dropped.
func TextQueries(texts []string) []source.Query {
	var queries []source.Query
	seen := make(map[string]bool)
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		queries = append(queries, source.Query{Text: text, Topic: text})
	}
	return queries
}
